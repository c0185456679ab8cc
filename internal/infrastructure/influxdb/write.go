package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelemetry mirrors an accepted telemetry reading to InfluxDB.
//
// Only numeric and boolean payload fields are written; strings and nested
// structures are skipped since the in-memory store keeps the full payload
// and InfluxDB fields carry poorly-typed data badly. A reading whose
// payload has no mirrorable fields is dropped silently.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: The registered device identifier (tag, low cardinality)
//   - payload: The reading's sensor values
//   - receivedAt: Server receipt time, used as the point timestamp
//
// Example:
//
//	client.WriteTelemetry("3f0a9b2c-...", map[string]any{"temperature": 21.5}, record.ReceivedAt)
func (c *Client) WriteTelemetry(deviceID string, payload map[string]any, receivedAt time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case float64:
			fields[key] = v
		case float32:
			fields[key] = float64(v)
		case int:
			fields[key] = v
		case int64:
			fields[key] = v
		case bool:
			fields[key] = v
		}
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"device_id": deviceID,
		},
		fields,
		receivedAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceRegistered records a registration event.
//
// Registrations are rare, so the event stream stays low volume; it exists
// to let dashboards correlate telemetry gaps with fleet changes.
func (c *Client) WriteDeviceRegistered(deviceID string, deviceType string, registeredAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{
			"device_id":   deviceID,
			"device_type": deviceType,
		},
		map[string]interface{}{
			"event": "registered",
		},
		registeredAt,
	)

	c.writeAPI.WritePoint(point)
}
