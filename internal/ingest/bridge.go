package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sensorgrid/sensorgrid/internal/api"
	"github.com/sensorgrid/sensorgrid/internal/device"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/influxdb"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/logging"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/mqtt"
	"github.com/sensorgrid/sensorgrid/internal/telemetry"
)

// MessageBus is the subset of the MQTT client the bridge needs.
// Satisfied by *mqtt.Client; tests substitute a fake.
type MessageBus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// reading is the JSON body devices publish to their telemetry topic.
//
// The device ID comes from the topic, not the body, so a device cannot
// impersonate another by lying in the payload envelope.
type reading struct {
	Timestamp string          `json:"timestamp"`
	Payload   *map[string]any `json:"payload"`
}

// Deps holds the dependencies required by the ingest bridge.
type Deps struct {
	Bus       MessageBus
	Devices   *device.Store
	Telemetry *telemetry.Store
	Influx    *influxdb.Client // optional telemetry mirror
	Hub       *api.Hub         // optional WebSocket event feed
	Logger    *logging.Logger
	QoS       byte
}

// Bridge subscribes to device telemetry topics and feeds readings into the
// telemetry store.
type Bridge struct {
	bus       MessageBus
	devices   *device.Store
	telemetry *telemetry.Store
	influx    *influxdb.Client
	hub       *api.Hub
	logger    *logging.Logger
	qos       byte
	topic     string
}

// New creates an ingest bridge. It does not subscribe until Start().
func New(deps Deps) (*Bridge, error) {
	if deps.Bus == nil {
		return nil, fmt.Errorf("message bus is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device store is required")
	}
	if deps.Telemetry == nil {
		return nil, fmt.Errorf("telemetry store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Bridge{
		bus:       deps.Bus,
		devices:   deps.Devices,
		telemetry: deps.Telemetry,
		influx:    deps.Influx,
		hub:       deps.Hub,
		logger:    deps.Logger,
		qos:       deps.QoS,
		topic:     mqtt.Topics{}.AllDeviceTelemetry(),
	}, nil
}

// Start subscribes to the telemetry wildcard topic.
func (b *Bridge) Start() error {
	b.logger.Info("telemetry ingest bridge starting", "topic", b.topic)
	if err := b.bus.Subscribe(b.topic, b.qos, b.handleMessage); err != nil {
		return fmt.Errorf("subscribing to telemetry topic: %w", err)
	}
	return nil
}

// Close unsubscribes from the telemetry topic.
func (b *Bridge) Close() error {
	if err := b.bus.Unsubscribe(b.topic); err != nil {
		return fmt.Errorf("unsubscribing from telemetry topic: %w", err)
	}
	return nil
}

// handleMessage processes one telemetry publication.
//
// Mirrors the HTTP ingest path: validation first, then the existence check.
// Rejections are logged and dropped rather than returned, since the
// publishing device is not listening for a response.
func (b *Bridge) handleMessage(topic string, payload []byte) error {
	deviceID := mqtt.DeviceIDFromTelemetryTopic(topic)
	if deviceID == "" {
		b.logger.Warn("telemetry on malformed topic dropped", "topic", topic)
		return nil
	}

	var msg reading
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("unparseable telemetry dropped",
			"device_id", deviceID,
			"error", err,
		)
		return nil
	}

	if strings.TrimSpace(msg.Timestamp) == "" || msg.Payload == nil {
		b.logger.Warn("incomplete telemetry dropped",
			"device_id", deviceID,
			"has_timestamp", msg.Timestamp != "",
			"has_payload", msg.Payload != nil,
		)
		return nil
	}

	if !b.devices.Exists(deviceID) {
		b.logger.Warn("telemetry from unregistered device dropped", "device_id", deviceID)
		return nil
	}

	record := b.telemetry.Append(deviceID, msg.Timestamp, *msg.Payload)

	b.logger.Debug("telemetry ingested from mqtt",
		"device_id", deviceID,
		"timestamp", msg.Timestamp,
	)

	if b.influx != nil {
		b.influx.WriteTelemetry(deviceID, record.Payload, record.ReceivedAt)
	}

	event := map[string]any{
		"deviceId":   deviceID,
		"timestamp":  record.Timestamp,
		"payload":    record.Payload,
		"receivedAt": record.ReceivedAt,
	}
	if b.hub != nil {
		b.hub.Broadcast(api.ChannelTelemetryReceived, event)
	}
	b.publishEvent(api.ChannelTelemetryReceived, event)

	return nil
}

// publishEvent mirrors an accepted reading onto sensorgrid/event/{type}.
// Best-effort: a failed publish is logged and dropped.
func (b *Bridge) publishEvent(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to marshal bus event", "event_type", eventType, "error", err)
		return
	}

	topic := mqtt.Topics{}.Event(eventType)
	if err := b.bus.Publish(topic, data, b.qos, false); err != nil {
		b.logger.Warn("bus event publish failed", "topic", topic, "error", err)
	}
}
