package telemetry

import "time"

// Record is one telemetry submission associated with a device.
//
// The JSON field names match the wire contract: per-device history listings
// expose timestamp, payload, and receivedAt. The device identifier is
// carried by the request path, not the record body.
type Record struct {
	// DeviceID references the device this record belongs to. Referential
	// integrity is checked at submission time; no deletion path exists that
	// could orphan records afterwards.
	DeviceID string `json:"-"`

	// Timestamp is the caller-supplied reading time, stored verbatim.
	// It represents when the reading was taken, not receipt time, and is
	// never validated against the server clock.
	Timestamp string `json:"timestamp"`

	// Payload is an open key-value structure, opaque to the store.
	Payload map[string]any `json:"payload"`

	// ReceivedAt is set by the service at ingestion time, immutable.
	ReceivedAt time.Time `json:"receivedAt"`
}

// copyPayload clones a payload map one level deep plus nested maps/slices,
// so stored records never alias caller-owned data.
func copyPayload(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = copyValue(v)
	}
	return cpy
}

// copyValue recursively copies a value, handling nested maps and slices.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyPayload(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = copyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, float64, etc.) are safe to copy by value
		return v
	}
}
