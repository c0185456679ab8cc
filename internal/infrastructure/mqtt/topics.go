package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Sensorgrid MQTT namespace.
//
// Telemetry topics use the flat scheme: sensorgrid/telemetry/{device_id}.
const (
	// TopicPrefix is the base for all Sensorgrid topics.
	TopicPrefix = "sensorgrid"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "sensorgrid/system"
)

// Topics provides builders for Sensorgrid MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// DeviceTelemetry returns the topic a device publishes readings to.
//
// Example: sensorgrid/telemetry/3f0a9b2c-...
func (Topics) DeviceTelemetry(deviceID string) string {
	return fmt.Sprintf("%s/telemetry/%s", TopicPrefix, deviceID)
}

// AllDeviceTelemetry returns a pattern matching telemetry from all devices.
//
// Pattern: sensorgrid/telemetry/+
func (Topics) AllDeviceTelemetry() string {
	return fmt.Sprintf("%s/telemetry/+", TopicPrefix)
}

// Event returns the topic for service events.
//
// Example: sensorgrid/event/device_registered
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, eventType)
}

// SystemStatus returns the system status topic carrying online/offline
// payloads, including the LWT message.
//
// Example: sensorgrid/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// DeviceIDFromTelemetryTopic extracts the device identifier from a
// telemetry topic. Returns an empty string if the topic does not match
// the sensorgrid/telemetry/{device_id} shape.
func DeviceIDFromTelemetryTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[1] != "telemetry" || parts[2] == "" {
		return ""
	}
	return parts[2]
}
