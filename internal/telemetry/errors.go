package telemetry

import "errors"

// Domain errors for the telemetry package.
var (
	// ErrDeviceNotFound is returned by ListFor when the device itself is
	// not registered. A registered device with no records yields an empty
	// slice, not this error.
	ErrDeviceNotFound = errors.New("telemetry: device not found")
)
