package device

import (
	"time"

	"github.com/google/uuid"
)

// Device represents a registered IoT endpoint.
//
// The JSON field names match the wire contract served by the API: device
// listings expose the registration timestamp as "registrationDate".
type Device struct {
	// ID is the server-issued identifier, unique and immutable once assigned.
	ID string `json:"id"`

	// Name is the caller-supplied display name.
	Name string `json:"name"`

	// Type is a free-form classification supplied at registration
	// (e.g. "Thermostat").
	Type string `json:"type"`

	// RegisteredAt is set at creation and immutable.
	RegisteredAt time.Time `json:"registrationDate"`
}

// GenerateID creates a new UUID for a device.
//
// UUIDs make identifier collisions practically impossible under concurrent
// registration, unlike timestamp-derived identifiers.
func GenerateID() string {
	return uuid.New().String()
}
