package telemetry

import (
	"sync"
	"time"

	"github.com/sensorgrid/sensorgrid/internal/device"
)

// Store is the in-memory telemetry store.
//
// Records are held per device in append order. The store depends on the
// device registry only to distinguish "unknown device" from "registered
// device with no data yet" on reads.
//
// All public methods are thread-safe. A single read-write mutex guards the
// whole record map; appends for different devices serialise against each
// other, which is acceptable at the submission rates this service targets
// and guarantees a reader never observes a half-written record.
type Store struct {
	mu      sync.RWMutex
	records map[string][]*Record
	devices *device.Store
}

// NewStore creates an empty telemetry store backed by the given device
// registry for existence checks.
func NewStore(devices *device.Store) *Store {
	return &Store{
		records: make(map[string][]*Record),
		devices: devices,
	}
}

// Append constructs a record with ReceivedAt set to the current time and
// appends it to the device's list, creating the list on first submission.
// It returns a copy of the stored record.
//
// Precondition: the caller has already verified the device exists. The
// existence check lives with the caller so the device registry stays the
// single source of truth for "device exists".
func (s *Store) Append(deviceID, timestamp string, payload map[string]any) *Record {
	rec := &Record{
		DeviceID:   deviceID,
		Timestamp:  timestamp,
		Payload:    copyPayload(payload),
		ReceivedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.records[deviceID] = append(s.records[deviceID], rec)
	s.mu.Unlock()

	return rec.copy()
}

// ListFor returns the device's records in append order.
//
// A registered device with no records yields an empty (non-nil) slice.
// An unregistered device yields ErrDeviceNotFound, so callers can tell
// "no data yet" apart from "device unknown".
func (s *Store) ListFor(deviceID string) ([]Record, error) {
	if !s.devices.Exists(deviceID) {
		return nil, ErrDeviceNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.records[deviceID]
	records := make([]Record, 0, len(stored))
	for _, r := range stored {
		records = append(records, *r.copy())
	}
	return records, nil
}

// CountFor returns the number of records stored for a device.
func (s *Store) CountFor(deviceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[deviceID])
}

// copy returns an independent copy of the record, cloning the payload so
// callers cannot mutate stored data.
func (r *Record) copy() *Record {
	cpy := *r
	cpy.Payload = copyPayload(r.Payload)
	return &cpy
}
