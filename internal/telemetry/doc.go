// Package telemetry provides the in-memory telemetry store for Sensorgrid.
//
// Records are appended under a device identifier and retained in arrival
// order for the lifetime of the process. Records are never mutated or
// deleted. Referential integrity (the device must exist) is checked at
// write time by the caller; the store re-checks existence only on reads,
// so that "registered device with no data" and "unknown device" are
// distinguishable.
//
// # Usage
//
//	store := telemetry.NewStore(devices)
//
//	rec, err := store.Append(dev.ID, "2023-01-01T00:00:00Z", map[string]any{"t": 20})
//	records, err := store.ListFor(dev.ID) // telemetry.ErrDeviceNotFound if unknown
//
// # Thread Safety
//
// The Store is safe for concurrent use. A read-write mutex guards the
// record lists; concurrent appends to the same device both survive, in
// mutex acquisition order.
package telemetry
