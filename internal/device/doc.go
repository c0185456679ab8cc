// Package device provides the in-memory device registry for Sensorgrid.
//
// The registry is the authoritative catalogue of registered IoT devices.
// Devices are created through registration, held for the lifetime of the
// process, and never updated or deleted. Listing order is registration
// order.
//
// # Key Types
//
//   - Device: a registered endpoint with a server-issued identifier
//   - Store: the thread-safe in-memory registry
//
// # Usage
//
//	store := device.NewStore()
//	store.SetLogger(log)
//
//	dev, err := store.Register("Sensor1", "Temp")
//	if err != nil {
//	    return err
//	}
//
//	devices := store.List()          // registration order
//	dev, err = store.Get(dev.ID)     // device.ErrNotFound if unknown
//
// # Thread Safety
//
// The Store is safe for concurrent use. All operations are protected by a
// read-write mutex; returned devices are copies and never alias internal
// state.
package device
