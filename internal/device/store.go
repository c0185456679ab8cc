package device

import (
	"sync"
	"time"
)

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store is the in-memory device registry.
//
// It holds the authoritative set of registered devices for the lifetime of
// the process. Devices are append-only: there is no update or delete path.
//
// All public methods are thread-safe. A single read-write mutex guards both
// the lookup map and the ordered slice so that a registration is visible
// atomically: a concurrent List never observes a half-inserted device.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*Device
	order  []*Device // registration order, backs List()
	logger Logger
}

// NewStore creates an empty device registry.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Register creates a new device with a freshly generated identifier and the
// current timestamp, inserts it, and returns a copy of the created record.
//
// Name and device type must be non-empty; callers validate request fields
// before calling, but the store guards its own invariant as well.
func (s *Store) Register(name, deviceType string) (*Device, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if deviceType == "" {
		return nil, ErrInvalidType
	}

	dev := &Device{
		ID:           GenerateID(),
		Name:         name,
		Type:         deviceType,
		RegisteredAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.byID[dev.ID] = dev
	s.order = append(s.order, dev)
	s.mu.Unlock()

	s.logger.Info("device registered", "id", dev.ID, "name", dev.Name, "type", dev.Type)

	cpy := *dev
	return &cpy, nil
}

// List returns all devices in registration order.
// The returned slice is always non-nil and holds copies; callers can safely
// modify it.
func (s *Store) List() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]Device, 0, len(s.order))
	for _, d := range s.order {
		devices = append(devices, *d)
	}
	return devices
}

// Get retrieves a device by ID.
// Returns ErrNotFound if the device does not exist.
// The returned device is a copy; callers can safely modify it.
func (s *Store) Get(id string) (*Device, error) {
	s.mu.RLock()
	dev, ok := s.byID[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	cpy := *dev
	return &cpy, nil
}

// Exists reports whether a device with the given ID is registered.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Count returns the number of registered devices.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
