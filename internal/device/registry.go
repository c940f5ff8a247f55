package device

import (
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
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

// Registry is the in-memory set of known devices keyed by instance ID.
//
// Insertion order is preserved so snapshots render in a stable order. A
// record replaced by a later update keeps its position.
//
// The registry holds deep copies; records passed in or handed out can be
// modified by callers without affecting it. All public methods are
// thread-safe.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]Record
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]Record),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Merge applies an update and returns the resulting snapshot.
//
// A partial update replaces each carried record wholesale (no field-level
// merge) or appends it when its instance ID is new. A full update replaces
// the entire registry atomically; within a full update a repeated instance
// ID keeps its first position and its last value.
func (r *Registry) Merge(u Update) ([]Record, error) {
	for i, rec := range u.Records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidUpdate, i, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch u.Kind {
	case UpdatePartial:
		for _, rec := range u.Records {
			r.putLocked(rec)
		}
		r.logger.Debug("partial device update merged", "records", len(u.Records), "devices", len(r.order))

	case UpdateFull:
		r.order = make([]string, 0, len(u.Records))
		r.records = make(map[string]Record, len(u.Records))
		for _, rec := range u.Records {
			r.putLocked(rec)
		}
		r.logger.Debug("full device snapshot applied", "devices", len(r.order))

	default:
		return nil, fmt.Errorf("%w: kind %s", ErrInvalidUpdate, u.Kind)
	}

	return r.snapshotLocked(), nil
}

// LoadFromCache seeds the registry with persisted records.
//
// Cached records never override live data: a record whose instance ID is
// already present is skipped. Returns the number of records added.
func (r *Registry) LoadFromCache(records []Record) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			r.logger.Warn("skipping invalid cached device", "error", err)
			continue
		}
		if _, exists := r.records[rec.InstanceID]; exists {
			continue
		}
		r.putLocked(rec)
		added++
	}

	r.logger.Info("device cache loaded", "cached", len(records), "added", added)
	return added
}

// Snapshot returns every record in insertion order.
func (r *Registry) Snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Get returns the record with the given instance ID.
func (r *Registry) Get(instanceID string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[instanceID]
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// FindByAddress returns the first record with the given Bluetooth address.
func (r *Registry) FindByAddress(address string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return FindByAddress(r.snapshotLocked(), address)
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear removes every record. Used only for explicit cache invalidation.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = nil
	r.records = make(map[string]Record)
	r.logger.Info("device registry cleared")
}

func (r *Registry) putLocked(rec Record) {
	if _, exists := r.records[rec.InstanceID]; !exists {
		r.order = append(r.order, rec.InstanceID)
	}
	r.records[rec.InstanceID] = rec.Clone()
}

func (r *Registry) snapshotLocked() []Record {
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id].Clone())
	}
	return out
}

// FindByAddress looks up a Bluetooth address in a snapshot.
func FindByAddress(records []Record, address string) (Record, bool) {
	if address == "" {
		return Record{}, false
	}
	for _, rec := range records {
		if rec.BluetoothAddress == address {
			return rec, true
		}
	}
	return Record{}, false
}
