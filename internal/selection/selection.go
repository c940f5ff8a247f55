package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/bt-monitor/internal/device"
)

// ErrEmptyAddress is returned when selecting an empty Bluetooth address.
var ErrEmptyAddress = errors.New("selection: address is required")

// Persister stores the selected address. *store.Store satisfies it.
type Persister interface {
	LoadSelection(ctx context.Context) (string, bool, error)
	SaveSelection(ctx context.Context, address string) error
	ClearSelection(ctx context.Context) error
}

// Logger defines the logging interface used by State.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// State tracks the single active device by Bluetooth address.
//
// The selection may name a device the registry no longer knows; Resolve then
// reports no match. In-memory state is authoritative for the running process
// and every change is written through to the persister immediately. A change
// whose write failed stays pending; Reload retries the write instead of
// overwriting memory with the older persisted value.
type State struct {
	mu       sync.RWMutex
	address  string
	selected bool

	// version increments on every in-memory change; dirty marks a change
	// the persister has not accepted yet.
	version uint64
	dirty   bool

	persist Persister
	logger  Logger
}

// New creates an empty selection backed by p.
func New(p Persister) *State {
	return &State{persist: p, logger: noopLogger{}}
}

// SetLogger sets the logger for the selection.
func (s *State) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

func (s *State) getLogger() Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// Select sets the current selection and persists it. The in-memory selection
// changes even when persisting fails; the error is returned for reporting.
func (s *State) Select(ctx context.Context, address string) error {
	if address == "" {
		return ErrEmptyAddress
	}

	v := s.set(address, true)
	s.getLogger().Info("device selected", "bluetooth_address", address)

	err := s.persist.SaveSelection(ctx, address)
	s.settle(v, err)
	if err != nil {
		return fmt.Errorf("persisting selection: %w", err)
	}
	return nil
}

// set changes the in-memory selection and returns its version.
func (s *State) set(address string, selected bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
	s.selected = selected
	s.version++
	return s.version
}

// settle records the outcome of persisting version v. A newer change owns
// the dirty flag.
func (s *State) settle(v uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == v {
		s.dirty = err != nil
	}
}

// write persists an in-memory value.
func (s *State) write(ctx context.Context, address string, selected bool) error {
	if selected {
		return s.persist.SaveSelection(ctx, address)
	}
	return s.persist.ClearSelection(ctx)
}

// Current returns the selected address, if any.
func (s *State) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address, s.selected
}

// Resolve looks the selection up in a registry snapshot by Bluetooth address.
// A missing or stale selection returns false.
func (s *State) Resolve(records []device.Record) (device.Record, bool) {
	address, ok := s.Current()
	if !ok {
		return device.Record{}, false
	}
	return device.FindByAddress(records, address)
}

// Load replaces the in-memory selection with the persisted one.
func (s *State) Load(ctx context.Context) error {
	_, err := s.Reload(ctx)
	return err
}

// Reload re-reads the persisted selection and reports whether the in-memory
// value changed. On error the in-memory value is kept.
//
// While an earlier write is pending, Reload retries that write and never
// changes memory.
func (s *State) Reload(ctx context.Context) (bool, error) {
	s.mu.RLock()
	dirty, address, selected, v := s.dirty, s.address, s.selected, s.version
	s.mu.RUnlock()

	if dirty {
		err := s.write(ctx, address, selected)
		s.settle(v, err)
		if err != nil {
			return false, fmt.Errorf("retrying selection write: %w", err)
		}
		s.getLogger().Debug("pending selection persisted", "bluetooth_address", address, "selected", selected)
		return false, nil
	}

	persisted, ok, err := s.persist.LoadSelection(ctx)
	if err != nil {
		return false, fmt.Errorf("loading selection: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Memory changed while the store was being read; the newer value wins.
	if s.version != v || s.dirty {
		return false, nil
	}
	if ok == s.selected && persisted == s.address {
		return false, nil
	}
	s.address = persisted
	s.selected = ok
	s.version++
	s.logger.Debug("selection reloaded", "bluetooth_address", persisted, "selected", ok)
	return true, nil
}

// Clear removes the selection in memory and in the persister.
func (s *State) Clear(ctx context.Context) error {
	v := s.set("", false)

	err := s.persist.ClearSelection(ctx)
	s.settle(v, err)
	if err != nil {
		return fmt.Errorf("clearing selection: %w", err)
	}
	return nil
}
