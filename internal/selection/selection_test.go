package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/bt-monitor/internal/device"
)

// MockPersister is a test implementation of Persister.
type MockPersister struct {
	address string
	set     bool
	saves   int
	loadErr error
	saveErr error
}

func (m *MockPersister) LoadSelection(context.Context) (string, bool, error) {
	if m.loadErr != nil {
		return "", false, m.loadErr
	}
	return m.address, m.set, nil
}

func (m *MockPersister) SaveSelection(_ context.Context, address string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.address, m.set = address, true
	return nil
}

func (m *MockPersister) ClearSelection(context.Context) error {
	m.address, m.set = "", false
	return nil
}

func registry() []device.Record {
	return []device.Record{
		{InstanceID: "A", BluetoothAddress: "AA:AA"},
		{InstanceID: "B", BluetoothAddress: "BB:BB"},
	}
}

func TestSelectWritesThrough(t *testing.T) {
	p := &MockPersister{}
	s := New(p)
	ctx := context.Background()

	if _, ok := s.Current(); ok {
		t.Fatal("Current() ok = true before any selection")
	}

	if err := s.Select(ctx, "BB:BB"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got, ok := s.Current(); !ok || got != "BB:BB" {
		t.Errorf("Current() = %q, %v", got, ok)
	}
	if p.saves != 1 || p.address != "BB:BB" {
		t.Errorf("persisted %q after %d saves", p.address, p.saves)
	}

	s.Select(ctx, "AA:AA")
	if p.saves != 2 {
		t.Errorf("saves = %d, want 2 (no batching)", p.saves)
	}
}

func TestSelectEmptyAddress(t *testing.T) {
	p := &MockPersister{}
	s := New(p)

	if err := s.Select(context.Background(), ""); !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("Select(\"\") error = %v, want ErrEmptyAddress", err)
	}
	if p.saves != 0 {
		t.Error("empty selection was persisted")
	}
}

func TestSelectPersistFailureKeepsMemory(t *testing.T) {
	boom := errors.New("disk full")
	s := New(&MockPersister{saveErr: boom})

	if err := s.Select(context.Background(), "AA:AA"); !errors.Is(err, boom) {
		t.Fatalf("Select() error = %v, want %v", err, boom)
	}
	if got, ok := s.Current(); !ok || got != "AA:AA" {
		t.Errorf("Current() = %q, %v; in-memory selection lost", got, ok)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("match", func(t *testing.T) {
		s := New(&MockPersister{})
		s.Select(ctx, "BB:BB")
		got, ok := s.Resolve(registry())
		if !ok || got.InstanceID != "B" {
			t.Errorf("Resolve() = %+v, %v", got, ok)
		}
	})

	t.Run("stale", func(t *testing.T) {
		s := New(&MockPersister{})
		s.Select(ctx, "XX:YY")
		if _, ok := s.Resolve(registry()); ok {
			t.Error("Resolve() found a stale selection")
		}
	})

	t.Run("nothing selected", func(t *testing.T) {
		s := New(&MockPersister{})
		if _, ok := s.Resolve(registry()); ok {
			t.Error("Resolve() found a record with no selection")
		}
	})

	t.Run("empty registry", func(t *testing.T) {
		s := New(&MockPersister{})
		s.Select(ctx, "AA:AA")
		if _, ok := s.Resolve(nil); ok {
			t.Error("Resolve(nil) found a record")
		}
	})
}

func TestLoadAndReload(t *testing.T) {
	p := &MockPersister{address: "AA:AA", set: true}
	s := New(p)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, _ := s.Current(); got != "AA:AA" {
		t.Errorf("Current() = %q after Load", got)
	}

	changed, err := s.Reload(ctx)
	if err != nil || changed {
		t.Errorf("Reload() = %v, %v; want false, nil", changed, err)
	}

	p.address = "BB:BB"
	changed, err = s.Reload(ctx)
	if err != nil || !changed {
		t.Errorf("Reload() = %v, %v; want true, nil", changed, err)
	}
	if got, _ := s.Current(); got != "BB:BB" {
		t.Errorf("Current() = %q after Reload", got)
	}
}

func TestReloadErrorKeepsMemory(t *testing.T) {
	p := &MockPersister{}
	s := New(p)
	ctx := context.Background()
	s.Select(ctx, "AA:AA")

	p.loadErr = errors.New("locked")
	if _, err := s.Reload(ctx); err == nil {
		t.Fatal("Reload() expected error")
	}
	if got, ok := s.Current(); !ok || got != "AA:AA" {
		t.Errorf("Current() = %q, %v after failed reload", got, ok)
	}
}

func TestClear(t *testing.T) {
	p := &MockPersister{}
	s := New(p)
	ctx := context.Background()
	s.Select(ctx, "AA:AA")

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() ok = true after Clear")
	}
	if p.set {
		t.Error("persisted selection survived Clear")
	}
}

func TestReloadKeepsUnpersistedSelection(t *testing.T) {
	p := &MockPersister{address: "OLD", set: true}
	s := New(p)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	p.saveErr = errors.New("disk full")
	if err := s.Select(ctx, "NEW"); err == nil {
		t.Fatal("Select() expected persist error")
	}

	changed, err := s.Reload(ctx)
	if err == nil {
		t.Error("Reload() expected the retried write to fail")
	}
	if changed {
		t.Error("Reload() reported a change while a write was pending")
	}
	if got, _ := s.Current(); got != "NEW" {
		t.Fatalf("Current() = %q, want NEW; reload reverted memory", got)
	}

	p.saveErr = nil
	changed, err = s.Reload(ctx)
	if err != nil || changed {
		t.Errorf("Reload() = %v, %v; want false, nil", changed, err)
	}
	if p.address != "NEW" {
		t.Errorf("persisted %q, want NEW after retry", p.address)
	}

	// Once written, reloads follow the store again.
	p.address = "OTHER"
	if changed, _ := s.Reload(ctx); !changed {
		t.Error("Reload() ignored an external change after the pending write settled")
	}
	if got, _ := s.Current(); got != "OTHER" {
		t.Errorf("Current() = %q, want OTHER", got)
	}
}

func TestSuccessfulSelectClearsPendingWrite(t *testing.T) {
	p := &MockPersister{}
	s := New(p)
	ctx := context.Background()

	p.saveErr = errors.New("locked")
	s.Select(ctx, "AA:AA")
	p.saveErr = nil
	if err := s.Select(ctx, "BB:BB"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	saves := p.saves
	if _, err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if p.saves != saves {
		t.Errorf("Reload() rewrote a selection that was already persisted")
	}
	if got, _ := s.Current(); got != "BB:BB" {
		t.Errorf("Current() = %q, want BB:BB", got)
	}
}
