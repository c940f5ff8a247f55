package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/bt-monitor/internal/backend"
	"github.com/nerrad567/bt-monitor/internal/device"
	"github.com/nerrad567/bt-monitor/internal/refresh"
	"github.com/nerrad567/bt-monitor/internal/selection"
	"github.com/nerrad567/bt-monitor/internal/settings"
	"github.com/nerrad567/bt-monitor/internal/subscription"
)

// persistTimeout bounds one mirror write to the store.
const persistTimeout = 5 * time.Second

// Persistence stores the device cache and the selection. *store.Store
// satisfies it.
type Persistence interface {
	selection.Persister
	LoadDevices(ctx context.Context) ([]device.Record, error)
	SaveDevices(ctx context.Context, records []device.Record) error
	ClearDevices(ctx context.Context) error
}

// Telemetry records device state history. *influxdb.Client satisfies it.
type Telemetry interface {
	WriteDeviceStates(records []device.Record)
}

// Logger defines the logging interface used by the Monitor.
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

// Options configures a Monitor.
type Options struct {
	// EventChannel defaults to backend.DefaultEventChannel.
	EventChannel string

	// ScanTimeout bounds Refresh. Zero uses refresh.DefaultScanTimeout.
	ScanTimeout time.Duration

	// SelectionRefresh is the local selection re-read interval. Zero
	// disables it.
	SelectionRefresh time.Duration

	// PollIntervalMinutes is sent to the backend on Start when positive.
	PollIntervalMinutes int

	// Telemetry is optional.
	Telemetry Telemetry

	// OnChange receives the registry snapshot after every applied update
	// and the selection after every change.
	OnChange func(devices []device.Record)

	// OnError receives every error not returned to a caller: event decode
	// failures, subscription setup, and mirror writes.
	OnError func(error)

	Logger Logger
}

// Monitor keeps the device registry and selection in sync with the backend
// and mirrors every change to persistence and telemetry.
type Monitor struct {
	backend   backend.Backend
	store     Persistence
	opts      Options
	logger    Logger
	registry  *device.Registry
	selection *selection.State
	settings  *settings.Store
	scheduler *refresh.Scheduler

	// applyMu orders merge and mirror so the store never regresses to an
	// older snapshot.
	applyMu sync.Mutex

	mu      sync.Mutex
	sub     *subscription.Subscription
	started bool
}

// New creates a Monitor. Nothing is contacted until Start.
func New(b backend.Backend, p Persistence, opts Options) *Monitor {
	if opts.EventChannel == "" {
		opts.EventChannel = backend.DefaultEventChannel
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	if opts.OnChange == nil {
		opts.OnChange = func([]device.Record) {}
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	m := &Monitor{
		backend:   b,
		store:     p,
		opts:      opts,
		logger:    logger,
		registry:  device.NewRegistry(),
		selection: selection.New(p),
		settings:  settings.New(b),
	}
	m.registry.SetLogger(logger)
	m.selection.SetLogger(logger)
	m.settings.SetLogger(logger)
	m.scheduler = refresh.New(b, refresh.Options{
		ScanTimeout:       opts.ScanTimeout,
		Selection:         m.selection,
		SelectionRefresh:  opts.SelectionRefresh,
		OnSelectionChange: m.notify,
		OnError:           m.report,
		Logger:            logger,
	})
	return m
}

// Start seeds state from the persisted cache, subscribes to device events
// and starts the local timer.
//
// A subscription failure is reported through OnError and returned; the
// monitor keeps serving cached state and explicit refreshes. Calling Start
// again retries only the subscription.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		if err := m.seed(ctx); err != nil {
			return err
		}
		m.started = true
	}
	if m.sub != nil {
		return nil
	}

	sub, err := subscription.Subscribe(m.backend, subscription.Options{
		Channel: m.opts.EventChannel,
		Logger:  m.logger,
	}, m.apply, m.report)
	if err != nil {
		return err
	}
	m.sub = sub

	m.logger.Info("monitor started", "cached_devices", m.registry.Len(), "channel", m.opts.EventChannel)
	return nil
}

// seed restores cached state, starts the scheduler and sends the configured
// poll interval.
func (m *Monitor) seed(ctx context.Context) error {
	cached, err := m.store.LoadDevices(ctx)
	if err != nil {
		m.report(fmt.Errorf("loading device cache: %w", err))
	} else {
		m.registry.LoadFromCache(cached)
	}
	if err := m.selection.Load(ctx); err != nil {
		m.report(err)
	}
	m.notify()

	if err := m.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	if m.opts.PollIntervalMinutes > 0 {
		if err := m.scheduler.SetInterval(ctx, m.opts.PollIntervalMinutes); err != nil {
			m.report(err)
		}
	}
	return nil
}

// Stop unsubscribes, waits for a running event dispatch and halts the local
// timer. It is safe to call more than once but must not be called from
// OnChange or OnError.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	started := m.started
	m.started = false
	m.mu.Unlock()

	if !started {
		return nil
	}

	err := sub.Unsubscribe()
	sub.Drain()
	m.scheduler.Stop()
	m.logger.Info("monitor stopped")
	if err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	return nil
}

// Devices returns the registry snapshot in stable order.
func (m *Monitor) Devices() []device.Record {
	return m.registry.Snapshot()
}

// Registry exposes the device registry for rendering layers.
func (m *Monitor) Registry() *device.Registry {
	return m.registry
}

// Selection exposes the selection state for rendering layers.
func (m *Monitor) Selection() *selection.State {
	return m.selection
}

// Apply merges an update into the registry and mirrors the result. Push
// events and scan results both arrive here.
func (m *Monitor) Apply(u device.Update) {
	m.apply(u)
}

func (m *Monitor) apply(u device.Update) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	snapshot, err := m.registry.Merge(u)
	if err != nil {
		m.report(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.store.SaveDevices(ctx, snapshot); err != nil {
		m.report(fmt.Errorf("persisting device cache: %w", err))
	}

	if m.opts.Telemetry != nil {
		m.opts.Telemetry.WriteDeviceStates(u.Records)
	}

	m.opts.OnChange(snapshot)
}

// Refresh asks the backend for a full scan and applies the result as an
// authoritative snapshot. On failure the registry is unchanged.
func (m *Monitor) Refresh(ctx context.Context) error {
	return m.scheduler.TriggerFullScan(ctx, func(records []device.Record) {
		m.apply(device.Full(records))
	})
}

// SetInterval sets the backend's battery polling cadence.
func (m *Monitor) SetInterval(ctx context.Context, minutes int) error {
	return m.scheduler.SetInterval(ctx, minutes)
}

// Select makes the device with the given Bluetooth address active. The
// address need not be known to the registry.
func (m *Monitor) Select(ctx context.Context, address string) error {
	err := m.selection.Select(ctx, address)
	if errors.Is(err, selection.ErrEmptyAddress) {
		return err
	}
	m.notify()
	return err
}

// Selected resolves the selection against the current registry.
func (m *Monitor) Selected() (device.Record, bool) {
	return m.selection.Resolve(m.registry.Snapshot())
}

// Config returns the backend configuration, or the default when none is
// stored.
func (m *Monitor) Config(ctx context.Context) (backend.Config, error) {
	return m.settings.ReadOrDefault(ctx)
}

// WriteConfig stores a full configuration on the backend.
func (m *Monitor) WriteConfig(ctx context.Context, cfg backend.Config) error {
	return m.settings.Write(ctx, cfg)
}

// ClearCache empties the registry and selection and deletes their persisted
// copies.
func (m *Monitor) ClearCache(ctx context.Context) error {
	m.applyMu.Lock()
	m.registry.Clear()
	err := m.store.ClearDevices(ctx)
	m.applyMu.Unlock()

	err = errors.Join(err, m.selection.Clear(ctx))
	m.notify()
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

func (m *Monitor) notify() {
	m.opts.OnChange(m.registry.Snapshot())
}

func (m *Monitor) report(err error) {
	m.logger.Error("monitor error", "error", err)
	m.opts.OnError(err)
}
