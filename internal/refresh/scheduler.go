package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/bt-monitor/internal/backend"
	"github.com/nerrad567/bt-monitor/internal/device"
)

// DefaultScanTimeout bounds a full scan when no timeout is configured.
const DefaultScanTimeout = 30 * time.Second

// reloadTimeout bounds one selection re-read.
const reloadTimeout = 5 * time.Second

// Reloader re-reads a persisted selection. *selection.State satisfies it.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Logger defines the logging interface used by the Scheduler.
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

// Options configures a Scheduler.
type Options struct {
	// ScanTimeout bounds TriggerFullScan. Zero uses DefaultScanTimeout.
	ScanTimeout time.Duration

	// Selection is re-read every SelectionRefresh while the scheduler runs.
	// Either being zero disables the local timer.
	Selection        Reloader
	SelectionRefresh time.Duration

	// OnSelectionChange runs after a re-read changed the selection.
	OnSelectionChange func()

	// OnError receives re-read failures.
	OnError func(error)

	Logger Logger
}

// Scheduler issues refresh commands to the backend.
//
// Periodic discovery is owned by the backend. The only local timer re-reads
// the persisted selection; missing a tick loses nothing.
type Scheduler struct {
	backend backend.Commander
	opts    Options
	logger  Logger

	cron *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New creates a scheduler over the backend command interface.
func New(cmd backend.Commander, opts Options) *Scheduler {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scheduler{
		backend: cmd,
		opts:    opts,
		logger:  logger,
	}
}

// TriggerFullScan asks the backend for an immediate full enumeration and
// hands the result to onResult.
//
// On failure onResult is not called, so the registry is left unchanged, and
// the error is returned without retrying. A scan that outlives the bound
// fails with backend.ErrTimeout.
func (s *Scheduler) TriggerFullScan(ctx context.Context, onResult func([]device.Record)) error {
	scanCtx, cancel := context.WithTimeout(ctx, s.opts.ScanTimeout)
	defer cancel()

	start := time.Now()
	records, err := s.backend.TriggerScan(scanCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, backend.ErrTimeout) {
			err = fmt.Errorf("%w: %w", backend.ErrTimeout, err)
		}
		s.logger.Warn("full scan failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("full scan: %w", err)
	}

	s.logger.Info("full scan completed", "devices", len(records), "duration", time.Since(start))
	if onResult != nil {
		onResult(records)
	}
	return nil
}

// SetInterval tells the backend how often to poll battery levels. Whether
// the backend honours it is not verified.
func (s *Scheduler) SetInterval(ctx context.Context, minutes int) error {
	if err := s.backend.SetPollInterval(ctx, minutes); err != nil {
		return fmt.Errorf("setting poll interval: %w", err)
	}
	s.logger.Info("backend poll interval set", "minutes", minutes)
	return nil
}

// Start runs the selection re-read timer, if configured.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New()

	if s.opts.Selection != nil && s.opts.SelectionRefresh > 0 {
		s.cron.Schedule(cron.Every(s.opts.SelectionRefresh), cron.FuncJob(s.reloadSelection))
		s.logger.Info("selection refresh scheduled", "interval", s.opts.SelectionRefresh)
	}
	s.cron.Start()
	s.started = true
	return nil
}

// Stop halts the timer and waits for a running re-read to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.ctx = nil
	s.started = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
}

func (s *Scheduler) reloadSelection() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		return
	}

	reloadCtx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	changed, err := s.opts.Selection.Reload(reloadCtx)
	if err != nil {
		s.logger.Warn("selection re-read failed", "error", err)
		s.opts.OnError(err)
		return
	}
	if changed && s.opts.OnSelectionChange != nil {
		s.opts.OnSelectionChange()
	}
}
