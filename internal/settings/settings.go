package settings

import (
	"context"
	"fmt"

	"github.com/nerrad567/bt-monitor/internal/backend"
)

// Logger defines the logging interface used by the Store.
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

// Store reads and writes the backend's monitoring configuration.
//
// Writes replace the whole configuration; callers read-modify-write.
type Store struct {
	backend backend.Commander
	logger  Logger
}

// New creates a Store over the backend command interface.
func New(cmd backend.Commander) *Store {
	return &Store{backend: cmd, logger: noopLogger{}}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Read returns the configuration exactly as stored by the backend, or nil
// when nothing usable is stored. It never substitutes the default.
func (s *Store) Read(ctx context.Context) (*backend.Config, error) {
	cfg, err := s.backend.ReadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// ReadOrDefault returns the stored configuration, applying
// backend.DefaultConfig when nothing is stored.
func (s *Store) ReadOrDefault(ctx context.Context) (backend.Config, error) {
	cfg, err := s.Read(ctx)
	if err != nil {
		return backend.Config{}, err
	}
	if cfg == nil {
		s.logger.Info("no stored config, using default")
		return backend.DefaultConfig(), nil
	}
	return *cfg, nil
}

// Write validates cfg and sends it to the backend. An invalid configuration
// fails with backend.ErrSerialization without contacting the backend.
//
// A successful write is expected to affect later reads and the backend's
// polling; that effect is not verified here.
func (s *Store) Write(ctx context.Context, cfg backend.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := s.backend.WriteConfig(ctx, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	s.logger.Info("config written",
		"address", cfg.Address,
		"battery_query_duration_minutes", cfg.BatteryQueryDurationMinutes,
		"notify_battery_level", cfg.NotifyBatteryLevel,
	)
	return nil
}
