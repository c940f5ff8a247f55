package backend

import (
	"context"

	"github.com/nerrad567/bt-monitor/internal/device"
)

// Command names understood by the backend.
const (
	CommandReadConfig      = "read_config"
	CommandWriteConfig     = "write_config"
	CommandTriggerScan     = "trigger_scan"
	CommandSetPollInterval = "set_poll_interval"
)

// DefaultEventChannel is the push channel carrying device-list changes.
const DefaultEventChannel = "device-updates"

// Commander is the backend's request/response command interface.
//
// Requests have no cancellation on the backend side; a cancelled context only
// stops the caller waiting.
type Commander interface {
	// ReadConfig returns the stored configuration verbatim, or nil when the
	// backend has none. It never substitutes the default.
	ReadConfig(ctx context.Context) (*Config, error)

	// WriteConfig stores the full configuration.
	WriteConfig(ctx context.Context, cfg Config) error

	// TriggerScan asks for an immediate full device enumeration.
	TriggerScan(ctx context.Context) ([]device.Record, error)

	// SetPollInterval sets the backend's battery polling cadence.
	SetPollInterval(ctx context.Context, minutes int) error
}

// EventSource delivers backend push events.
type EventSource interface {
	// Listen registers handler for raw payloads on a named channel. The
	// returned unlisten function stops delivery and is safe to call more
	// than once.
	Listen(channel string, handler func(payload []byte)) (unlisten func() error, err error)
}

// Backend is the full collaboration surface of the hardware-monitoring backend.
type Backend interface {
	Commander
	EventSource
}

// Logger defines the logging interface used by backend implementations.
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
