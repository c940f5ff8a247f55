package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/bt-monitor/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "btmonitor"

// Logger wraps slog.Logger with the monitor's default fields.
//
// All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the logging section of config.yaml.
//
// Format "text" selects the human-readable handler; anything else is JSON.
// Output "stderr" writes to stderr; anything else is stdout. Every entry
// carries the service name and the given version.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return newWithWriter(output, cfg, version)
}

func newWithWriter(output io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// parseLevel converts a string log level to slog.Level.
// Unrecognised levels fall back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a Logger tagged with component=name. Each subsystem
// (backend, store, monitor) logs through its own component logger.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default creates a JSON info-level logger on stdout for use before
// configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// BluetoothAddress returns a log attribute carrying a masked Bluetooth
// address. Only the first and last octets survive, so entries stay
// correlatable without recording full hardware identifiers.
func BluetoothAddress(addr string) slog.Attr {
	return slog.String("bluetooth_address", maskAddress(addr))
}

func maskAddress(addr string) string {
	octets := strings.Split(addr, ":")
	if len(octets) < 3 {
		if addr == "" {
			return ""
		}
		return "**"
	}
	for i := 1; i < len(octets)-1; i++ {
		octets[i] = "**"
	}
	return strings.Join(octets, ":")
}
