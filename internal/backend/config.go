package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Config is the monitoring configuration persisted by the backend.
type Config struct {
	// Address is the backend's handle for the monitored device.
	Address int `json:"address"`

	// BatteryQueryDurationMinutes is how often the backend polls battery level.
	BatteryQueryDurationMinutes int `json:"battery_query_duration_minutes"`

	// NotifyBatteryLevel is the percentage at or below which the backend notifies.
	NotifyBatteryLevel int `json:"notify_battery_level"`
}

// Default configuration values used when the backend has nothing stored.
const (
	DefaultAddress                     = 0
	DefaultBatteryQueryDurationMinutes = 60
	DefaultNotifyBatteryLevel          = 20
)

// DefaultConfig returns the canonical fallback configuration.
func DefaultConfig() Config {
	return Config{
		Address:                     DefaultAddress,
		BatteryQueryDurationMinutes: DefaultBatteryQueryDurationMinutes,
		NotifyBatteryLevel:          DefaultNotifyBatteryLevel,
	}
}

// Validate checks every field and reports all problems together.
func (c Config) Validate() error {
	var errs []error
	if c.Address < 0 {
		errs = append(errs, fmt.Errorf("address must be non-negative, got %d", c.Address))
	}
	if c.BatteryQueryDurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("battery_query_duration_minutes must be positive, got %d", c.BatteryQueryDurationMinutes))
	}
	if c.NotifyBatteryLevel < 0 || c.NotifyBatteryLevel > 100 {
		errs = append(errs, fmt.Errorf("notify_battery_level must be 0-100, got %d", c.NotifyBatteryLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSerialization, errors.Join(errs...))
	}
	return nil
}

// storedConfig distinguishes absent fields from zero values.
type storedConfig struct {
	Address                     *int `json:"address"`
	BatteryQueryDurationMinutes *int `json:"battery_query_duration_minutes"`
	NotifyBatteryLevel          *int `json:"notify_battery_level"`
}

// DecodeConfig decodes a stored configuration.
//
// An empty or null payload, or one missing any field, means nothing usable is
// stored and returns nil with no error; the caller applies DefaultConfig.
func DecodeConfig(data []byte) (*Config, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var stored storedConfig
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %w", ErrSerialization, err)
	}
	if stored.Address == nil || stored.BatteryQueryDurationMinutes == nil || stored.NotifyBatteryLevel == nil {
		return nil, nil
	}

	cfg := Config{
		Address:                     *stored.Address,
		BatteryQueryDurationMinutes: *stored.BatteryQueryDurationMinutes,
		NotifyBatteryLevel:          *stored.NotifyBatteryLevel,
	}
	return &cfg, nil
}
