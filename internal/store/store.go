package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/bt-monitor/internal/device"
)

// Persistence keys.
const (
	// KeyDeviceInfo holds the device cache as a JSON array of records.
	KeyDeviceInfo = "device_info"

	// KeySelectedDevice holds the selected Bluetooth address as a JSON string.
	KeySelectedDevice = "selected_device_id"
)

var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("store: key not found")

	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("store: corrupt value")
)

// Store is a whole-value key-value store backed by the kv_store table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a store over an open, migrated SQLite connection.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put replaces the value stored under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("store: key is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// LoadJSON decodes the value under key into v.
func (s *Store) LoadJSON(ctx context.Context, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it under key.
func (s *Store) SaveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// LoadDevices returns the cached device list. A missing cache is an empty list.
func (s *Store) LoadDevices(ctx context.Context) ([]device.Record, error) {
	data, err := s.Get(ctx, KeyDeviceInfo)
	if errors.Is(err, ErrNotFound) {
		return []device.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	records, err := device.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, KeyDeviceInfo, err)
	}
	return records, nil
}

// SaveDevices replaces the cached device list.
func (s *Store) SaveDevices(ctx context.Context, records []device.Record) error {
	if records == nil {
		records = []device.Record{}
	}
	return s.SaveJSON(ctx, KeyDeviceInfo, records)
}

// LoadSelection returns the persisted selected address, if any.
func (s *Store) LoadSelection(ctx context.Context) (string, bool, error) {
	var address string
	err := s.LoadJSON(ctx, KeySelectedDevice, &address)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if address == "" {
		return "", false, nil
	}
	return address, true, nil
}

// SaveSelection persists the selected address.
func (s *Store) SaveSelection(ctx context.Context, address string) error {
	return s.SaveJSON(ctx, KeySelectedDevice, address)
}

// ClearSelection removes the persisted selection.
func (s *Store) ClearSelection(ctx context.Context) error {
	return s.Delete(ctx, KeySelectedDevice)
}

// ClearDevices removes the persisted device cache.
func (s *Store) ClearDevices(ctx context.Context) error {
	return s.Delete(ctx, KeyDeviceInfo)
}
