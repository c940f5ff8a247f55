package device

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UpdateKind distinguishes how an Update is applied to the registry.
type UpdateKind int

const (
	// UpdatePartial replaces or inserts the carried record and leaves every
	// other record untouched.
	UpdatePartial UpdateKind = iota + 1

	// UpdateFull is an authoritative snapshot: it replaces the whole registry.
	UpdateFull
)

// String returns the kind's name for logging.
func (k UpdateKind) String() string {
	switch k {
	case UpdatePartial:
		return "partial"
	case UpdateFull:
		return "full"
	default:
		return fmt.Sprintf("UpdateKind(%d)", int(k))
	}
}

// Update is one change to the device set. The kind is explicit so a
// single-element full snapshot is never mistaken for a partial update.
type Update struct {
	Kind    UpdateKind
	Records []Record
}

// Partial returns an update for one changed device.
func Partial(r Record) Update {
	return Update{Kind: UpdatePartial, Records: []Record{r}}
}

// Full returns an authoritative snapshot update. A nil or empty slice
// clears the registry.
func Full(records []Record) Update {
	return Update{Kind: UpdateFull, Records: records}
}

// DecodeUpdate converts a push-event payload into an Update.
//
// The backend encodes the granularity in the payload shape: a JSON object is
// one changed device (partial), a JSON array is a complete snapshot (full).
// An empty or null payload carries nothing and returns ok=false.
//
// Every record is validated; a payload that does not match the schema
// returns an error wrapping ErrInvalidPayload.
func DecodeUpdate(payload []byte) (u Update, ok bool, err error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Update{}, false, nil
	}

	switch trimmed[0] {
	case '{':
		var r Record
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return Update{}, false, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		if err := r.Validate(); err != nil {
			return Update{}, false, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return Partial(r), true, nil

	case '[':
		records, err := DecodeRecords(trimmed)
		if err != nil {
			return Update{}, false, err
		}
		return Full(records), true, nil

	default:
		return Update{}, false, fmt.Errorf("%w: expected object or array", ErrInvalidPayload)
	}
}

// DecodeRecords decodes and validates a JSON array of records, as carried by
// full snapshots, scan results and the persisted cache.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidPayload, i, err)
		}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
