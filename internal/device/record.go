package device

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Timestamp is the backend's calendar time value. It carries no timezone
// and is passed through verbatim.
type Timestamp struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// IsZero reports whether the timestamp was never set.
func (t Timestamp) IsZero() bool {
	return t == Timestamp{}
}

// Valid reports whether every field is within its calendar range.
func (t Timestamp) Valid() bool {
	if t.Month < 1 || t.Month > 12 {
		return false
	}
	if t.Day < 1 || t.Day > daysIn(t.Year, t.Month) {
		return false
	}
	return t.Hour >= 0 && t.Hour <= 23 &&
		t.Minute >= 0 && t.Minute <= 59 &&
		t.Second >= 0 && t.Second <= 60 // leap second
}

// String renders the timestamp as "2026/3/1 - 9:5:0".
func (t Timestamp) String() string {
	return fmt.Sprintf("%d/%d/%d - %d:%d:%d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// Record is the last known state of one Bluetooth device as reported by
// the backend.
//
// InstanceID is the primary key. BluetoothAddress is the user-facing
// selection key; it is unique among currently known devices but not stable
// across backend restarts.
//
// Fields the backend adds beyond the known set are kept in Extra and
// re-emitted unchanged when the record is encoded.
type Record struct {
	InstanceID       string    `json:"instance_id"`
	FriendlyName     string    `json:"friendly_name"`
	BluetoothAddress string    `json:"bluetooth_address"`
	IsConnected      bool      `json:"is_connected"`
	LastSeen         Timestamp `json:"last_seen"`
	LastUsed         Timestamp `json:"last_used"`

	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields are the JSON keys decoded into Record's typed fields.
var knownFields = []string{
	"instance_id",
	"friendly_name",
	"bluetooth_address",
	"is_connected",
	"last_seen",
	"last_used",
}

// recordFields has Record's typed fields without its JSON methods.
type recordFields Record

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields recordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range knownFields {
		delete(all, key)
	}

	*r = Record(fields)
	r.Extra = nil
	if len(all) > 0 {
		r.Extra = all
	}
	return nil
}

// MarshalJSON encodes the known fields merged with Extra. Known fields win
// over an Extra entry with the same key.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Extra) == 0 {
		return json.Marshal(recordFields(r))
	}

	known, err := json.Marshal(recordFields(r))
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for key, value := range r.Extra {
		if _, isKnown := out[key]; !isKnown {
			out[key] = value
		}
	}
	return json.Marshal(out)
}

// Clone returns a copy that shares no mutable state with r.
func (r Record) Clone() Record {
	c := r
	if r.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for key, value := range r.Extra {
			c.Extra[key] = append(json.RawMessage(nil), value...)
		}
	}
	return c
}

// ExtraNumber returns a numeric extra field such as "battery_level".
func (r Record) ExtraNumber(key string) (float64, bool) {
	raw, ok := r.Extra[key]
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// Equal reports whether two records carry the same data.
func (r Record) Equal(other Record) bool {
	if r.InstanceID != other.InstanceID ||
		r.FriendlyName != other.FriendlyName ||
		r.BluetoothAddress != other.BluetoothAddress ||
		r.IsConnected != other.IsConnected ||
		r.LastSeen != other.LastSeen ||
		r.LastUsed != other.LastUsed {
		return false
	}
	return maps.EqualFunc(r.Extra, other.Extra, func(a, b json.RawMessage) bool {
		return string(a) == string(b)
	})
}

// Validate checks the fields the registry relies on.
func (r Record) Validate() error {
	if r.InstanceID == "" {
		return fmt.Errorf("%w: instance_id is required", ErrInvalidRecord)
	}
	if !r.LastSeen.IsZero() && !r.LastSeen.Valid() {
		return fmt.Errorf("%w: last_seen %s out of range", ErrInvalidRecord, r.LastSeen)
	}
	if !r.LastUsed.IsZero() && !r.LastUsed.Valid() {
		return fmt.Errorf("%w: last_used %s out of range", ErrInvalidRecord, r.LastUsed)
	}
	return nil
}
