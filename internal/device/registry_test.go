package device

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.InstanceID
	}
	return out
}

func assertIDs(t *testing.T, records []Record, want ...string) {
	t.Helper()
	got := ids(records)
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestRegistryPartialInsertsAndReplaces(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Merge(Full([]Record{testRecord("A", "Mouse", "AA"), testRecord("B", "Keyboard", "BB")})); err != nil {
		t.Fatalf("Merge(full) error = %v", err)
	}

	updated := testRecord("A", "Mouse", "AA")
	updated.IsConnected = false
	snap, err := reg.Merge(Partial(updated))
	if err != nil {
		t.Fatalf("Merge(partial) error = %v", err)
	}
	assertIDs(t, snap, "A", "B")
	if snap[0].IsConnected {
		t.Error("record A was not replaced")
	}
	if !snap[1].Equal(testRecord("B", "Keyboard", "BB")) {
		t.Errorf("record B changed: %+v", snap[1])
	}

	snap, _ = reg.Merge(Partial(testRecord("C", "Headset", "CC")))
	assertIDs(t, snap, "A", "B", "C")
}

func TestRegistryPartialReplacesWholesale(t *testing.T) {
	reg := NewRegistry()
	first := testRecord("A", "Mouse", "AA")
	first.Extra = map[string]json.RawMessage{"battery_level": json.RawMessage(`50`)}
	reg.Merge(Partial(first))

	second := testRecord("A", "", "AA")
	snap, _ := reg.Merge(Partial(second))

	if snap[0].FriendlyName != "" {
		t.Errorf("FriendlyName = %q, want empty (no field-level merge)", snap[0].FriendlyName)
	}
	if snap[0].Extra != nil {
		t.Errorf("Extra = %v, want nil after wholesale replace", snap[0].Extra)
	}
}

func TestRegistryFullReplacesEverything(t *testing.T) {
	reg := NewRegistry()
	reg.Merge(Full([]Record{testRecord("A", "", ""), testRecord("B", "", "")}))

	snap, err := reg.Merge(Full([]Record{testRecord("C", "", "")}))
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	assertIDs(t, snap, "C")

	snap, _ = reg.Merge(Full(nil))
	if len(snap) != 0 {
		t.Errorf("empty full snapshot left %d records", len(snap))
	}
}

func TestRegistryFullDuplicateIDs(t *testing.T) {
	reg := NewRegistry()
	last := testRecord("A", "second", "")

	snap, _ := reg.Merge(Full([]Record{testRecord("A", "first", ""), testRecord("B", "", ""), last}))
	assertIDs(t, snap, "A", "B")
	if snap[0].FriendlyName != "second" {
		t.Errorf("FriendlyName = %q, want last value", snap[0].FriendlyName)
	}
}

func TestRegistryMergeIdempotent(t *testing.T) {
	updates := []Update{
		Partial(testRecord("A", "Mouse", "AA")),
		Full([]Record{testRecord("A", "", ""), testRecord("B", "", "")}),
	}

	for _, u := range updates {
		t.Run(u.Kind.String(), func(t *testing.T) {
			reg := NewRegistry()
			reg.Merge(Partial(testRecord("Z", "", "")))

			once, _ := reg.Merge(u)
			twice, _ := reg.Merge(u)

			if len(once) != len(twice) {
				t.Fatalf("len once = %d, twice = %d", len(once), len(twice))
			}
			for i := range once {
				if !once[i].Equal(twice[i]) {
					t.Errorf("record %d differs: %+v vs %+v", i, once[i], twice[i])
				}
			}
		})
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	reg := NewRegistry()
	reg.Merge(Partial(testRecord("A", "", "")))

	_, err := reg.Merge(Update{Records: []Record{testRecord("B", "", "")}})
	if !errors.Is(err, ErrInvalidUpdate) {
		t.Fatalf("Merge() error = %v, want ErrInvalidUpdate", err)
	}
	assertIDs(t, reg.Snapshot(), "A")
}

func TestRegistryRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		update Update
	}{
		{"partial without instance id", Partial(testRecord("", "nameless", "AA:BB"))},
		{"full with one invalid record", Full([]Record{testRecord("B", "", ""), testRecord("", "", "")})},
		{"out of range timestamp", Partial(Record{InstanceID: "C", LastSeen: Timestamp{Year: 2024, Month: 13, Day: 1}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Merge(Partial(testRecord("A", "", "")))

			snap, err := reg.Merge(tt.update)
			if !errors.Is(err, ErrInvalidUpdate) || !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("Merge() error = %v, want ErrInvalidUpdate wrapping ErrInvalidRecord", err)
			}
			if snap != nil {
				t.Errorf("Merge() snapshot = %+v on error, want nil", snap)
			}
			assertIDs(t, reg.Snapshot(), "A")
		})
	}
}

func TestRegistryLoadFromCacheSkipsInvalid(t *testing.T) {
	reg := NewRegistry()

	added := reg.LoadFromCache([]Record{testRecord("", "broken", ""), testRecord("B", "", "")})
	if added != 1 {
		t.Errorf("LoadFromCache() = %d, want 1", added)
	}
	assertIDs(t, reg.Snapshot(), "B")
}

func TestRegistryLoadFromCache(t *testing.T) {
	reg := NewRegistry()
	live := testRecord("A", "live", "")
	reg.Merge(Partial(live))

	added := reg.LoadFromCache([]Record{testRecord("A", "cached", ""), testRecord("B", "cached", "")})
	if added != 1 {
		t.Errorf("LoadFromCache() = %d, want 1", added)
	}

	snap := reg.Snapshot()
	assertIDs(t, snap, "A", "B")
	if snap[0].FriendlyName != "live" {
		t.Errorf("cached record overrode live data: %q", snap[0].FriendlyName)
	}
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	reg := NewRegistry()
	r := testRecord("A", "Mouse", "AA")
	r.Extra = map[string]json.RawMessage{"battery_level": json.RawMessage(`10`)}
	reg.Merge(Partial(r))

	r.FriendlyName = "mutated"
	snap := reg.Snapshot()
	snap[0].Extra["battery_level"] = json.RawMessage(`99`)

	got, ok := reg.Get("A")
	if !ok {
		t.Fatal("Get(A) not found")
	}
	if got.FriendlyName != "Mouse" {
		t.Errorf("FriendlyName = %q, registry aliased caller's record", got.FriendlyName)
	}
	if string(got.Extra["battery_level"]) != "10" {
		t.Errorf("battery_level = %s, registry aliased snapshot", got.Extra["battery_level"])
	}
}

func TestRegistryFindByAddress(t *testing.T) {
	reg := NewRegistry()
	reg.Merge(Full([]Record{testRecord("A", "", "AA"), testRecord("B", "", "BB")}))

	got, ok := reg.FindByAddress("BB")
	if !ok || got.InstanceID != "B" {
		t.Errorf("FindByAddress(BB) = %v, %v", got.InstanceID, ok)
	}
	if _, ok := reg.FindByAddress("CC"); ok {
		t.Error("FindByAddress(CC) found a record")
	}
	if _, ok := reg.FindByAddress(""); ok {
		t.Error("FindByAddress(\"\") found a record")
	}
}

func TestRegistryClear(t *testing.T) {
	reg := NewRegistry()
	reg.Merge(Full([]Record{testRecord("A", "", ""), testRecord("B", "", "")}))

	reg.Clear()
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after Clear", reg.Len())
	}

	snap, _ := reg.Merge(Partial(testRecord("B", "", "")))
	assertIDs(t, snap, "B")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Merge(Partial(testRecord("A", "", "")))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = reg.Snapshot()
			}
		}()
	}
	wg.Wait()

	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}
