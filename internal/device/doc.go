// Package device provides the device registry for the Bluetooth monitor.
//
// The registry is the in-memory set of Bluetooth devices last reported by the
// hardware-monitoring backend, keyed by the backend's instance ID. It is the
// single source the selection, refresh and display layers read from.
//
// # Architecture
//
//	  push event / scan result           persisted cache
//	           │                               │
//	           ▼                               ▼
//	    DecodeUpdate / DecodeRecords      DecodeRecords
//	           │                               │
//	           ▼                               ▼
//	   Registry.Merge(Update)         Registry.LoadFromCache
//	           │
//	           ▼
//	    Snapshot (insertion order)
//
// # Key Types
//
//   - Record: last known state of one device, with unknown fields preserved
//   - Timestamp: backend calendar time, passed through verbatim
//   - Update: a partial (one device) or full (authoritative snapshot) change
//   - Registry: thread-safe ordered set of records
//
// # Usage
//
//	reg := device.NewRegistry()
//	reg.SetLogger(logger)
//
//	u, ok, err := device.DecodeUpdate(payload)
//	if err != nil {
//	    return err
//	}
//	if ok {
//	    snapshot, _ := reg.Merge(u)
//	    render(snapshot)
//	}
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Records returned by the
// registry are deep copies.
package device
