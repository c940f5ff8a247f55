// Package store persists the monitor's state across restarts.
//
// Values are whole JSON documents in the SQLite kv_store table, written and
// read as a unit. Two keys are used:
//
//   - device_info: the device cache, a JSON array of records
//   - selected_device_id: the selected Bluetooth address, a JSON string
//
// Persistence is best-effort durability for the next start; in-memory state
// is the source of truth for the running process.
package store
