// Package backend talks to the hardware-monitoring backend that owns the
// Bluetooth radio, battery polling and configuration storage.
//
// The backend exposes two surfaces:
//
//   - Commander: request/response commands (read_config, write_config,
//     trigger_scan, set_poll_interval)
//   - EventSource: named push channels such as "device-updates"
//
// MQTT implements both over the broker:
//
//	{prefix}/request/{command}                 request  {"request_id","reply_to","args"}
//	{prefix}/response/{client_id}/{request_id} reply    {"request_id","ok","result","error"}
//	{prefix}/event/{channel}                   push     record object or record array
//
// Every failure is reported with one of the package's sentinel errors:
// ErrBackendUnavailable, ErrTimeout, ErrSerialization, ErrSubscriptionSetup
// or ErrCommandFailed.
package backend
