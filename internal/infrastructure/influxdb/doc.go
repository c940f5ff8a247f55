// Package influxdb provides InfluxDB connectivity for the Bluetooth monitor.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, device state writing and health monitoring.
//
// # Purpose
//
// Every registry change is mirrored here as history, one point per changed
// device in the bluetooth_device measurement:
//   - tags: instance_id, bluetooth_address, friendly_name
//   - fields: is_connected, battery_level (when the backend reports it)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceStates(registry.Snapshot())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered to the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
