// Package config loads the Bluetooth monitor's process configuration.
//
// Values are layered: built-in defaults, then configs/config.yaml, then
// BTMONITOR_* environment variables. Load validates the result and reports
// every problem at once.
//
// Broker credentials and the InfluxDB token are best supplied through the
// environment (BTMONITOR_MQTT_PASSWORD, BTMONITOR_INFLUXDB_TOKEN) so the file
// can stay world-readable.
//
// This is process configuration only. The user's monitoring settings
// (device handle, battery query cadence, notification threshold) belong to the
// backend and are handled by the settings package.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.GetRequestTimeout()
package config
