// Package logging provides structured logging for the Bluetooth monitor.
//
// It wraps log/slog so every entry carries the service name and build
// version, and each subsystem can tag its entries with a component:
//
//	log := logging.New(cfg.Logging, version)
//	backendLog := log.Component("backend")
//	backendLog.Info("device snapshot merged", "devices", 4)
//
// Configuration comes from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Bluetooth hardware addresses are logged through BluetoothAddress, which
// masks the middle octets. Never log broker credentials or InfluxDB tokens.
package logging
