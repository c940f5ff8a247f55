// Bluetooth monitor - device state synchronisation daemon
//
// This is the main entry point for the Bluetooth monitor. It keeps a local
// registry of Bluetooth devices in sync with the hardware-monitoring backend,
// persists the last known state and the user's selected device, and mirrors
// device history to InfluxDB when enabled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/bt-monitor/migrations"

	"github.com/nerrad567/bt-monitor/internal/backend"
	"github.com/nerrad567/bt-monitor/internal/device"
	"github.com/nerrad567/bt-monitor/internal/infrastructure/config"
	"github.com/nerrad567/bt-monitor/internal/infrastructure/database"
	"github.com/nerrad567/bt-monitor/internal/infrastructure/influxdb"
	"github.com/nerrad567/bt-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/bt-monitor/internal/infrastructure/mqtt"
	"github.com/nerrad567/bt-monitor/internal/monitor"
	"github.com/nerrad567/bt-monitor/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// healthCheckTimeout bounds the startup connectivity check.
const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting bt-monitor",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", db.Path())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	kv := store.New(db.DB)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("closing MQTT connection")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", mqttClient.ClientID(),
	)

	hw := backend.NewMQTT(mqttClient, cfg.GetRequestTimeout())
	hw.SetLogger(log.Component("backend"))
	defer func() {
		if closeErr := hw.Close(); closeErr != nil {
			log.Error("error closing backend", "error", closeErr)
		}
	}()

	var influxClient *influxdb.Client
	opts := monitor.Options{
		EventChannel:        cfg.Monitor.EventChannel,
		ScanTimeout:         cfg.GetRequestTimeout(),
		SelectionRefresh:    cfg.GetSelectionRefreshInterval(),
		PollIntervalMinutes: cfg.Monitor.PollIntervalMinutes,
		OnChange: func(devices []device.Record) {
			log.Debug("device registry changed", "devices", len(devices))
		},
		OnError: func(err error) {
			log.Warn("device sync error", "error", err)
		},
		Logger: log.Component("monitor"),
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		opts.Telemetry = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	hcCtx, hcCancel := context.WithTimeout(ctx, healthCheckTimeout)
	err = healthCheck(hcCtx, db, mqttClient, influxClient)
	hcCancel()
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	mon := monitor.New(hw, kv, opts)
	if startErr := mon.Start(ctx); startErr != nil {
		// Cached state and explicit refreshes still work without the push
		// channel.
		log.Error("device event subscription failed", "error", startErr)
	}
	defer func() {
		if stopErr := mon.Stop(); stopErr != nil {
			log.Error("error stopping monitor", "error", stopErr)
		}
	}()

	if sel, ok := mon.Selection().Current(); ok {
		log.Info("restored selected device", logging.BluetoothAddress(sel))
	}
	log.Info("bt-monitor started",
		"devices", len(mon.Devices()),
		"mqtt_subscriptions", mqttClient.SubscriptionCount(),
	)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down bt-monitor")
			return nil
		case <-hup:
			if err := rescan(ctx, mon, configPath, cfg.GetRequestTimeout(), log); err != nil {
				log.Error("rescan failed", "error", err)
			}
		}
	}
}

// refresher is the part of the monitor driven by SIGHUP.
type refresher interface {
	SetInterval(ctx context.Context, minutes int) error
	Refresh(ctx context.Context) error
}

// rescan re-reads the poll interval from the config file, sends it to the
// backend when positive and triggers a full device scan. A config that no
// longer loads skips the interval but still scans.
func rescan(ctx context.Context, mon refresher, configPath string, timeout time.Duration, log *logging.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := config.Load(configPath)
	switch {
	case err != nil:
		log.Warn("config reload failed, keeping poll interval", "error", err)
	case cfg.Monitor.PollIntervalMinutes > 0:
		if err := mon.SetInterval(ctx, cfg.Monitor.PollIntervalMinutes); err != nil {
			return fmt.Errorf("setting poll interval: %w", err)
		}
		log.Info("poll interval updated", "minutes", cfg.Monitor.PollIntervalMinutes)
	}

	if err := mon.Refresh(ctx); err != nil {
		return fmt.Errorf("full scan: %w", err)
	}
	log.Info("full device scan applied")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses BTMONITOR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BTMONITOR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
