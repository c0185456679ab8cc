// Sensorgrid - IoT Device Registry and Telemetry Service
//
// This is the main entry point for the Sensorgrid service. Sensorgrid
// keeps an in-memory registry of field devices and ingests their
// telemetry over HTTP and, optionally, MQTT:
//   - Open registration and ingestion for credential-less sensors
//   - Token-gated reads for admin tooling
//   - Optional InfluxDB mirror and WebSocket event feed
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sensorgrid/sensorgrid/internal/api"
	"github.com/sensorgrid/sensorgrid/internal/device"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/config"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/influxdb"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/logging"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/mqtt"
	"github.com/sensorgrid/sensorgrid/internal/ingest"
	"github.com/sensorgrid/sensorgrid/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Sensorgrid",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Initialise in-memory stores. State is process-lifetime only: a
	// restart clears the registry and all readings.
	devices := device.NewStore()
	devices.SetLogger(log)
	records := telemetry.NewStore(devices)
	log.Info("in-memory stores initialised")

	// Connect to MQTT broker (optional ingest path)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled, HTTP ingest only")
	}

	// Connect to InfluxDB (optional telemetry mirror)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Shared WebSocket hub: the API server and the ingest bridge both
	// broadcast events through it.
	hub := api.NewHub(cfg.WebSocket, log)
	hubCtx, hubCancel := context.WithCancel(ctx)
	defer hubCancel()
	go hub.Run(hubCtx)

	// Start API server
	apiDeps := api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		AuthToken:   cfg.Auth.Token,
		Logger:      log,
		Devices:     devices,
		Telemetry:   records,
		Influx:      influxClient,
		ExternalHub: hub,
		Version:     version,
	}
	// Assign only when connected: a nil *mqtt.Client inside a non-nil
	// interface would defeat the nil check in the event path.
	if mqttClient != nil {
		apiDeps.Events = mqttClient
	}
	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Start MQTT ingest bridge (if MQTT is connected)
	if mqttClient != nil {
		bridge, bridgeErr := ingest.New(ingest.Deps{
			Bus:       mqttClient,
			Devices:   devices,
			Telemetry: records,
			Influx:    influxClient,
			Hub:       hub,
			Logger:    log,
			QoS:       byte(cfg.MQTT.QoS),
		})
		if bridgeErr != nil {
			return fmt.Errorf("creating ingest bridge: %w", bridgeErr)
		}
		if startErr := bridge.Start(); startErr != nil {
			return fmt.Errorf("starting ingest bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping ingest bridge")
			if closeErr := bridge.Close(); closeErr != nil {
				log.Error("error closing ingest bridge", "error", closeErr)
			}
		}()
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, server, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Ingest bridge (if enabled)
	// 2. API server
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)

	log.Info("Sensorgrid stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SENSORGRID_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SENSORGRID_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, server *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
