package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/cors"

	"iot-command-relay/config"
	"iot-command-relay/db"
	"iot-command-relay/logger"
	"iot-command-relay/metrics"
	"iot-command-relay/mirror"
	"iot-command-relay/rest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.Database.DB())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	log.Info("Connected to database successfully")

	if err := store.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	version, err := store.GetCurrentVersion(ctx)
	if err != nil {
		log.Warnf("Failed to get current schema version: %v", err)
	} else {
		log.Infof("Database schema version: %d", version)
	}

	cloud := buildMirror(ctx, cfg)
	defer cloud.Close()

	server := rest.NewServer(store, cloud, metrics.New())
	server.RecentLimit = cfg.RecentLimit
	server.MirrorTimeout = cfg.MQTT.PublishTimeout

	app := rest.NewApp()

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + logger.RequestIDHeader,
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(logger.Middleware())

	rest.Init(app, server)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("Failed to shut down cleanly: %v", err)
		}
	}()

	log.Infof("Starting server on %s", cfg.HTTPAddr)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildMirror wires every configured sink. An unreachable broker is logged and the relay
// serves without it; the MQTT mirror then reports itself disconnected.
func buildMirror(ctx context.Context, cfg *config.Config) mirror.Mirror {
	log := logger.Default()
	var sinks []mirror.Mirror

	if cfg.MQTT.Enabled() {
		mqttMirror, err := mirror.NewMQTTMirror(cfg.MQTT.Mirror())
		if err != nil {
			log.Errorf("MQTT mirror disabled: %v", err)
		} else {
			if err := mqttMirror.Connect(ctx); err != nil {
				log.Warnf("MQTT mirror not connected: %v", err)
			}
			sinks = append(sinks, mqttMirror)
		}
	}

	if cfg.Influx.Enabled() {
		sinks = append(sinks, mirror.NewInfluxMirror(cfg.Influx.Mirror(cfg.MQTT.PublishTimeout)))
		log.Infof("Mirroring readings to InfluxDB at %s", cfg.Influx.URL)
	}

	if len(sinks) == 0 {
		log.Info("No cloud mirror configured")
	}

	return mirror.Combine(sinks...)
}
