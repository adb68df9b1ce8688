package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"iot-command-relay/config"
	"iot-command-relay/logger"
	"iot-command-relay/poller"
)

func main() {
	cfg, err := config.LoadPoller()
	if err != nil {
		logger.Default().Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, _ = logger.ContextWithLogger(ctx, "poller")

	p := poller.New(poller.Config{
		BaseURL:    cfg.BaseURL,
		Interval:   cfg.Interval,
		MaxElapsed: cfg.MaxElapsed,
	}, poller.LogApplier{}, poller.NewSimulator(0))

	if err := p.Run(ctx); err != nil {
		logger.FromContext(ctx).Fatalf("Poller failed: %v", err)
	}
}
