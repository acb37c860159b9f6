package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"camwatch/internal/config"
	"camwatch/internal/logger"
	"camwatch/internal/loki"
	"camwatch/internal/monitor"
)

func main() {
	cfg := config.Load()
	logg := logger.New(cfg.LogDirectory)

	if cfg.LokiURL == "" {
		log.Fatal("LOKI_URL is required")
	}

	client := loki.New(cfg.LokiURL, "pi_camera_monitor", uuid.NewString())

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logg.Info("Shutdown signal received. Exiting gracefully...")
		cancel()
	}()

	monitor.New(cfg, logg, client).Run(ctx)
}
