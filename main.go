package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/campus-coders-club/cp-board/app"
	"github.com/campus-coders-club/cp-board/config"
	"github.com/campus-coders-club/cp-board/internal/observability"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs := observability.Init(observability.Config{
		ServiceName: "cp-board",
		Environment: cfg.Observability.Environment,
		LogLevel:    cfg.Observability.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, obs)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		obs.Logger.Error("Application failed", "error", err)
	}

	if err := application.Close(); err != nil {
		obs.Logger.Error("Error during shutdown", "error", err)
	}

	obs.Logger.Info("Application shut down gracefully")
}
