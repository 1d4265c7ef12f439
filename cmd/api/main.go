package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"container-tracker/internal/core/config"
	"container-tracker/internal/core/logger"
	"container-tracker/internal/core/server"
	"container-tracker/internal/features/tracking"

	"go.uber.org/zap"
)

// @title Container Tracker API
// @version 1.0
// @description Resolves ocean container, bill of lading and booking numbers through carrier scrapers with API fallbacks.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithFile(cfg.Environment, cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	module, err := tracking.Build(ctx, cfg)
	if err != nil {
		l.Fatal("Failed to build tracking module", zap.Error(err))
	}
	defer func() {
		if err := module.Close(); err != nil {
			l.Warn("Failed to close tracking backends", zap.Error(err))
		}
	}()

	if module.Refresher != nil {
		if err := module.Refresher.Start(ctx); err != nil {
			l.Fatal("Failed to start refresher", zap.Error(err))
		}
		defer module.Refresher.Stop()
	}

	srv := server.New(cfg)

	// Register Routes
	srv.App.Get("/tracking/:number", module.Handler.GetTracking)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			l.Error("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		l.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn("Graceful shutdown failed", zap.Error(err))
		}
	}
}
