package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/e7canasta/posture-sensor/internal/core"
)

const defaultConfigPath = "config/postured.yaml"

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup structured logger
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting posture sensor",
		"config", *configPath,
		"debug", *debug,
	)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGINT/SIGTERM shut down; SIGHUP retries after a failure banner
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	retryChan := make(chan os.Signal, 1)
	signal.Notify(retryChan, syscall.SIGHUP)

	sensor, err := core.NewFromFile(*configPath)
	if err != nil {
		slog.Error("failed to create posture sensor", "error", err)
		os.Exit(1)
	}

	// Run service in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- sensor.Run(ctx)
	}()

	// Forward retry signals to the sensor
	go func() {
		for range retryChan {
			slog.Info("received retry signal")
			sensor.Retry()
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			slog.Error("service error", "error", err)
			os.Exit(1)
		}
		slog.Info("service stopped")
		return
	}

	// Graceful shutdown: Run tears down its session on cancellation; give
	// it a bounded window to finish.
	shutdownTimeout := sensor.ShutdownTimeout()
	slog.Info("shutting down gracefully", "timeout", shutdownTimeout)

	select {
	case err := <-errChan:
		if err != nil {
			slog.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	case <-time.After(shutdownTimeout):
		slog.Error("shutdown timed out")
		os.Exit(1)
	}

	slog.Info("posture sensor stopped successfully")
}
