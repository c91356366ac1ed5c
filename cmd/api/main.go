// Package main is the entry point for the damwatch API server.
//
// It loads configuration, connects the store, wires the weather client and
// domain services into the core chassis, and serves until SIGINT/SIGTERM
// triggers a graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"damwatch/internal/api/handlers"
	"damwatch/internal/config"
	"damwatch/internal/core"
	"damwatch/internal/db"
	"damwatch/internal/external"
	"damwatch/internal/observability"
	"damwatch/internal/rainfall"
	"damwatch/internal/valve"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("damwatch API starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(ctx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	readingRepo := db.NewReadingRepository(pool, logger)
	valveRepo := db.NewValveRepository(pool)
	predictionRepo := db.NewPredictionRepository(pool)

	weatherClient := external.NewWeatherClient(cfg.Weather)
	snapshots := external.NewSnapshotProvider(weatherClient, logger, metrics)

	rainfallSvc := rainfall.NewService(readingRepo, snapshots, predictionRepo, metrics, nil, logger)
	valveSvc := valve.NewService(valveRepo, valveRepo, nil, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.HealthProbes = []core.HealthProbe{db.NewProbe(pool)}

	weatherHandler := handlers.NewWeatherHandler(snapshots, cfg.Weather.LocationName)
	rainfallHandler := handlers.NewRainfallHandler(rainfallSvc, logger)
	readingsHandler := handlers.NewReadingsHandler(readingRepo, predictionRepo)
	valveHandler := handlers.NewValveHandler(valveSvc, srv.Validator)

	srv.RouteRegistrars = []core.RouteRegistrar{
		func(r chi.Router) { weatherHandler.RegisterRoutes(r) },
		func(r chi.Router) { rainfallHandler.RegisterRoutes(r) },
		func(r chi.Router) { readingsHandler.RegisterRoutes(r) },
		func(r chi.Router) { valveHandler.RegisterRoutes(r) },
	}
	srv.MountRoutes()

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
