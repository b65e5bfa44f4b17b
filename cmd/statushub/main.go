package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statushub/statushub/internal/aggregator"
	"github.com/statushub/statushub/internal/api"
	"github.com/statushub/statushub/internal/auth"
	"github.com/statushub/statushub/internal/config"
	"github.com/statushub/statushub/internal/hub"
	"github.com/statushub/statushub/internal/probe"
	"github.com/statushub/statushub/internal/scheduler"
	"github.com/statushub/statushub/internal/status"
	"github.com/statushub/statushub/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	logger := initLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("Starting StatusHub",
		"version", "1.0.0",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"probes", len(cfg.Probes),
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Register probes
	registry := probe.NewRegistry(logger)
	for _, spec := range cfg.Probes {
		if err := registry.Register(spec); err != nil {
			log.Fatalf("Failed to register probe: %v", err)
		}
	}

	// Build the aggregation pipeline
	runner := probe.NewMultiRunner(probe.JSONDecoder{}, logger)
	agg := aggregator.New(registry, runner, cfg.Scheduler.Parallelism, logger)
	snapshotHub := hub.New(logger)
	sched := scheduler.New(ctx, agg, snapshotHub, logger)

	// Log sink subscriber: every published snapshot leaves a trace even
	// with no external consumers attached
	snapshotHub.Subscribe(hub.Funcs{
		OnSnapshot: func(snap *status.Snapshot) {
			logger.Debug("snapshot published",
				"sequence", snap.Sequence,
				"failures", snap.FailureCount(),
			)
		},
		OnError: func(err error) {
			logger.Warn("cycle error published", "error", err)
		},
	})

	// Optional history persistence
	var (
		db       *store.Store
		recorder *store.Recorder
	)
	if cfg.Database.Enabled {
		dsn := cfg.Database.GetDSN()

		if err := store.Migrate(dsn); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}

		db, err = store.New(ctx, dsn)
		if err != nil {
			log.Fatalf("DB init failed: %v", err)
		}
		defer db.Close()

		recorder = store.NewRecorder(db, cfg.History.BufferSize, logger)
		snapshotHub.Subscribe(recorder)

		go func() {
			if err := recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Recorder error", "error", err)
			}
		}()

		logger.Info("History persistence enabled", "dbname", cfg.Database.DBName)
	}

	// Initialize authentication service
	authService, err := auth.NewService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AdminUsername,
		cfg.Auth.AdminPassword,
		cfg.Auth.GetJWTExpiry(),
	)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}

	// Start interval-driven cycles
	if err := sched.Start(cfg.Scheduler.GetInterval()); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create API router
	router := api.NewRouter(cfg, &api.Dependencies{
		Auth:         authService,
		Registry:     registry,
		Aggregator:   agg,
		Scheduler:    sched,
		Hub:          snapshotHub,
		Logger:       logger,
		Interval:     cfg.Scheduler.GetInterval(),
		Store:        db,
		Recorder:     recorder,
		HistoryLimit: cfg.History.DefaultLimit,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop scheduling new cycles, then cancel the root context so
	// in-flight probes are signalled and killed after their grace period
	sched.Stop()
	cancel()
	sched.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Stopped gracefully")
}

func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
