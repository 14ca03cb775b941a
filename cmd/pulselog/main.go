package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pulselog-lab/pulselog/internal/analytics"
	corecfg "github.com/pulselog-lab/pulselog/internal/core/config"
	"github.com/pulselog-lab/pulselog/internal/core/storage/postgres"
	"github.com/pulselog-lab/pulselog/internal/fingerprint"
	"github.com/pulselog-lab/pulselog/internal/ingestion"
	"github.com/pulselog-lab/pulselog/internal/insights"
	"github.com/pulselog-lab/pulselog/internal/migrations"
	"github.com/pulselog-lab/pulselog/internal/notify"
	"github.com/pulselog-lab/pulselog/internal/reminder"
	"github.com/pulselog-lab/pulselog/internal/server"
)

func main() {
	configPath := flag.String("config", "pulselog.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Fingerprint Gate (shared connection)
	fpStore := postgres.NewFingerprintAdapter(dbAdapter.DB())
	gate := fingerprint.NewGate(fpStore)

	// 4. Initialize Services
	ingestionSvc := ingestion.NewService(dbAdapter, cfg.Server.MaxBodySizeMB)
	analyticsSvc := analytics.NewService(dbAdapter)
	insightsSvc := insights.NewService(dbAdapter, gate, insights.TemplateSummarizer{}, cfg.Insights.MaxInsights)

	// 5. Initialize Reminder Sweep + Notification Dispatcher
	dispatcher := notify.NewDispatcher(notify.LogNotifier{}, notify.Options{
		QueueSize:   cfg.Reminder.QueueSize,
		MaxAttempts: cfg.Reminder.MaxAttempts,
	})

	sweepInterval, err := cfg.Reminder.Interval()
	if err != nil {
		slog.Error("Invalid reminder interval", "value", cfg.Reminder.SweepInterval, "error", err)
		os.Exit(1)
	}
	sweeper := reminder.NewSweeper(
		sweepInterval,
		dbAdapter,
		dispatcher,
		cfg.Rules,
		cfg.Reminder.WorkerCount,
	)

	// 6. Initialize Server
	components := []server.Registrar{ingestionSvc, analyticsSvc}
	if cfg.Insights.Enabled {
		components = append(components, insightsSvc)
	} else {
		slog.Info("Insights API disabled by config")
	}
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode, components...)

	// 7. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dispatcher.Run(ctx)

	if cfg.Reminder.Enabled {
		go func() {
			if err := sweeper.Start(ctx); err != nil {
				slog.Error("Reminder sweeper stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Reminder sweeper disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
