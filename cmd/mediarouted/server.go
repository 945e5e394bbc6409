package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vmunix/mediaroute/internal/app"
	"github.com/vmunix/mediaroute/internal/config"
	"github.com/vmunix/mediaroute/internal/server"
)

func runServer(configPath string, dryRun bool) error {
	if configPath == "" {
		p, err := config.Discover()
		if err != nil {
			return err
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if dryRun {
		cfg.Scan.DryRun = true
	}

	logger, logCloser := app.NewLogger(cfg.Log, os.Stdout)
	defer func() { _ = logCloser.Close() }()

	db, err := app.OpenDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	a, err := app.Build(cfg, db, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	logger.Info("mediarouted starting",
		"version", version,
		"config", configPath,
		"database", cfg.Database.Path,
		"download_dir", cfg.Scan.DownloadDir,
		"transfer", cfg.Transfer.Method,
		"dashboard", cfg.Dashboard.URL != "",
		"watch", cfg.Scan.Watch,
		"dry_run", cfg.Scan.DryRun,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := server.NewRunner(a.EventLog, server.Config{
		EventRetention: cfg.Database.EventRetention,
	}, logger, a.Components()...)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("mediarouted stopped", "dropped_events", a.Bus.Dropped())
	return nil
}
