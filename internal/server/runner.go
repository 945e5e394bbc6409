// Package server runs the long-lived daemon components.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/mediaroute/internal/events"
)

// Component is a long-running part of the daemon. Start blocks until ctx is
// cancelled and returns nil on a clean stop.
type Component interface {
	Name() string
	Start(ctx context.Context) error
}

// Config for the runner.
type Config struct {
	EventRetention time.Duration // zero keeps events forever
	PruneInterval  time.Duration
}

// Runner manages component lifecycles.
type Runner struct {
	components []Component
	events     *events.EventLog
	config     Config
	logger     *slog.Logger
}

// NewRunner creates a new runner. eventLog may be nil.
func NewRunner(eventLog *events.EventLog, cfg Config, logger *slog.Logger, components ...Component) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = 24 * time.Hour
	}
	return &Runner{
		components: components,
		events:     eventLog,
		config:     cfg,
		logger:     logger.With("component", "runner"),
	}
}

// Run starts all components and blocks until the context is canceled or
// one of them fails; a failure stops the others.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, c := range r.components {
		g.Go(func() error {
			r.logger.Info("component starting", "name", c.Name())
			if err := c.Start(ctx); err != nil {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			r.logger.Info("component stopped", "name", c.Name())
			return nil
		})
	}

	if r.events != nil && r.config.EventRetention > 0 {
		g.Go(func() error {
			r.pruneLoop(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	for {
		r.prune()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) prune() {
	n, err := r.events.Prune(r.config.EventRetention)
	if err != nil {
		r.logger.Error("prune events failed", "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("pruned old events", "count", n)
	}
}
