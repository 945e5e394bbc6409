package server

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/mediaroute/internal/events"
	"github.com/vmunix/mediaroute/internal/migrations"
)

type blockingComponent struct {
	name    string
	started atomic.Bool
}

func (c *blockingComponent) Name() string { return c.name }

func (c *blockingComponent) Start(ctx context.Context) error {
	c.started.Store(true)
	<-ctx.Done()
	return nil
}

type failingComponent struct{ err error }

func (c *failingComponent) Name() string { return "failing" }

func (c *failingComponent) Start(context.Context) error { return c.err }

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(db))
	return db
}

func TestRunner_StartsAndStops(t *testing.T) {
	a := &blockingComponent{name: "scanner"}
	b := &blockingComponent{name: "dashboard"}
	runner := NewRunner(nil, Config{}, nil, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool { return a.started.Load() && b.started.Load() }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for runner to stop")
	}
}

func TestRunner_ComponentFailureStopsOthers(t *testing.T) {
	boom := errors.New("watch failed")
	other := &blockingComponent{name: "scanner"}
	runner := NewRunner(nil, Config{}, nil, other, &failingComponent{err: boom})

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failing")
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after component failure")
	}
}

func TestRunner_PrunesOldEvents(t *testing.T) {
	db := setupTestDB(t)
	eventLog := events.NewEventLog(db)

	old := events.NewFileEvent(events.EventTransferSucceeded, 1)
	old.At = time.Now().Add(-48 * time.Hour)
	_, err := eventLog.Append(old)
	require.NoError(t, err)
	_, err = eventLog.Append(events.NewFileEvent(events.EventTransferSucceeded, 2))
	require.NoError(t, err)

	runner := NewRunner(eventLog, Config{EventRetention: 24 * time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		recent, err := eventLog.Recent(10)
		return err == nil && len(recent) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestNewRunner_Defaults(t *testing.T) {
	runner := NewRunner(nil, Config{}, nil)
	require.NotNil(t, runner.logger)
	assert.Equal(t, 24*time.Hour, runner.config.PruneInterval)
}
