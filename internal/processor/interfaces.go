package processor

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/vmunix/mediaroute/internal/events"
	"github.com/vmunix/mediaroute/internal/probe"
	"github.com/vmunix/mediaroute/internal/remux"
)

// Prober reads the track layout of a file.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.Result, error)
}

// Remuxer writes a copy of input holding only the selected tracks and
// returns the new file's path.
type Remuxer interface {
	Remux(ctx context.Context, input string, sel remux.Selection) (string, error)
}

// Transferer delivers a local file to a path relative to the share root.
type Transferer interface {
	Transfer(ctx context.Context, local, remoteRel string) error
}

// Notifier receives processing events.
type Notifier interface {
	Publish(ctx context.Context, e events.Event) error
}
