package dashboard

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vmunix/mediaroute/internal/events"
)

// Dashboard status strings, keyed by event type.
var statusByEvent = map[string]string{
	events.EventTransferStarted:     "transferStart",
	events.EventTransferSucceeded:   "transferSuccess",
	events.EventTransferFailed:      "transferFailed",
	events.EventDryRun:              "dryRun",
	events.EventExtractionSucceeded: "extractionSuccess",
	events.EventExtractionFailed:    "extractionFailed",
}

// Sender delivers dashboard updates.
type Sender interface {
	Send(ctx context.Context, u Update) error
}

// Handler subscribes to file events and forwards each one to the dashboard.
// Delivery failures are logged and otherwise ignored.
type Handler struct {
	bus    *events.Bus
	sender Sender
	logger *slog.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(bus *events.Bus, sender Sender, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		bus:    bus,
		sender: sender,
		logger: logger.With("component", "dashboard"),
	}
}

// Name returns the handler name.
func (h *Handler) Name() string {
	return "dashboard"
}

// Start forwards events until ctx is cancelled or the bus closes.
func (h *Handler) Start(ctx context.Context) error {
	ch := h.bus.Subscribe(100, events.FileEvents...)
	defer h.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			h.handle(ctx, e)
		}
	}
}

func (h *Handler) handle(ctx context.Context, e events.Event) {
	fe, ok := e.(*events.FileEvent)
	if !ok {
		return
	}
	u, ok := ToUpdate(fe)
	if !ok {
		return
	}
	if err := h.sender.Send(ctx, u); err != nil {
		h.logger.Warn("dashboard update failed", "file", u.Name, "status", u.Status, "error", err)
		return
	}
	h.logger.Debug("dashboard updated", "file", u.Name, "status", u.Status)
}

// ToUpdate converts a file event into a dashboard payload. It reports false
// for event types the dashboard does not track.
func ToUpdate(fe *events.FileEvent) (Update, bool) {
	status, ok := statusByEvent[fe.EventType()]
	if !ok {
		return Update{}, false
	}
	name := fe.Name
	if name == "" {
		name = path.Base(fe.SourcePath)
	}
	return Update{
		Name:        name,
		Path:        fe.Destination,
		Type:        fe.MediaType,
		Language:    fe.Language,
		Size:        humanize.IBytes(uint64(max(fe.SizeBytes, 0))),
		ProcessedAt: fe.OccurredAt().Format(time.RFC3339),
		Status:      status,
		Error:       fe.Error,
	}, true
}
