package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

type subscription struct {
	ch    chan Event
	types []string // empty means every type
}

func (s *subscription) wants(eventType string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, eventType)
}

// Bus fans processing events out to subscribers and the event log.
// Delivery never blocks the publisher: a full subscriber misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    []*subscription
	log     *EventLog // may be nil
	logger  *slog.Logger
	closed  bool
	dropped atomic.Int64
}

// NewBus creates a bus. A nil EventLog disables persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		log:    log,
		logger: logger.With("component", "events"),
	}
}

// Publish persists e and delivers it to matching subscribers.
// Persistence failures are logged, not returned.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	if b.log != nil {
		if _, err := b.log.Append(e); err != nil {
			b.logger.Error("persist event failed", "type", e.EventType(), "error", err)
		}
	}

	for _, s := range b.subs {
		if !s.wants(e.EventType()) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
			b.logger.Warn("subscriber full, dropping event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

// Subscribe returns a channel receiving events of the given types, or of
// every type when none are given.
func (b *Bus) Subscribe(bufferSize int, types ...string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, types: types})
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = slices.Delete(b.subs, i, i+1)
			close(s.ch)
			return
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are no-ops.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
