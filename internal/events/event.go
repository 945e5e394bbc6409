// Package events carries processing outcomes from the processor to
// persistence and notification sinks.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownType is returned when a stored event type has no decoder.
var ErrUnknownType = errors.New("unknown event type")

// Event is implemented by everything published on the bus.
type Event interface {
	EventType() string
	EntityType() string // EntityMediaFile or EntityScan
	EntityID() int64
	OccurredAt() time.Time
}

// Header identifies an event and what it is about. Concrete events embed it.
type Header struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity_type"`
	ID     int64     `json:"entity_id"`
	At     time.Time `json:"occurred_at"`
}

func (h Header) EventType() string     { return h.Type }
func (h Header) EntityType() string    { return h.Entity }
func (h Header) EntityID() int64       { return h.ID }
func (h Header) OccurredAt() time.Time { return h.At }

func newHeader(eventType, entity string, id int64) Header {
	return Header{Type: eventType, Entity: entity, ID: id, At: time.Now()}
}

// Decode turns a stored event back into its concrete type.
func Decode(raw RawEvent) (Event, error) {
	var e Event
	switch {
	case raw.EventType == EventScanCompleted:
		e = &ScanCompleted{}
	case isFileEvent(raw.EventType):
		e = &FileEvent{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, raw.EventType)
	}
	if err := json.Unmarshal([]byte(raw.Payload), e); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", raw.EventType, err)
	}
	return e, nil
}

func isFileEvent(eventType string) bool {
	for _, t := range FileEvents {
		if t == eventType {
			return true
		}
	}
	return false
}
