package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventLog is the events table. Every event published on the bus is
// appended here so a file's timeline survives restarts.
type EventLog struct {
	db *sql.DB
}

func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// RawEvent is a stored event with its JSON payload undecoded. Use Decode to
// recover the concrete type.
type RawEvent struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Payload    string    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Append stores e and returns its row ID.
func (l *EventLog) Append(e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal %s: %w", e.EventType(), err)
	}
	res, err := l.db.Exec(`
		INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), string(payload), e.OccurredAt(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", e.EventType(), err)
	}
	return res.LastInsertId()
}

// ForFile returns the timeline of one history record, oldest first.
func (l *EventLog) ForFile(fileID int64) ([]RawEvent, error) {
	evts, err := l.query(`WHERE entity_type = ? AND entity_id = ? ORDER BY id ASC`, EntityMediaFile, fileID)
	if err != nil {
		return nil, fmt.Errorf("events for file %d: %w", fileID, err)
	}
	return evts, nil
}

// Recent returns up to limit events, newest first. A non-positive limit
// means 50.
func (l *EventLog) Recent(limit int) ([]RawEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	evts, err := l.query(`ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return evts, nil
}

// Prune deletes events that occurred more than olderThan ago and reports
// how many went.
func (l *EventLog) Prune(olderThan time.Duration) (int64, error) {
	res, err := l.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

func (l *EventLog) query(clause string, args ...any) ([]RawEvent, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, entity_type, entity_id, payload, occurred_at, created_at
		FROM events `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &e.Payload,
			&e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
