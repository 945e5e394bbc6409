package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session summarises one scan of the download directory.
type Session struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	FilesFound int
	Processed  int
	Succeeded  int
	Failed     int
	TotalBytes int64
}

// StartSession creates and persists a new session.
func (s *Store) StartSession() (*Session, error) {
	sess := &Session{ID: uuid.NewString(), StartedAt: time.Now()}
	_, err := s.db.Exec(`INSERT INTO scan_sessions (id, started_at) VALUES (?, ?)`, sess.ID, sess.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// FinishSession stores the final counters and end time.
func (s *Store) FinishSession(sess *Session) error {
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE scan_sessions SET finished_at = ?, files_found = ?, processed = ?, succeeded = ?,
			failed = ?, total_bytes = ?
		WHERE id = ?`,
		now, sess.FilesFound, sess.Processed, sess.Succeeded, sess.Failed, sess.TotalBytes, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("finish session %s: %w", sess.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("finish session %s: %w", sess.ID, ErrNotFound)
	}
	sess.FinishedAt = &now
	return nil
}

// Sessions returns the most recent sessions first.
func (s *Store) Sessions(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, files_found, processed, succeeded, failed, total_bytes
		FROM scan_sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess := &Session{}
		if err := rows.Scan(&sess.ID, &sess.StartedAt, &sess.FinishedAt, &sess.FilesFound, &sess.Processed,
			&sess.Succeeded, &sess.Failed, &sess.TotalBytes); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
