// Package history records every file the processor handles and the scan
// sessions that found them.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/mediaroute/internal/detect"
)

// MediaFile is one processing attempt of a downloaded file.
type MediaFile struct {
	ID               int64
	OriginalFilename string
	SourcePath       string
	DestinationPath  string
	Type             detect.MediaType
	Language         detect.Language
	Resolution       string
	Subtitles        []string
	SeriesName       string // tvshow only
	Season           int
	Episode          int
	SizeBytes        int64
	Status           Status
	ErrorMessage     string

	ExtractionApplied  bool
	SizeReductionBytes int64
	Orphan             bool
	SessionID          string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Filter specifies criteria for listing media files.
type Filter struct {
	Status    *Status
	Language  *detect.Language
	Type      *detect.MediaType
	SessionID *string
	Orphan    bool
	Limit     int
}

// Store persists media files and scan sessions.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add inserts a new record. A record without a status starts pending.
// Sets ID, CreatedAt and UpdatedAt on the struct.
func (s *Store) Add(f *MediaFile) error {
	if f.Status == "" {
		f.Status = StatusPending
	}
	subs, err := json.Marshal(nonNil(f.Subtitles))
	if err != nil {
		return fmt.Errorf("encode subtitles: %w", err)
	}

	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO media_files (original_filename, source_path, destination_path, media_type, language,
			resolution, subtitle_languages, series_name, season_number, episode_number, size_bytes,
			status, error_message, extraction_applied, size_reduction_bytes, orphan, session_id,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.OriginalFilename, f.SourcePath, f.DestinationPath, f.Type, f.Language,
		f.Resolution, string(subs), nullString(f.SeriesName), nullInt(f.Season), nullInt(f.Episode), f.SizeBytes,
		f.Status, f.ErrorMessage, f.ExtractionApplied, f.SizeReductionBytes, f.Orphan, nullString(f.SessionID),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert media file: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// Update writes the mutable fields of a record. Status changes must go
// through Transition.
func (s *Store) Update(f *MediaFile) error {
	subs, err := json.Marshal(nonNil(f.Subtitles))
	if err != nil {
		return fmt.Errorf("encode subtitles: %w", err)
	}

	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE media_files SET destination_path = ?, media_type = ?, language = ?, resolution = ?,
			subtitle_languages = ?, series_name = ?, season_number = ?, episode_number = ?, size_bytes = ?,
			extraction_applied = ?, size_reduction_bytes = ?, orphan = ?, updated_at = ?
		WHERE id = ?`,
		f.DestinationPath, f.Type, f.Language, f.Resolution,
		string(subs), nullString(f.SeriesName), nullInt(f.Season), nullInt(f.Episode), f.SizeBytes,
		f.ExtractionApplied, f.SizeReductionBytes, f.Orphan, now,
		f.ID,
	)
	if err != nil {
		return fmt.Errorf("update media file %d: %w", f.ID, mapSQLiteError(err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("update media file %d: %w", f.ID, ErrNotFound)
	}
	f.UpdatedAt = now
	return nil
}

// Transition moves a record to a new status, validating the change.
// Terminal statuses set CompletedAt; errMsg is stored as the error message.
func (s *Store) Transition(f *MediaFile, to Status, errMsg string) error {
	if !f.Status.CanTransitionTo(to) {
		return fmt.Errorf("%s -> %s: %w", f.Status, to, ErrInvalidTransition)
	}

	now := time.Now()
	var completed *time.Time
	if to.IsTerminal() {
		completed = &now
	}
	result, err := s.db.Exec(`
		UPDATE media_files SET status = ?, error_message = ?, updated_at = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		to, errMsg, now, completed, f.ID, f.Status,
	)
	if err != nil {
		return fmt.Errorf("transition media file %d: %w", f.ID, mapSQLiteError(err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("transition media file %d: %w", f.ID, ErrNotFound)
	}

	f.Status = to
	f.ErrorMessage = errMsg
	f.UpdatedAt = now
	f.CompletedAt = completed
	return nil
}

const mediaColumns = `id, original_filename, source_path, destination_path, media_type, language, resolution,
	subtitle_languages, series_name, season_number, episode_number, size_bytes, status, error_message,
	extraction_applied, size_reduction_bytes, orphan, session_id, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaFile(r rowScanner) (*MediaFile, error) {
	f := &MediaFile{}
	var subs string
	var series, session sql.NullString
	var season, episode sql.NullInt64
	err := r.Scan(&f.ID, &f.OriginalFilename, &f.SourcePath, &f.DestinationPath, &f.Type, &f.Language,
		&f.Resolution, &subs, &series, &season, &episode, &f.SizeBytes, &f.Status, &f.ErrorMessage,
		&f.ExtractionApplied, &f.SizeReductionBytes, &f.Orphan, &session, &f.CreatedAt, &f.UpdatedAt, &f.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(subs), &f.Subtitles); err != nil {
		return nil, fmt.Errorf("decode subtitles: %w", err)
	}
	f.SeriesName = series.String
	f.SessionID = session.String
	f.Season = int(season.Int64)
	f.Episode = int(episode.Int64)
	return f, nil
}

// Get retrieves a record by ID.
// Returns ErrNotFound if the record does not exist.
func (s *Store) Get(id int64) (*MediaFile, error) {
	f, err := scanMediaFile(s.db.QueryRow(`SELECT `+mediaColumns+` FROM media_files WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get media file %d: %w", id, mapSQLiteError(err))
	}
	return f, nil
}

// Completed reports whether sourcePath with the given size was already
// transferred, so a rescan can skip it. Dry-run records only count when
// includeDryRun is set.
func (s *Store) Completed(sourcePath string, size int64, includeDryRun bool) (bool, error) {
	statuses := []any{StatusSuccess}
	if includeDryRun {
		statuses = append(statuses, StatusDryRun)
	}
	args := append([]any{sourcePath, size}, statuses...)

	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM media_files
		WHERE source_path = ? AND size_bytes = ? AND status IN (`+placeholders(len(statuses))+`)`,
		args...,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check completed %s: %w", sourcePath, err)
	}
	return n > 0, nil
}

// List returns records matching the filter, most recent first.
func (s *Store) List(f Filter) ([]*MediaFile, error) {
	var conditions []string
	var args []any

	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.Language != nil {
		conditions = append(conditions, "language = ?")
		args = append(args, *f.Language)
	}
	if f.Type != nil {
		conditions = append(conditions, "media_type = ?")
		args = append(args, *f.Type)
	}
	if f.SessionID != nil {
		conditions = append(conditions, "session_id = ?")
		args = append(args, *f.SessionID)
	}
	if f.Orphan {
		conditions = append(conditions, "orphan = 1")
	}

	query := `SELECT ` + mediaColumns + ` FROM media_files`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media files: %w", err)
	}
	defer rows.Close()

	var out []*MediaFile
	for rows.Next() {
		mf, err := scanMediaFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media file: %w", err)
		}
		out = append(out, mf)
	}
	return out, rows.Err()
}

// StatRow aggregates records sharing a type, language and status.
type StatRow struct {
	Type       detect.MediaType
	Language   detect.Language
	Status     Status
	Count      int
	TotalBytes int64
	Saved      int64 // bytes removed by track extraction
}

// Stats aggregates all records by type, language and status.
func (s *Store) Stats() ([]StatRow, error) {
	rows, err := s.db.Query(`
		SELECT media_type, language, status, COUNT(*), COALESCE(SUM(size_bytes), 0),
			COALESCE(SUM(size_reduction_bytes), 0)
		FROM media_files
		GROUP BY media_type, language, status
		ORDER BY media_type, language, status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var r StatRow
		if err := rows.Scan(&r.Type, &r.Language, &r.Status, &r.Count, &r.TotalBytes, &r.Saved); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
