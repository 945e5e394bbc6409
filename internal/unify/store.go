package unify

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Mapping records the canonical folder chosen for a series in one language
// bucket, and every raw spelling that resolved to it.
type Mapping struct {
	ID              int64
	NormalizedName  string
	Language        string
	CanonicalName   string
	Variations      []string
	DestinationRoot string
	Seasons         []int
	EpisodeCount    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AddVariation records a raw series spelling.
func (m *Mapping) AddVariation(name string) {
	if name == "" || slices.Contains(m.Variations, name) {
		return
	}
	m.Variations = append(m.Variations, name)
	slices.Sort(m.Variations)
}

// AddSeason records a season number.
func (m *Mapping) AddSeason(season int) {
	if season <= 0 || slices.Contains(m.Seasons, season) {
		return
	}
	m.Seasons = append(m.Seasons, season)
	slices.Sort(m.Seasons)
}

// MappingStore is the persistence the Unifier needs. WithTx runs fn
// against a transactional view and commits if fn returns nil.
type MappingStore interface {
	Get(normalizedName, language string) (*Mapping, error)
	Put(m *Mapping) error
	WithTx(fn func(MappingStore) error) error
}

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store is the SQLite-backed MappingStore over the season_folders table.
type Store struct {
	db *sql.DB
}

// NewStore creates a new mapping store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// Get returns the mapping for the key, or ErrNotFound.
func (s *Store) Get(normalizedName, language string) (*Mapping, error) {
	return getMapping(s.db, normalizedName, language)
}

// Get returns the mapping for the key within a transaction.
func (t *Tx) Get(normalizedName, language string) (*Mapping, error) {
	return getMapping(t.tx, normalizedName, language)
}

// Put inserts or updates the mapping keyed by (NormalizedName, Language).
func (s *Store) Put(m *Mapping) error { return putMapping(s.db, m) }

// Put inserts or updates the mapping within a transaction.
func (t *Tx) Put(m *Mapping) error { return putMapping(t.tx, m) }

// WithTx runs fn in a transaction.
func (s *Store) WithTx(fn func(MappingStore) error) error {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	tx := &Tx{tx: sqlTx}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// WithTx runs fn inside the already open transaction.
func (t *Tx) WithTx(fn func(MappingStore) error) error {
	return fn(t)
}

// List returns all mappings, optionally restricted to one language.
func (s *Store) List(language string) ([]*Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM season_folders`
	var args []any
	if language != "" {
		query += ` WHERE language = ?`
		args = append(args, language)
	}
	query += ` ORDER BY language, canonical_folder_name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var out []*Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const mappingColumns = `id, normalized_name, language, canonical_folder_name, name_variations,
	destination_root, known_seasons, episode_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(r rowScanner) (*Mapping, error) {
	m := &Mapping{}
	var variations, seasons string
	if err := r.Scan(&m.ID, &m.NormalizedName, &m.Language, &m.CanonicalName, &variations,
		&m.DestinationRoot, &seasons, &m.EpisodeCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(variations), &m.Variations); err != nil {
		return nil, fmt.Errorf("decode name variations: %w", err)
	}
	if err := json.Unmarshal([]byte(seasons), &m.Seasons); err != nil {
		return nil, fmt.Errorf("decode known seasons: %w", err)
	}
	return m, nil
}

func getMapping(q querier, normalizedName, language string) (*Mapping, error) {
	row := q.QueryRow(`SELECT `+mappingColumns+` FROM season_folders
		WHERE normalized_name = ? AND language = ?`, normalizedName, language)
	m, err := scanMapping(row)
	if err != nil {
		return nil, fmt.Errorf("get mapping %q/%s: %w", normalizedName, language, mapSQLiteError(err))
	}
	return m, nil
}

func putMapping(q querier, m *Mapping) error {
	variations, err := json.Marshal(nonNil(m.Variations))
	if err != nil {
		return fmt.Errorf("encode name variations: %w", err)
	}
	seasons, err := json.Marshal(nonNil(m.Seasons))
	if err != nil {
		return fmt.Errorf("encode known seasons: %w", err)
	}

	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	err = q.QueryRow(`
		INSERT INTO season_folders (normalized_name, language, canonical_folder_name, name_variations,
			destination_root, known_seasons, episode_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (normalized_name, language) DO UPDATE SET
			canonical_folder_name = excluded.canonical_folder_name,
			name_variations = excluded.name_variations,
			destination_root = excluded.destination_root,
			known_seasons = excluded.known_seasons,
			episode_count = excluded.episode_count,
			updated_at = excluded.updated_at
		RETURNING id`,
		m.NormalizedName, m.Language, m.CanonicalName, string(variations),
		m.DestinationRoot, string(seasons), m.EpisodeCount, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("put mapping %q/%s: %w", m.NormalizedName, m.Language, mapSQLiteError(err))
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
