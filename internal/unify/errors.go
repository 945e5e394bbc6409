package unify

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates no mapping exists for the key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrConstraint indicates a check constraint violation.
	ErrConstraint = errors.New("constraint violation")

	// ErrEmptyName indicates the series name normalizes to nothing.
	ErrEmptyName = errors.New("series name is empty after normalization")
)

// mapSQLiteError converts SQLite errors to domain errors.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}
