package history

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConstraint indicates a check constraint violation, such as an
	// unknown status or language.
	ErrConstraint = errors.New("constraint violation")

	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
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
	if strings.Contains(err.Error(), "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}
