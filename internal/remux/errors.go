package remux

import "errors"

var (
	// ErrNoMatchingAudio means the routing language has no audio track in the
	// file. Extraction is skipped and the original is processed unchanged.
	ErrNoMatchingAudio = errors.New("no matching audio track")

	// ErrNothingToDrop means the selection keeps every track.
	ErrNothingToDrop = errors.New("selection keeps every track")

	// ErrToolNotFound is returned when the remux binary is not installed.
	ErrToolNotFound = errors.New("remux tool not found")

	// ErrRemuxFailed is returned when the remux tool exits with an error.
	ErrRemuxFailed = errors.New("remux failed")

	// ErrEmptyOutput is returned when the remux tool produced no data.
	ErrEmptyOutput = errors.New("remux produced empty output")

	// ErrTimeout is returned when the remux did not finish in time.
	ErrTimeout = errors.New("remux timed out")
)

