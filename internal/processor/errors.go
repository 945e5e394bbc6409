package processor

import "errors"

var (
	// ErrSourceMissing indicates the download disappeared before processing.
	ErrSourceMissing = errors.New("source file missing")

	// ErrNotMedia indicates the path is not a media file.
	ErrNotMedia = errors.New("not a media file")

	// ErrUnstable indicates the file is still growing.
	ErrUnstable = errors.New("file size not stable")

	// ErrNoRoute indicates no destination is configured for the detected
	// type and language.
	ErrNoRoute = errors.New("no destination configured")
)
