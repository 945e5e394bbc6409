package naming

import "errors"

var (
	// ErrPathTraversal indicates a built path would escape its base directory.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrEmptyName indicates nothing usable was left of the filename after cleaning.
	ErrEmptyName = errors.New("no usable name in filename")

	// ErrBadTemplate indicates a naming template the builder cannot render.
	ErrBadTemplate = errors.New("invalid naming template")
)
