package transfer

import (
	"context"
	"errors"
)

var (
	// ErrTransferFailed indicates the file could not be delivered.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrSourceMissing indicates the local file does not exist.
	ErrSourceMissing = errors.New("source file missing")

	// ErrInvalidRemotePath indicates a destination that cannot be expressed
	// safely on the share.
	ErrInvalidRemotePath = errors.New("invalid remote path")

	// ErrToolNotFound indicates the smbclient binary is not installed.
	ErrToolNotFound = errors.New("smbclient not found")

	// ErrTimeout indicates a single attempt exceeded its deadline.
	ErrTimeout = errors.New("transfer timed out")
)

// IsRetryable reports whether another attempt could succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, ErrSourceMissing),
		errors.Is(err, ErrInvalidRemotePath),
		errors.Is(err, ErrToolNotFound):
		return false
	}
	return true
}
