package processor

import (
	"context"
	"fmt"
	"os"
	"time"
)

// WaitStable reports the size of path once it has stayed the same over
// window. A file that grew returns ErrUnstable.
func WaitStable(ctx context.Context, path string, window time.Duration) (int64, error) {
	before, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if window <= 0 {
		return before.Size(), nil
	}

	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}

	after, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		return 0, fmt.Errorf("%w: %s", ErrUnstable, path)
	}
	return after.Size(), nil
}
