package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
)

// Retrying retries a Transferer with a per-attempt timeout.
type Retrying struct {
	next     Transferer
	attempts uint
	delay    time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

// NewRetrying wraps next. attempts below 1 means a single attempt; a zero
// timeout leaves attempts unbounded.
func NewRetrying(next Transferer, attempts int, delay, timeout time.Duration, logger *slog.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{
		next:     next,
		attempts: uint(attempts),
		delay:    delay,
		timeout:  timeout,
		log:      logger.With("component", "transfer"),
	}
}

// Transfer runs the wrapped transfer until it succeeds, fails with a
// non-retryable error, or the attempts are used up.
func (r *Retrying) Transfer(ctx context.Context, local, remoteRel string) error {
	return retry.Do(
		func() error {
			return r.attempt(ctx, local, remoteRel)
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn("transfer attempt failed", "path", local, "attempt", n+1, "error", err)
		}),
	)
}

func (r *Retrying) attempt(ctx context.Context, local, remoteRel string) error {
	if r.timeout <= 0 {
		return r.next.Transfer(ctx, local, remoteRel)
	}
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.next.Transfer(actx, local, remoteRel)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
