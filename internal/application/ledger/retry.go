package ledger

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// RetryPolicy bounds internal retries of CONCURRENCY_CONFLICT failures
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy returns 3 attempts with a 20ms linear backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 20 * time.Millisecond}
}

// run calls fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. fn must start a fresh transaction on every call.
func (p RetryPolicy) run(ctx context.Context, fn func() error, onRetry func(attempt int, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !shared.IsRetryable(err) || attempt == attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff * time.Duration(attempt)):
		}
	}
	return err
}
