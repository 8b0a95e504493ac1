package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Run(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	ctx := context.Background()

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls, retried := 0, 0
		err := policy.run(ctx, func() error {
			calls++
			if calls < 3 {
				return shared.ErrConcurrencyConflict
			}
			return nil
		}, func(int, error) { retried++ })

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, retried)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		calls := 0
		err := policy.run(ctx, func() error {
			calls++
			return shared.WrapDomainError(shared.CodeConcurrencyConflict, "lock timeout", errors.New("55P03"))
		}, nil)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 3, calls)
	})

	t.Run("domain errors are not retried", func(t *testing.T) {
		calls := 0
		err := policy.run(ctx, func() error {
			calls++
			return shared.ErrInsufficientStock
		}, nil)

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		slow := RetryPolicy{MaxAttempts: 5, Backoff: time.Hour}

		err := slow.run(cancelled, func() error { return shared.ErrConcurrencyConflict }, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		calls := 0
		_ = RetryPolicy{}.run(ctx, func() error {
			calls++
			return shared.ErrConcurrencyConflict
		}, nil)
		assert.Equal(t, 1, calls)
	})
}

func TestIdempotencyCacheKey(t *testing.T) {
	assert.Equal(t, "invoice:k-1", idempotencyCacheKey(AddPaymentCommand{DocumentType: "invoice", IdempotencyKey: "k-1"}))
}
