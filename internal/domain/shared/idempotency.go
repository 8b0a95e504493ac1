package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which payment an idempotency key produced.
// It is a cache in front of the database unique index on
// (document_type, idempotency_key); a miss never means "not processed".
type IdempotencyStore interface {
	// Remember records key -> paymentID. Returns false if the key was already set.
	Remember(ctx context.Context, key, paymentID string, ttl time.Duration) (bool, error)

	// Recall returns the payment ID recorded for key, or ok=false on a miss
	Recall(ctx context.Context, key string) (paymentID string, ok bool, err error)

	Close() error
}

// DefaultIdempotencyTTL is how long a payment key stays cached. Replays
// after that still resolve through the unique index.
const DefaultIdempotencyTTL = 24 * time.Hour
