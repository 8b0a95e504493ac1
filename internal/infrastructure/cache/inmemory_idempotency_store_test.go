package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now), WithSweepInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_Remember(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	t.Run("records a new key", func(t *testing.T) {
		isNew, err := store.Remember(ctx, "invoice:k-1", "pay-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		paymentID, ok, err := store.Recall(ctx, "invoice:k-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "pay-1", paymentID)
	})

	t.Run("keeps the first payment for a repeated key", func(t *testing.T) {
		_, err := store.Remember(ctx, "invoice:k-2", "pay-1", time.Hour)
		require.NoError(t, err)

		isNew, err := store.Remember(ctx, "invoice:k-2", "pay-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)

		paymentID, _, err := store.Recall(ctx, "invoice:k-2")
		require.NoError(t, err)
		assert.Equal(t, "pay-1", paymentID)
	})

	t.Run("expired key can be reused", func(t *testing.T) {
		_, err := store.Remember(ctx, "invoice:k-3", "pay-1", time.Minute)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)

		_, ok, err := store.Recall(ctx, "invoice:k-3")
		require.NoError(t, err)
		assert.False(t, ok)

		isNew, err := store.Remember(ctx, "invoice:k-3", "pay-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_RecallMiss(t *testing.T) {
	store, _ := newTestStore(t)

	paymentID, ok, err := store.Recall(context.Background(), "purchase:unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, paymentID)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Remember(ctx, "short-1", "p1", time.Minute)
	_, _ = store.Remember(ctx, "short-2", "p2", time.Minute)
	_, _ = store.Remember(ctx, "long", "p3", time.Hour)
	assert.Equal(t, 3, store.Len())

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 2, store.sweep())

	assert.Equal(t, 1, store.Len())
	_, ok, err := store.Recall(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_ConcurrentRemember(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	const workers = 100

	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			isNew, err := store.Remember(ctx, "invoice:race", "pay", time.Hour)
			results <- err == nil && isNew
		}()
	}

	fresh := 0
	for i := 0; i < workers; i++ {
		if <-results {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
