package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

type remembered struct {
	paymentID string
	expiresAt time.Time
}

func (r remembered) live(now time.Time) bool {
	return now.Before(r.expiresAt)
}

// InMemoryIdempotencyStore keeps payment keys in process memory. It serves
// single-instance deployments and tests; keys are not shared between
// processes.
type InMemoryIdempotencyStore struct {
	mu       sync.RWMutex
	keys     map[string]remembered
	now      func() time.Time
	interval time.Duration

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures InMemoryIdempotencyStore
type InMemoryOption func(*InMemoryIdempotencyStore)

// WithSweepInterval sets how often expired keys are dropped
func WithSweepInterval(d time.Duration) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		s.now = now
	}
}

// NewInMemoryIdempotencyStore creates a store and starts its sweeper
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		keys:     make(map[string]remembered),
		now:      time.Now,
		interval: defaultSweepInterval,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

// Remember records key -> paymentID unless a live entry exists
func (s *InMemoryIdempotencyStore) Remember(_ context.Context, key, paymentID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if r, ok := s.keys[key]; ok && r.live(now) {
		return false, nil
	}
	s.keys[key] = remembered{paymentID: paymentID, expiresAt: now.Add(ttl)}
	return true, nil
}

// Recall returns the payment recorded for key
func (s *InMemoryIdempotencyStore) Recall(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	r, ok := s.keys[key]
	s.mu.RUnlock()

	if !ok || !r.live(s.now()) {
		return "", false, nil
	}
	return r.paymentID, true, nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops expired keys and returns how many were removed
func (s *InMemoryIdempotencyStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, r := range s.keys {
		if !r.live(now) {
			delete(s.keys, key)
			removed++
		}
	}
	return removed
}

// Len counts stored keys, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
