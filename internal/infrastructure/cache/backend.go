package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend owns the one Redis client a process uses for payment keys and
// maintenance locks. Without Redis it hands out process-local replacements.
type Backend struct {
	client *redis.Client
	logger *zap.Logger
}

type connectOptions struct {
	logger   *zap.Logger
	fallback bool
}

// ConnectOption configures Connect
type ConnectOption func(*connectOptions)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ConnectOption {
	return func(o *connectOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// process memory. Default true.
func WithInMemoryFallback(allow bool) ConnectOption {
	return func(o *connectOptions) {
		o.fallback = allow
	}
}

// Connect dials Redis when it is enabled. The payments unique index stays
// authoritative whichever store ends up in use.
func Connect(ctx context.Context, cfg config.RedisConfig, opts ...ConnectOption) (*Backend, error) {
	o := connectOptions{logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(&o)
	}
	b := &Backend{logger: o.logger}

	if !cfg.Enabled {
		o.logger.Info("Redis disabled, payment keys and job locks are process-local")
		return b, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !o.fallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		o.logger.Warn("Redis unavailable, payment keys and job locks are process-local", zap.Error(err))
		return b, nil
	}
	o.logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	b.client = client
	return b, nil
}

// Shared reports whether state is visible to other processes
func (b *Backend) Shared() bool {
	return b.client != nil
}

// IdempotencyStore returns the Redis store, or a fresh in-memory one
func (b *Backend) IdempotencyStore() shared.IdempotencyStore {
	if b.client == nil {
		return NewInMemoryIdempotencyStore()
	}
	return NewRedisIdempotencyStore(b.client, "")
}

// JobLock returns nil without Redis
func (b *Backend) JobLock(ttl time.Duration) *JobLock {
	if b.client == nil {
		return nil
	}
	return NewJobLock(b.client, ttl, b.logger)
}

// Close closes the Redis client, if any
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
