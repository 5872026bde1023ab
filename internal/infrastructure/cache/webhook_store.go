package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreOption configures NewWebhookEventStore
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger   *zap.Logger
	fallback bool
}

// WithLogger sets the logger used to report which store was chosen
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Defaults to true.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(o *storeOptions) {
		o.fallback = allow
	}
}

// NewRedisClient builds a client from configuration without connecting
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewWebhookEventStore returns the store used to deduplicate Stripe webhook
// deliveries. Redis is used when enabled; with Redis disabled, or unreachable
// and fallback allowed, deliveries are tracked in process memory only.
func NewWebhookEventStore(cfg config.RedisConfig, opts ...StoreOption) (shared.IdempotencyStore, error) {
	o := storeOptions{logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		o.logger.Info("redis disabled, using in-memory webhook event store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err == nil {
		o.logger.Info("using redis webhook event store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !o.fallback {
		return nil, fmt.Errorf("redis required for webhook deduplication: %w", err)
	}

	o.logger.Warn("redis unavailable, falling back to in-memory webhook event store; "+
		"redeliveries may be applied twice across instances",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
