package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
)

// Stores groups the key/value stores the web tier needs
type Stores struct {
	Sessions    shared.SessionStore
	Idempotency shared.IdempotencyStore
	Backend     string // "redis" or "memory"

	client *redis.Client
}

// Close closes both stores and the shared Redis client, if any
func (s *Stores) Close() error {
	_ = s.Sessions.Close()
	_ = s.Idempotency.Close()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Factory creates stores from configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	dial                  func(config.RedisConfig) (*redis.Client, error)
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a factory for cfg
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dial:                  NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InMemory returns process-local stores, suitable for a single instance and tests
func (f *Factory) InMemory() *Stores {
	return &Stores{
		Sessions:    NewInMemorySessionStore(),
		Idempotency: NewInMemoryIdempotencyStore(),
		Backend:     "memory",
	}
}

// Create returns Redis-backed stores when Redis is enabled and reachable.
// Otherwise it falls back to memory if allowed.
func (f *Factory) Create() (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory session and idempotency stores")
		return f.InMemory(), nil
	}

	client, err := f.dial(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Sessions will not survive restarts or be shared between instances.",
			zap.Error(err),
		)
		return f.InMemory(), nil
	}

	f.logger.Info("Using Redis session and idempotency stores", zap.String("addr", f.redisConfig.Addr()))
	return &Stores{
		Sessions:    NewRedisSessionStore(client, ""),
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Backend:     "redis",
		client:      client,
	}, nil
}
