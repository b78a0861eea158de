package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// Connect dials and pings Redis. It returns a nil client and nil error when
// Redis is disabled, so callers can fall back to process-local stores.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewIdempotencyStore uses Redis when a client is available. Without one,
// webhook retries that land on another replica are not deduplicated.
func NewIdempotencyStore(client *redis.Client, log *zap.Logger) shared.IdempotencyStore {
	if client == nil {
		log.Warn("No redis client, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}
	return NewRedisIdempotencyStore(client, DefaultKeyPrefix)
}
