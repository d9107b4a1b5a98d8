// Package cache provides the Redis-backed verification cache used by the
// identity directory's read path.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"basalt/pkg/domain"
)

// Redis key prefix for verification flags.
const verifiedKeyPrefix = "identity:verified:"

// RedisVerificationCache stores verification flags with a bounded TTL.
// Every identity mutation invalidates the account's entry, so the TTL only
// bounds staleness against writers bypassing this process.
//
// Failures are swallowed: a cache outage must degrade reads to the store,
// never fail them.
type RedisVerificationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisVerificationCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisVerificationCache {
	return &RedisVerificationCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisVerificationCache) Get(ctx context.Context, account domain.Address) (bool, bool) {
	val, err := c.client.Get(ctx, verifiedKeyPrefix+account.String()).Result()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "verification cache read failed", "error", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *RedisVerificationCache) Set(ctx context.Context, account domain.Address, verified bool) {
	val := "0"
	if verified {
		val = "1"
	}
	if err := c.client.Set(ctx, verifiedKeyPrefix+account.String(), val, c.ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "verification cache write failed", "error", err)
		}
	}
}

func (c *RedisVerificationCache) Invalidate(ctx context.Context, account domain.Address) {
	if err := c.client.Del(ctx, verifiedKeyPrefix+account.String()).Err(); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "verification cache invalidate failed", "error", err)
		}
	}
}
