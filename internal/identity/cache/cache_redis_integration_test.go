//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"basalt/internal/identity/cache"
	"basalt/internal/platform/logger"
	"basalt/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisVerificationCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = cache.NewRedisVerificationCache(s.redis.Client, time.Minute, logger.New())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestMiss() {
	_, ok := s.cache.Get(context.Background(), "0xalice")
	s.False(ok)
}

func (s *RedisCacheSuite) TestSetAndGet() {
	ctx := context.Background()

	s.cache.Set(ctx, "0xalice", true)
	verified, ok := s.cache.Get(ctx, "0xalice")
	s.True(ok)
	s.True(verified)

	s.cache.Set(ctx, "0xbob", false)
	verified, ok = s.cache.Get(ctx, "0xbob")
	s.True(ok)
	s.False(verified)
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()

	s.cache.Set(ctx, "0xalice", true)
	s.cache.Invalidate(ctx, "0xalice")

	_, ok := s.cache.Get(ctx, "0xalice")
	s.False(ok)
}

// TestEntriesExpire uses a short TTL so staleness stays bounded even if an
// invalidation never arrives.
func (s *RedisCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	short := cache.NewRedisVerificationCache(s.redis.Client, 100*time.Millisecond, logger.New())

	short.Set(ctx, "0xalice", true)
	_, ok := short.Get(ctx, "0xalice")
	s.True(ok)

	s.Eventually(func() bool {
		_, ok := short.Get(ctx, "0xalice")
		return !ok
	}, 2*time.Second, 50*time.Millisecond)
}

// TestKeysAreScoped keeps cache entries from colliding with other redis
// users sharing the instance.
func (s *RedisCacheSuite) TestKeysAreScoped() {
	ctx := context.Background()
	s.cache.Set(ctx, "0xalice", true)

	keys, err := s.redis.Client.Keys(ctx, "identity:verified:*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)
}
