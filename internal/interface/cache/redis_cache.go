package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
	"flightsearch-service/pkg/logger"
)

const segmentKeyPrefix = "search:segment:"

// RedisResultCache implements the ResultCache interface on Redis so
// multiple service instances can share completed and partial results.
// Expiry is anchored to the entry's CreatedAt: writes set the Redis TTL
// to the remainder of the entry's lifetime, so the repeated rewrites a
// polling loop issues never extend it. All failures degrade to a cache
// miss; the cache is best-effort by contract.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger

	now func() time.Time
}

// NewRedisResultCache creates a new Redis-backed result cache
func NewRedisResultCache(client *redis.Client, ttl time.Duration, logger logger.Logger) *RedisResultCache {
	return &RedisResultCache{
		client: client,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

var _ repository.ResultCache = (*RedisResultCache)(nil)

// Get returns the entry for the key, or false when absent, expired or
// unreadable
func (c *RedisResultCache) Get(ctx context.Context, key entity.SegmentKey) (*entity.CacheEntry, bool) {
	val, err := c.client.Get(ctx, segmentKeyPrefix+string(key)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Redis cache read failed", "key", key, "error", err)
		return nil, false
	}

	var e entity.CacheEntry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		c.logger.Warn("Redis cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	if c.remainingTTL(&e) <= 0 {
		return nil, false
	}
	return &e, true
}

// Put fully replaces the entry for the key
func (c *RedisResultCache) Put(ctx context.Context, key entity.SegmentKey, e *entity.CacheEntry) {
	ttl := c.remainingTTL(e)
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("Redis cache entry marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, segmentKeyPrefix+string(key), data, ttl).Err(); err != nil {
		c.logger.Warn("Redis cache write failed", "key", key, "error", err)
	}
}

// remainingTTL is the entry's lifetime left, measured from CreatedAt.
func (c *RedisResultCache) remainingTTL(e *entity.CacheEntry) time.Duration {
	return c.ttl - c.now().Sub(e.CreatedAt)
}

// Clear discards every segment entry
func (c *RedisResultCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, segmentKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("Redis cache delete failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Redis cache scan failed", "error", err)
	}
}
