// Package cache is the hot response cache sitting in front of the pipeline.
// An identical (user, message) pair within the TTL is answered straight from
// the cache without touching any model or store.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"Mnemo/internal/models"
	"Mnemo/pkg/logger"
)

const trendingKey = "hot:trending"

// RedisCache implements the hot cache on Redis. Cache failures are treated
// as misses and logged; the turn never fails because the cache is down.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedisCache wraps an injected Redis client.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl, log: log}
}

// cacheKey hashes the (user, message) pair so arbitrary text never ends up
// in a Redis key.
func cacheKey(userID, message string) string {
	sum := md5.Sum([]byte(userID + ":" + message))
	return "hot:response:" + hex.EncodeToString(sum[:])
}

// Get returns the cached response for the pair, if any.
func (c *RedisCache) Get(ctx context.Context, userID, message string) (string, bool) {
	val, err := c.rdb.Get(ctx, cacheKey(userID, message)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.WithStage("cache").WithError(models.ErrorInfo{Message: err.Error(), Type: "redis"}).Warn("cache read failed, treating as miss")
		return "", false
	}
	return val, true
}

// Set stores the response under the pair's key and bumps the message in the
// trending set. Both writes are best-effort.
func (c *RedisCache) Set(ctx context.Context, userID, message, response string) {
	if err := c.rdb.Set(ctx, cacheKey(userID, message), response, c.ttl).Err(); err != nil {
		c.log.WithStage("cache").WithError(models.ErrorInfo{Message: err.Error(), Type: "redis"}).Warn("cache write failed")
		return
	}
	if err := c.rdb.ZIncrBy(ctx, trendingKey, 1, message).Err(); err != nil {
		c.log.WithStage("cache").WithError(models.ErrorInfo{Message: err.Error(), Type: "redis"}).Debug("trending update failed")
	}
}

// Trending returns the n most frequently cached messages, most popular first.
func (c *RedisCache) Trending(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := c.rdb.ZRevRange(ctx, trendingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read trending messages: %w", err)
	}
	return vals, nil
}
