package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ewm:views:"

// RedisCache keeps view counts in Redis for a short TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps rdb. Entries expire after ttl.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached counts for the uris that are present.
func (c *RedisCache) Get(ctx context.Context, uris []string) (map[string]int64, error) {
	keys := make([]string, len(uris))
	for i, u := range uris {
		keys[i] = keyPrefix + u
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("mget views: %w", err)
	}

	out := make(map[string]int64, len(uris))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		out[uris[i]] = n
	}
	return out, nil
}

// Set stores counts with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for uri, n := range counts {
		pipe.Set(ctx, keyPrefix+uri, n, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store views: %w", err)
	}
	return nil
}
