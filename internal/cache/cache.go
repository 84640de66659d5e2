// Package cache is a Redis cache-aside store for JSON values. A nil *Cache
// is valid and behaves as an always-missing cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  stats
}

type stats struct {
	hits, misses, sets, deletes, errors atomic.Uint64
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Get decodes the cached value into dest and reports whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.misses.Add(1)
			return false, nil
		}
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache decode: %w", err)
	}
	c.stats.hits.Add(1)
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache set: %w", err)
	}
	c.stats.sets.Add(1)
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache delete: %w", err)
	}
	c.stats.deletes.Add(uint64(len(keys)))
	return nil
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Hits:    c.stats.hits.Load(),
		Misses:  c.stats.misses.Load(),
		Sets:    c.stats.sets.Load(),
		Deletes: c.stats.deletes.Load(),
		Errors:  c.stats.errors.Load(),
	}
}

// ProductKey is the cache key of a product detail payload.
func ProductKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
