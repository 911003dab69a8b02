// Package rediscache implements the result cache port over Redis, the
// teacher's own client reused for a second, simpler purpose than its
// session store: an opaque byte-value KV with TTL.
package rediscache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
)

var _ driven.ResultCache = (*Cache)(nil)

// KeyPrefix namespaces every key this adapter writes, so a shared Redis
// instance can host other consumers safely.
const KeyPrefix = "ds:"

// Cache implements driven.ResultCache using a single Redis GET/SET per
// operation plus INFO-based hit/miss accounting, the way
// original_source/api/src/cache.rs reports cache stats.
type Cache struct {
	client *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, KeyPrefix+key, value, ttl).Err()
}

// Stats parses `keyspace_hits`/`keyspace_misses` out of Redis's INFO stats
// section, the same counters original_source's cache.rs reports through.
func (c *Cache) Stats(ctx context.Context) (hits, misses int64, err error) {
	info, err := c.client.Info(ctx, "stats").Result()
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(info, "\r\n") {
		switch {
		case strings.HasPrefix(line, "keyspace_hits:"):
			hits, _ = strconv.ParseInt(strings.TrimPrefix(line, "keyspace_hits:"), 10, 64)
		case strings.HasPrefix(line, "keyspace_misses:"):
			misses, _ = strconv.ParseInt(strings.TrimPrefix(line, "keyspace_misses:"), 10, 64)
		}
	}
	return hits, misses, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
