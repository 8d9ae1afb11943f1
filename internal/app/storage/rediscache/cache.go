// Package rediscache caches rendered page HTML in Redis. The cache is
// best-effort: every failure is logged and treated as a miss so rendering
// never depends on Redis availability.
package rediscache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/storeadmin/blocklayer/pkg/logger"
)

// DefaultTTL bounds staleness for cached renders; invalidation on write is
// the primary freshness mechanism.
const DefaultTTL = 5 * time.Minute

// Cache stores rendered HTML fragments keyed by page and render variant.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a cache over the given Redis client.
func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.NewDefault("rediscache")
	}
	return &Cache{client: client, ttl: ttl, log: log}
}

// Open connects to Redis by URL and returns a cache, verifying the
// connection with a ping.
func Open(url string, ttl time.Duration, log *logger.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return New(client, ttl, log), nil
}

// Get returns the cached HTML for a key, reporting whether it was present.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		return "", false
	}
	return value, true
}

// Set stores the HTML for a key.
func (c *Cache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// DeletePrefix removes every key under a prefix, used to invalidate all
// render variants of one page.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.WithError(err).WithField("prefix", prefix).Warn("cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("prefix", prefix).Warn("cache invalidation failed")
	}
}

// Close releases the Redis client.
func (c *Cache) Close() error { return c.client.Close() }
