package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "inboxpulse:dash:version"

// Cache keeps rendered dashboards in Redis under versioned keys. Bumping the
// version after an ingestion run orphans every cached page at once; the
// orphans expire on their own TTL.
//
// Every operation is best effort: a Redis outage degrades to direct
// rendering, never to a failed request.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

// Get returns the cached page for name, or ok=false on miss or Redis error.
func (c *Cache) Get(ctx context.Context, name string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	key, err := c.key(ctx, name)
	if err != nil {
		c.log.Warn("cache version lookup failed", "error", err.Error())
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", "key", key, "error", err.Error())
		return nil, false
	}
	return raw, true
}

// Set stores a rendered page under the current version.
func (c *Cache) Set(ctx context.Context, name string, page []byte) {
	if c == nil {
		return
	}
	key, err := c.key(ctx, name)
	if err != nil {
		c.log.Warn("cache version lookup failed", "error", err.Error())
		return
	}
	if err := c.rdb.Set(ctx, key, page, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err.Error())
	}
}

// Bump invalidates every cached dashboard by advancing the version counter.
func (c *Cache) Bump(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Incr(ctx, cacheVersionKey).Err(); err != nil {
		c.log.Warn("cache version bump failed", "error", err.Error())
	}
}

func (c *Cache) key(ctx context.Context, name string) (string, error) {
	v, err := c.rdb.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("inboxpulse:dash:v%d:%s", v, name), nil
}
