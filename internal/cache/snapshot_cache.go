package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"icash/internal/logger"
	"icash/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache keeps JSON snapshots of dashboard-style responses in redis
// with a short TTL. Staleness in the order of tens of seconds is acceptable
// for this data. A nil cache is valid and disables caching entirely.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func New(addr string, ttl time.Duration, log *logger.Logger) (*SnapshotCache, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SnapshotCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With("service", "SnapshotCache"),
	}, nil
}

// Get reports whether a fresh snapshot was found and decoded into dest.
func (c *SnapshotCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", "key", key, "error", err)
		}
		metrics.CacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("bad cached payload", "key", key, "error", err)
		metrics.CacheMisses.Inc()
		return false
	}

	metrics.CacheHits.Inc()
	return true
}

// Set stores val under key for the configured TTL. Failures are logged and
// swallowed: the cache is an optimization, never a source of truth.
func (c *SnapshotCache) Set(ctx context.Context, key string, val any) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(val)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err)
	}
}

func (c *SnapshotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
