package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sparkmatch/discovery/internal/config"
)

// admirerCountTTL bounds staleness of the "liked you" counter.
const admirerCountTTL = time.Hour

// RedisCache holds hot per-user counters that are too write-heavy for the
// in-process page cache (every like/pass touches them).
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForAdmirerCount generates the Redis key for a user's "liked you" count.
func (c *RedisCache) KeyForAdmirerCount(userID uint64) string {
	return fmt.Sprintf("admirers:count:%d", userID)
}

// GetAdmirerCount returns the cached count for userID.
// A missing key is a cache miss (found=false), not an error; a present key
// gets its TTL refreshed since the user is active.
func (c *RedisCache) GetAdmirerCount(ctx context.Context, userID uint64) (count int64, found bool, err error) {
	key := c.KeyForAdmirerCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}

	_ = c.Client.Expire(ctx, key, admirerCountTTL).Err()
	return n, true, nil
}

// SetAdmirerCount backfills the counter after a DB count, with TTL.
func (c *RedisCache) SetAdmirerCount(ctx context.Context, userID uint64, count int64) error {
	key := c.KeyForAdmirerCount(userID)
	return c.Client.Set(ctx, key, count, admirerCountTTL).Err()
}

// BumpAdmirerCount nudges the counter after an interaction write: +1 when
// the target gained an admirer, -1 when they lost one. Only applied when
// the key already exists, so a stale-free DB count stays the source of
// truth on cold keys.
func (c *RedisCache) BumpAdmirerCount(ctx context.Context, userID uint64, delta int64) error {
	key := c.KeyForAdmirerCount(userID)

	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	if err := c.Client.IncrBy(ctx, key, delta).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, admirerCountTTL).Err()
}

// InvalidateAdmirerCount drops the counter for userID.
func (c *RedisCache) InvalidateAdmirerCount(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForAdmirerCount(userID)).Err()
}
