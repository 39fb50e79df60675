package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultResultTTL is used when a ResultCache is built with a non-positive TTL.
const DefaultResultTTL = 300 * time.Second

const (
	resultPrefix = "result:"
	scanCount    = 200
)

// Stats describes the current cache population.
type Stats struct {
	Backend       string `json:"backend"`
	MemoryEntries int    `json:"memory_entries"`
	RedisKeys     *int   `json:"redis_keys,omitempty"`
	TTLSeconds    int    `json:"ttl_seconds"`
}

// ResultCache is a read-through cache for computed API responses.
// The in-process tier is always present; Redis is optional. Reads consult
// Redis first, writes go to both tiers, and Redis failures are only logged.
type ResultCache struct {
	memory *MemoryCache
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// NewResultCache は ResultCache を生成します。
// rdb が nil の場合はメモリのみで動作します。ttl が 0 以下なら 300 秒です。
func NewResultCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		memory: NewMemoryCache(),
		rdb:    rdb,
		ttl:    ttl,
		prefix: resultPrefix,
		logger: logger.With().Str("component", "result_cache").Logger(),
	}
}

// TTL returns the default entry lifetime.
func (c *ResultCache) TTL() time.Duration { return c.ttl }

func (c *ResultCache) redisKey(key string) string { return c.prefix + key }

// Get returns the cached value for key. Values read back from Redis are
// decoded generically (maps, slices, scalars); use GetOrCompute for typed reads.
func (c *ResultCache) Get(ctx context.Context, key string) (any, bool) {
	if c.rdb != nil {
		var v any
		if c.readRedis(ctx, key, &v) {
			return v, true
		}
	}
	return c.memory.Get(key)
}

// Set stores value in every tier. A non-positive ttl uses the cache default.
func (c *ResultCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.memory.Set(key, value, ttl)

	if c.rdb == nil {
		return
	}
	b, err := encode(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("result encode failed")
		return
	}
	if err := c.rdb.Set(ctx, c.redisKey(key), b, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Delete removes key from every tier.
func (c *ResultCache) Delete(ctx context.Context, key string) {
	c.memory.Delete(key)
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.redisKey(key)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

// Clear empties the memory tier and deletes this cache's Redis namespace.
// It returns the number of entries removed across both tiers.
func (c *ResultCache) Clear(ctx context.Context) int {
	n := c.memory.Clear()
	if c.rdb == nil {
		return n
	}
	deleted, err := c.deleteByPattern(ctx, c.prefix+"*")
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis clear failed")
	}
	return n + deleted
}

// Size returns the number of in-process entries.
func (c *ResultCache) Size() int { return c.memory.Len() }

// CleanupExpired sweeps the memory tier. Redis expires keys on its own.
func (c *ResultCache) CleanupExpired() int { return c.memory.CleanupExpired() }

// Stats reports the population of each tier.
func (c *ResultCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Backend:       "memory",
		MemoryEntries: c.memory.Len(),
		TTLSeconds:    int(c.ttl / time.Second),
	}
	if c.rdb == nil {
		return s
	}
	s.Backend = "redis+memory"
	n, err := c.countByPattern(ctx, c.prefix+"*")
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis key count failed")
		return s
	}
	s.RedisKeys = &n
	return s
}

// StartSweeper runs CleanupExpired every interval until ctx is done.
func (c *ResultCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.CleanupExpired(); n > 0 {
					c.logger.Debug().Int("removed", n).Msg("expired results swept")
				}
			}
		}
	}()
}

// GetOrCompute returns the cached T for key, or calls fn and caches its result.
// Errors from fn are returned and never cached. A nil cache always computes.
func GetOrCompute[T any](ctx context.Context, c *ResultCache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}

	if c.rdb != nil {
		var v T
		if c.readRedis(ctx, key, &v) {
			return v, nil
		}
	}
	if raw, ok := c.memory.Get(key); ok {
		if v, ok := raw.(T); ok {
			return v, nil
		}
	}

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(ctx, key, v, ttl)
	return v, nil
}

// readRedis decodes key into dst. Corrupted entries are deleted.
func (c *ResultCache) readRedis(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return false
	}
	if len(b) == 0 {
		return false
	}
	if err := decode(b, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupted cache entry dropped")
		_ = c.rdb.Del(ctx, c.redisKey(key)).Err()
		return false
	}
	return true
}

// deleteByPattern deletes all keys matching pattern using SCAN.
func (c *ResultCache) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return deleted, fmt.Errorf("scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("del: %w", err)
			}
			deleted += int(n)
		}
		cursor = cur
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *ResultCache) countByPattern(ctx context.Context, pattern string) (int, error) {
	count := 0
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return count, fmt.Errorf("scan %q: %w", pattern, err)
		}
		count += len(keys)
		cursor = cur
		if cursor == 0 {
			return count, nil
		}
	}
}

// encode/decode use the json struct tags so Redis payloads share field names
// with the HTTP responses.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(b []byte, dst any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(dst)
}
