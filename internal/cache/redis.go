// Package cache keeps recent listing search rows in Redis. A nil *Cache is
// a valid disabled cache: every lookup misses and every write is dropped.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CyberPidgi/rentiful/internal/config"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns nil when the cache is disabled
func NewRedisCache(cfg config.RedisConfig) *Cache {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.GetTTL()
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttl,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Get decodes the cached value into dest and reports whether it was found
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Flush drops every key under prefix. Called after writes that change
// search results.
func (c *Cache) Flush(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// QueryKey derives a cache key from a canonical (sorted) query string
func QueryKey(prefix, canonicalQuery string) string {
	hash := md5.Sum([]byte(canonicalQuery))
	return prefix + ":" + hex.EncodeToString(hash[:])
}
