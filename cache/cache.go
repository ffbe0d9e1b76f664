package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledger/config"

	"github.com/redis/go-redis/v9"
)

// CategoriesKey holds the serialized category list.
const CategoriesKey = "ledger:categories"

// Cache is a JSON value cache over Redis. A nil *Cache is a valid, always-missing cache.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis. It returns nil, nil when no address is configured.
func New(ctx context.Context, cfg *config.RedisConfig) (*Cache, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(rdb, time.Duration(cfg.CategoryTTLSeconds)*time.Second), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get unmarshals the value at key into dest. A miss returns false with no error.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, dest)
}

// Set stores value at key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
