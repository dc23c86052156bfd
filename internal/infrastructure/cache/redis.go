package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var _ domain.CacheRepository = (*RedisCache)(nil)

const keyPrefix = "glamfinder:"

// RedisCache stores JSON-encoded values in Redis
type RedisCache struct {
	client *redis.Client
	logger logrus.FieldLogger
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client, logger logrus.FieldLogger) *RedisCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisCache{client: client, logger: logger}
}

// NewRedisCacheFromURL parses a redis:// URL and verifies the connection
func NewRedisCacheFromURL(ctx context.Context, rawURL string, logger logrus.FieldLogger) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	return NewRedisCache(client, logger), nil
}

func (c *RedisCache) key(k string) string {
	return keyPrefix + k
}

// Get retrieves a value; structs come back as map[string]interface{}
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("[CACHE] redis get failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode cached value: %w", err)
	}
	return value, nil
}

// Set stores a value with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("[CACHE] redis set failed")
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a value
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Exists checks whether the key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return n > 0, nil
}

// Ping reports "up" or "down: <reason>"
func (c *RedisCache) Ping(ctx context.Context) string {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
