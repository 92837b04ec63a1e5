package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "audio"

// RedisAudioCache shares lessons between server instances. Entries expire
// after ttl; it is still a cache, not durable storage.
type RedisAudioCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisAudioCache(client *redis.Client, prefix string, ttl time.Duration) *RedisAudioCache {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisAudioCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisAudioCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

func (c *RedisAudioCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisAudioCache) Set(ctx context.Context, key, audioBase64 string) error {
	if err := c.client.Set(ctx, c.key(key), audioBase64, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
