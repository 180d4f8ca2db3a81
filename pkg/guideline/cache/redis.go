package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ustudiopd/eventlive/pkg/guideline/compiler"
)

// RedisCache shares compiled guidelines between engine instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. Entries expire after ttl; zero
// means no expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisCache(client, ttl), nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*compiler.Compiled, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var compiled compiler.Compiled
	if err := json.Unmarshal(data, &compiled); err != nil {
		return nil, false, fmt.Errorf("decode cached guideline %s: %w", key, err)
	}
	return &compiled, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, compiled *compiler.Compiled) error {
	data, err := json.Marshal(compiled)
	if err != nil {
		return fmt.Errorf("encode guideline %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close implements Cache.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
