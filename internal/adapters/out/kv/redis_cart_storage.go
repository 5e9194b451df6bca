// internal/adapters/out/kv/redis_cart_storage.go
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	cartdom "optivista/internal/domain/cart"
)

// RedisCartStorage keeps serialized carts in Redis. Every write refreshes the TTL,
// so an abandoned cart expires on its own.
type RedisCartStorage struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCartStorage(client *redis.Client, ttl time.Duration) *RedisCartStorage {
	if ttl <= 0 {
		ttl = cartdom.DefaultCartTTL
	}
	return &RedisCartStorage{Client: client, TTL: ttl}
}

// Get returns ("", false, nil) when nothing is stored under key.
func (s *RedisCartStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.Client == nil {
		return "", false, errors.New("redis_cart_storage: redis client is nil")
	}
	v, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis_cart_storage: get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisCartStorage) Set(ctx context.Context, key, value string) error {
	if s == nil || s.Client == nil {
		return errors.New("redis_cart_storage: redis client is nil")
	}
	if err := s.Client.Set(ctx, key, value, s.TTL).Err(); err != nil {
		return fmt.Errorf("redis_cart_storage: set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection at boot.
func (s *RedisCartStorage) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
