// internal/adapters/out/kv/memory_cart_storage.go
package kv

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	cartdom "optivista/internal/domain/cart"
)

// MemoryCartStorage keeps carts in process memory with the same TTL semantics
// as the Redis storage. Used for local runs and tests.
type MemoryCartStorage struct {
	c *cache.Cache
}

// NewMemoryCartStorage builds an in-memory storage. A cleanupInterval of 0
// disables the background janitor; expired entries are then dropped on read.
func NewMemoryCartStorage(ttl, cleanupInterval time.Duration) *MemoryCartStorage {
	if ttl <= 0 {
		ttl = cartdom.DefaultCartTTL
	}
	return &MemoryCartStorage{c: cache.New(ttl, cleanupInterval)}
}

func (s *MemoryCartStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", false, nil
	}
	str, ok := v.(string)
	return str, ok, nil
}

func (s *MemoryCartStorage) Set(_ context.Context, key, value string) error {
	s.c.Set(key, value, cache.DefaultExpiration)
	return nil
}
