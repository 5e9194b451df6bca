// internal/domain/cart/storage_port.go
package cart

import "context"

// Storage is the key-value slot a cart is persisted to.
type Storage interface {
	// Get returns ok=false when nothing is stored under key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
