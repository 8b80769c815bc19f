package cart

import (
	"context"
	"time"
)

// KV is the persistence port behind the cart store
type KV interface {
	// Get returns ErrKeyNotFound when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
