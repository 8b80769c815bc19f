package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

type kvStore struct {
	client *redis.Client
}

// NewKV returns a cart.KV backed by plain Redis strings
func NewKV(client *redis.Client) cart.KV {
	return &kvStore{client: client}
}

// Get implements cart.KV.
func (s *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return b, nil
}

// Put implements cart.KV.
func (s *kvStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete implements cart.KV.
func (s *kvStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
