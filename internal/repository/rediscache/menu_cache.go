package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/redis/go-redis/v9"
)

type menuCache struct {
	client *redis.Client
}

func NewMenuCache(client *redis.Client) menu.Cache {
	return &menuCache{client: client}
}

// Get implements menu.Cache. A miss returns nil, nil.
func (c *menuCache) Get(ctx context.Context, placeID string) (*menu.Document, error) {
	b, err := c.client.Get(ctx, menuKey(placeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read menu cache: %w", err)
	}

	var doc menu.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		// a corrupt entry is treated as a miss and overwritten by the next Set
		return nil, nil
	}
	return &doc, nil
}

// Set implements menu.Cache.
func (c *menuCache) Set(ctx context.Context, placeID string, doc *menu.Document, ttl time.Duration) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}
	if err := c.client.Set(ctx, menuKey(placeID), b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write menu cache: %w", err)
	}
	return nil
}
