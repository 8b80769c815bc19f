package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/redis/go-redis/v9"
)

type deliveryStatusCache struct {
	client *redis.Client
}

func NewDeliveryStatusCache(client *redis.Client) delivery.StatusCache {
	return &deliveryStatusCache{client: client}
}

// Get implements delivery.StatusCache.
func (c *deliveryStatusCache) Get(ctx context.Context, orderID string) (delivery.CachedStatus, bool, error) {
	b, err := c.client.Get(ctx, deliveryKey(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return delivery.CachedStatus{}, false, nil
		}
		return delivery.CachedStatus{}, false, fmt.Errorf("failed to read delivery status: %w", err)
	}

	var st delivery.CachedStatus
	if err := json.Unmarshal(b, &st); err != nil {
		return delivery.CachedStatus{}, false, nil
	}
	return st, true, nil
}

// Set implements delivery.StatusCache.
func (c *deliveryStatusCache) Set(ctx context.Context, orderID string, status delivery.CachedStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode delivery status: %w", err)
	}
	if err := c.client.Set(ctx, deliveryKey(orderID), b, DeliveryStatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to write delivery status: %w", err)
	}
	return nil
}
