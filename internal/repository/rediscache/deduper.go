package rediscache

import (
	"context"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/redis/go-redis/v9"
)

type eventDeduper struct {
	client *redis.Client
}

func NewEventDeduper(client *redis.Client) payment.EventDeduper {
	return &eventDeduper{client: client}
}

// FirstSeen implements payment.EventDeduper.
func (d *eventDeduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, eventKey(eventID), 1, EventDedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record event %s: %w", eventID, err)
	}
	return ok, nil
}

// Forget implements payment.EventDeduper.
func (d *eventDeduper) Forget(ctx context.Context, eventID string) error {
	if err := d.client.Del(ctx, eventKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to release event %s: %w", eventID, err)
	}
	return nil
}
