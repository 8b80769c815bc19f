package delivery

import (
	"context"
	"time"
)

// Provider is the external delivery dispatcher
type Provider interface {
	Quote(ctx context.Context, req QuoteRequest) (Quote, error)
	Create(ctx context.Context, req CreateRequest) (Delivery, error)
	Get(ctx context.Context, externalDeliveryID string) (Delivery, error)
	Cancel(ctx context.Context, externalDeliveryID string) (Delivery, error)
}

// StatusCache keeps the last known delivery status per order
type StatusCache interface {
	Get(ctx context.Context, orderID string) (CachedStatus, bool, error)
	Set(ctx context.Context, orderID string, status CachedStatus) error
}

// IntentRepository is the delivery-intent outbox
type IntentRepository interface {
	// Enqueue is a no-op returning false when the order already has an intent
	Enqueue(ctx context.Context, orderID string) (bool, error)
	ListUnpublished(ctx context.Context, limit int) ([]Intent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// IntentPublisher hands intents to the dispatcher queue
type IntentPublisher interface {
	Publish(ctx context.Context, msg IntentMessage) error
}

// WebhookVerifier authenticates a raw callback body
type WebhookVerifier interface {
	Verify(payload []byte, signature string) error
}
