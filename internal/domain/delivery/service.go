package delivery

import (
	"context"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

type DeliveryService interface {
	Quote(ctx context.Context, u user.User, req QuoteInput) (QuoteResponse, error)

	// CreateForOrder dispatches a delivery on behalf of a user with access to the order
	CreateForOrder(ctx context.Context, u user.User, orderID string) (DeliveryResponse, error)
	// CreateDelivery is the system path used by the dispatcher; it is idempotent per order
	CreateDelivery(ctx context.Context, orderID string) (DeliveryResponse, error)

	GetStatus(ctx context.Context, u user.User, orderID string) (DeliveryResponse, error)
	Cancel(ctx context.Context, u user.User, orderID string) (CancelResponse, error)

	// HandleWebhook verifies then applies a provider callback
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// OutboxRelay moves pending intents to the queue
type OutboxRelay interface {
	RelayPending(ctx context.Context) (published int, err error)
}
