package order

import "context"

type OrderRepository interface {
	Create(ctx context.Context, o Order) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (Order, error)
	GetByExternalDeliveryID(ctx context.Context, externalDeliveryID string) (Order, error)
	ListByUserID(ctx context.Context, userID string) ([]Order, error)
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error
	UpdateDelivery(ctx context.Context, id string, update DeliveryUpdate) (Order, error)
	DeleteAll(ctx context.Context) (int64, error)
}
