package cart

import "context"

type CartService interface {
	Get(ctx context.Context, userID string) (CartResponse, error)
	AddItem(ctx context.Context, userID string, req AddItemRequest) (CartResponse, error)
	UpdateQuantity(ctx context.Context, userID, key string, req UpdateQuantityRequest) (CartResponse, error)
	RemoveItem(ctx context.Context, userID, key string) (CartResponse, error)
	Clear(ctx context.Context, userID string) error
}
