package order

import (
	"context"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

type OrderService interface {
	Checkout(ctx context.Context, u user.User, req CheckoutRequest) (CheckoutResponse, error)
	ListMine(ctx context.Context, u user.User) ([]OrderResponse, error)
	// GetByID allows the owner, or a manager/admin of the same company
	GetByID(ctx context.Context, u user.User, id string) (OrderResponse, error)
	ClearAll(ctx context.Context, admin user.User) (ClearResponse, error)
}
