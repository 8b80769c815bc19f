package invitation

import (
	"context"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

// InvitationService defines the interface for invitation business logic
type InvitationService interface {
	Create(ctx context.Context, issuer user.User, req CreateRequest) (InvitationResponse, error)

	// Preview returns public details for a code without redeeming it
	Preview(ctx context.Context, code string) (PreviewResponse, error)

	ListByCompany(ctx context.Context, requester user.User) ([]InvitationResponse, error)

	Redeem(ctx context.Context, code string, redeemer user.User) (RedeemResponse, error)

	Delete(ctx context.Context, id string, requester user.User) error
}
