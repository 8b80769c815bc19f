package invitation

import (
	"context"
)

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create creates a new invitation record
	Create(ctx context.Context, inv Invitation) (Invitation, error)

	GetByID(ctx context.Context, id string) (Invitation, error)

	// GetByCodeForUpdate locks the row for the surrounding transaction
	GetByCodeForUpdate(ctx context.Context, code string) (Invitation, error)

	GetByCode(ctx context.Context, code string) (Invitation, error)

	ExistsByCode(ctx context.Context, code string) (bool, error)

	ListByCompanyID(ctx context.Context, companyID string) ([]Invitation, error)

	// SaveRedemption persists used_by, used_count and is_active
	SaveRedemption(ctx context.Context, inv Invitation) error

	Delete(ctx context.Context, id string) error

	// NextCodeSequence returns the next value of the invitation code sequence
	NextCodeSequence(ctx context.Context) (int64, error)
}

// CodeGenerator produces candidate invitation codes
type CodeGenerator interface {
	Next(ctx context.Context) (string, error)
}
