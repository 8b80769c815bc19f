package user

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	// Upsert inserts or refreshes a user keyed by external id. Role is only written when non-nil.
	Upsert(ctx context.Context, profile IdentityProfile) (User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
	ListByCompanyID(ctx context.Context, companyID string) ([]User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
	// UpdateCompanyAndRole sets the company reference; a nil companyID clears it
	UpdateCompanyAndRole(ctx context.Context, id string, companyID *string, role Role) error
}
