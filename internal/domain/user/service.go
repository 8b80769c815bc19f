package user

import "context"

type UserService interface {
	// SyncFromIdentity mirrors an identity-provider created/updated event
	SyncFromIdentity(ctx context.Context, profile IdentityProfile) (User, error)
	// DeleteFromIdentity removes a user deleted at the identity provider
	DeleteFromIdentity(ctx context.Context, externalID string) error
	// Authenticate resolves a verified token to a local user, provisioning it on first sight
	Authenticate(ctx context.Context, claims IdentityProfile) (User, error)
	Me(ctx context.Context, u User) (MeResponse, error)
	LeaveCompany(ctx context.Context, u User) (UserResponse, error)
	UpdateRole(ctx context.Context, admin User, req UpdateRoleRequest) (UserResponse, error)
	ListCompanyMembers(ctx context.Context, u User) ([]UserResponse, error)
}
