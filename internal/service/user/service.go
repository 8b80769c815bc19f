package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"golang.org/x/sync/errgroup"
)

type UserServiceImpl struct {
	userRepo    user.UserRepository
	companyRepo company.CompanyRepository
}

func NewUserService(userRepo user.UserRepository, companyRepo company.CompanyRepository) user.UserService {
	return &UserServiceImpl{userRepo: userRepo, companyRepo: companyRepo}
}

// SyncFromIdentity implements user.UserService.
func (s *UserServiceImpl) SyncFromIdentity(ctx context.Context, profile user.IdentityProfile) (user.User, error) {
	u, err := s.userRepo.Upsert(ctx, profile)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to sync user %s: %w", profile.ExternalID, err)
	}
	slog.Info("user synced from identity provider", "user_id", u.ID, "external_id", u.ExternalID, "role", u.Role)
	return u, nil
}

// DeleteFromIdentity implements user.UserService. Deleting an unknown user is not an error.
func (s *UserServiceImpl) DeleteFromIdentity(ctx context.Context, externalID string) error {
	err := s.userRepo.DeleteByExternalID(ctx, externalID)
	if errors.Is(err, user.ErrUserNotFound) {
		slog.Warn("identity delete for unknown user", "external_id", externalID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", externalID, err)
	}
	slog.Info("user deleted from identity provider", "external_id", externalID)
	return nil
}

// Authenticate implements user.UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, claims user.IdentityProfile) (user.User, error) {
	if claims.ExternalID == "" {
		return user.User{}, user.ErrUnauthenticated
	}

	u, err := s.userRepo.GetByExternalID(ctx, claims.ExternalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	// the created webhook may not have arrived yet
	u, err = s.userRepo.Upsert(ctx, claims)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to provision user: %w", err)
	}
	slog.Info("user provisioned from token", "user_id", u.ID, "external_id", u.ExternalID)
	return u, nil
}

// Me implements user.UserService.
func (s *UserServiceImpl) Me(ctx context.Context, u user.User) (user.MeResponse, error) {
	var (
		fresh   user.User
		comp    company.Company
		missing bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fresh, err = s.userRepo.GetByID(gctx, u.ID)
		return err
	})
	if u.HasCompany() {
		g.Go(func() error {
			var err error
			comp, err = s.companyRepo.GetByID(gctx, *u.CompanyID)
			if errors.Is(err, company.ErrCompanyNotFound) {
				missing = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return user.MeResponse{}, fmt.Errorf("failed to load profile: %w", err)
	}

	resp := user.MeResponse{User: user.ToResponse(fresh), Orphaned: missing}
	if u.HasCompany() && !missing {
		resp.CompanyName = &comp.Name
	}
	return resp, nil
}

// LeaveCompany implements user.UserService.
func (s *UserServiceImpl) LeaveCompany(ctx context.Context, u user.User) (user.UserResponse, error) {
	if !u.HasCompany() {
		return user.UserResponse{}, user.ErrCompanyIDRequired
	}

	role := user.RoleEmployee
	if u.IsAdmin() {
		role = user.RoleAdmin
	}
	if err := s.userRepo.UpdateCompanyAndRole(ctx, u.ID, nil, role); err != nil {
		return user.UserResponse{}, fmt.Errorf("failed to leave company: %w", err)
	}

	updated, err := s.userRepo.GetByID(ctx, u.ID)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("failed to reload user: %w", err)
	}
	slog.Info("user left company", "user_id", u.ID, "company_id", *u.CompanyID)
	return user.ToResponse(updated), nil
}

// UpdateRole implements user.UserService.
func (s *UserServiceImpl) UpdateRole(ctx context.Context, admin user.User, req user.UpdateRoleRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}
	if !admin.IsAdmin() {
		return user.UserResponse{}, user.ErrAdminPrivilegeRequired
	}
	if admin.ID == req.UserID {
		return user.UserResponse{}, user.ErrCannotChangeOwnRole
	}

	role, _ := user.ParseRole(req.Role)
	if err := s.userRepo.UpdateRole(ctx, req.UserID, role); err != nil {
		return user.UserResponse{}, err
	}

	updated, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return user.UserResponse{}, err
	}
	slog.Info("user role updated", "user_id", updated.ID, "role", role, "by", admin.ID)
	return user.ToResponse(updated), nil
}

// ListCompanyMembers implements user.UserService.
func (s *UserServiceImpl) ListCompanyMembers(ctx context.Context, u user.User) ([]user.UserResponse, error) {
	if !u.HasCompany() {
		return nil, user.ErrCompanyIDRequired
	}

	members, err := s.userRepo.ListByCompanyID(ctx, *u.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	resp := make([]user.UserResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, user.ToResponse(m))
	}
	return resp, nil
}
