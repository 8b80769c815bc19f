package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
)

var _ invitation.InvitationService = (*InvitationServiceImpl)(nil)

type InvitationServiceImpl struct {
	tx             database.TxRunner
	invitationRepo invitation.InvitationRepository
	companyRepo    company.CompanyRepository
	userRepo       user.UserRepository
	codes          invitation.CodeGenerator
	now            func() time.Time
}

func NewInvitationService(
	tx database.TxRunner,
	invitationRepo invitation.InvitationRepository,
	companyRepo company.CompanyRepository,
	userRepo user.UserRepository,
	codes invitation.CodeGenerator,
) *InvitationServiceImpl {
	return &InvitationServiceImpl{
		tx:             tx,
		invitationRepo: invitationRepo,
		companyRepo:    companyRepo,
		userRepo:       userRepo,
		codes:          codes,
		now:            time.Now,
	}
}

// SetClock overrides the time source
func (s *InvitationServiceImpl) SetClock(now func() time.Time) {
	s.now = now
}

// Create implements invitation.InvitationService.
func (s *InvitationServiceImpl) Create(ctx context.Context, issuer user.User, req invitation.CreateRequest) (invitation.InvitationResponse, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return invitation.InvitationResponse{}, err
	}

	if !issuer.IsManager() && !issuer.IsAdmin() {
		return invitation.InvitationResponse{}, invitation.ErrIssueForbidden
	}
	if issuer.IsManager() && !issuer.BelongsTo(req.CompanyID) {
		return invitation.InvitationResponse{}, invitation.ErrCompanyMismatch
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return invitation.InvitationResponse{}, err
	}

	role, _ := user.ParseRole(req.Role)
	now := s.now()
	inv, err := s.invitationRepo.Create(ctx, invitation.Invitation{
		CompanyID:   req.CompanyID,
		CompanyName: req.CompanyName,
		Code:        code,
		Role:        role,
		CreatedBy:   issuer.ID,
		ExpiresAt:   now.AddDate(0, 0, req.ExpiresInDays),
		MaxUses:     req.MaxUses,
		UsedBy:      []string{},
		IsActive:    true,
	})
	if err != nil {
		return invitation.InvitationResponse{}, fmt.Errorf("failed to create invitation: %w", err)
	}

	slog.Info("invitation created", "invitation_id", inv.ID, "company_id", inv.CompanyID, "role", inv.Role, "max_uses", inv.MaxUses)
	return invitation.ToResponse(inv, now), nil
}

// generateCode asks the generator for candidates until one is unused, at most MaxCodeAttempts times
func (s *InvitationServiceImpl) generateCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= invitation.MaxCodeAttempts; attempt++ {
		code, err := s.codes.Next(ctx)
		if err != nil {
			return "", err
		}
		exists, err := s.invitationRepo.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check invitation code: %w", err)
		}
		if !exists {
			return code, nil
		}
		slog.Warn("invitation code collision", "attempt", attempt)
	}
	return "", invitation.ErrCodeGenerationExhausted
}

// Preview implements invitation.InvitationService.
func (s *InvitationServiceImpl) Preview(ctx context.Context, code string) (invitation.PreviewResponse, error) {
	inv, err := s.invitationRepo.GetByCode(ctx, validator.NormalizeCode(code))
	if err != nil {
		return invitation.PreviewResponse{}, err
	}
	now := s.now()
	return invitation.PreviewResponse{
		CompanyName: inv.CompanyName,
		Role:        string(inv.Role),
		ExpiresAt:   inv.ExpiresAt.Format(time.RFC3339),
		IsUsable:    inv.IsUsable(now),
	}, nil
}

// ListByCompany implements invitation.InvitationService.
func (s *InvitationServiceImpl) ListByCompany(ctx context.Context, requester user.User) ([]invitation.InvitationResponse, error) {
	if !requester.HasCompany() {
		return nil, user.ErrCompanyIDRequired
	}
	if !requester.IsManager() && !requester.IsAdmin() {
		return nil, invitation.ErrIssueForbidden
	}

	invs, err := s.invitationRepo.ListByCompanyID(ctx, *requester.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	now := s.now()
	resp := make([]invitation.InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		resp = append(resp, invitation.ToResponse(inv, now))
	}
	return resp, nil
}

// Redeem implements invitation.InvitationService.
// The invitation update commits on its own; company provisioning and the membership change
// run afterwards and report their failures as distinct errors.
func (s *InvitationServiceImpl) Redeem(ctx context.Context, code string, redeemer user.User) (invitation.RedeemResponse, error) {
	code = validator.NormalizeCode(code)
	now := s.now()

	var inv invitation.Invitation
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invitationRepo.GetByCodeForUpdate(txCtx, code)
		if err != nil {
			if errors.Is(err, invitation.ErrInvitationNotFound) {
				return invitation.ErrInvalidCode
			}
			return err
		}
		if err := checkRedeemable(inv, redeemer.ID, now); err != nil {
			return err
		}

		inv.Redeem(redeemer.ID)
		if err := s.invitationRepo.SaveRedemption(txCtx, inv); err != nil {
			return fmt.Errorf("failed to save redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		return invitation.RedeemResponse{}, err
	}

	if _, err := s.companyRepo.EnsureExists(ctx, inv.CompanyID, inv.CompanyName, &inv.CreatedBy); err != nil {
		slog.Error("company provisioning failed after redemption", "invitation_id", inv.ID, "company_id", inv.CompanyID, "error", err)
		return invitation.RedeemResponse{}, fmt.Errorf("%w: %v", invitation.ErrCompanyProvisionFailed, err)
	}

	// admins never lose their platform role by joining a company
	role := inv.Role
	if redeemer.IsAdmin() {
		role = user.RoleAdmin
	}
	if err := s.userRepo.UpdateCompanyAndRole(ctx, redeemer.ID, &inv.CompanyID, role); err != nil {
		slog.Error("membership update failed after redemption", "invitation_id", inv.ID, "user_id", redeemer.ID, "error", err)
		return invitation.RedeemResponse{}, fmt.Errorf("%w: %v", invitation.ErrMembershipUpdateFailed, err)
	}

	slog.Info("invitation redeemed", "invitation_id", inv.ID, "user_id", redeemer.ID, "used_count", inv.UsedCount, "max_uses", inv.MaxUses)
	return invitation.RedeemResponse{
		CompanyID:   inv.CompanyID,
		CompanyName: inv.CompanyName,
		Role:        string(role),
	}, nil
}

// checkRedeemable applies the redemption guards in order. A repeat by the same user reports
// ErrAlreadyRedeemed even when the code is exhausted.
func checkRedeemable(inv invitation.Invitation, userID string, now time.Time) error {
	if inv.IsExpired(now) {
		return invitation.ErrInvitationExpired
	}
	if inv.HasRedeemed(userID) {
		return invitation.ErrAlreadyRedeemed
	}
	if inv.IsExhausted() {
		return invitation.ErrMaxUsesReached
	}
	if !inv.IsActive {
		return invitation.ErrInvalidCode
	}
	return nil
}

// Delete implements invitation.InvitationService.
func (s *InvitationServiceImpl) Delete(ctx context.Context, id string, requester user.User) error {
	inv, err := s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.CreatedBy != requester.ID {
		return invitation.ErrNotInvitationOwner
	}
	if err := s.invitationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	slog.Info("invitation deleted", "invitation_id", id, "by", requester.ID)
	return nil
}
