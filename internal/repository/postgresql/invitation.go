package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `
	id, company_id, company_name, code, role, created_by, expires_at,
	max_uses, used_count, used_by, is_active, created_at, updated_at`

type invitationRepositoryImpl struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository instance
func NewInvitationRepository(db *database.DB) invitation.InvitationRepository {
	return &invitationRepositoryImpl{db: db}
}

func scanInvitation(row pgx.Row) (invitation.Invitation, error) {
	var inv invitation.Invitation
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.CompanyName, &inv.Code, &inv.Role, &inv.CreatedBy, &inv.ExpiresAt,
		&inv.MaxUses, &inv.UsedCount, &inv.UsedBy, &inv.IsActive, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if inv.UsedBy == nil {
		inv.UsedBy = []string{}
	}
	return inv, err
}

func (r *invitationRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (invitation.Invitation, error) {
	q := GetQuerier(ctx, r.db)

	inv, err := scanInvitation(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invitation.Invitation{}, invitation.ErrInvitationNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// Create implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) Create(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO invitations (company_id, company_name, code, role, created_by, expires_at, max_uses)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + invitationColumns

	created, err := scanInvitation(q.QueryRow(ctx, query,
		inv.CompanyID, inv.CompanyName, inv.Code, string(inv.Role), inv.CreatedBy, inv.ExpiresAt, inv.MaxUses,
	))
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("failed to create invitation: %w", err)
	}
	return created, nil
}

// GetByID implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) GetByID(ctx context.Context, id string) (invitation.Invitation, error) {
	return r.getOne(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
}

// GetByCodeForUpdate implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) GetByCodeForUpdate(ctx context.Context, code string) (invitation.Invitation, error) {
	return r.getOne(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE code = $1 FOR UPDATE`, code)
}

// GetByCode implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) GetByCode(ctx context.Context, code string) (invitation.Invitation, error) {
	return r.getOne(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE code = $1`, code)
}

// ExistsByCode implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) ExistsByCode(ctx context.Context, code string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invitations WHERE code = $1)`, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check invitation code: %w", err)
	}
	return exists, nil
}

// ListByCompanyID implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) ListByCompanyID(ctx context.Context, companyID string) ([]invitation.Invitation, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]invitation.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// SaveRedemption implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) SaveRedemption(ctx context.Context, inv invitation.Invitation) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE invitations
		SET used_by = $1, used_count = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
	`, inv.UsedBy, inv.UsedCount, inv.IsActive, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to save redemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invitation.ErrInvitationNotFound
	}
	return nil
}

// Delete implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invitation.ErrInvitationNotFound
	}
	return nil
}

// NextCodeSequence implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) NextCodeSequence(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var n int64
	if err := q.QueryRow(ctx, `SELECT nextval('invitation_code_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to advance invitation code sequence: %w", err)
	}
	return n, nil
}
