package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, external_id, email, display_name, role, company_id, created_at, updated_at`

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.DisplayName,
		&u.Role,
		&u.CompanyID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// GetByExternalID implements user.UserRepository.
func (r *userRepositoryImpl) GetByExternalID(ctx context.Context, externalID string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by external id: %w", err)
	}
	return u, nil
}

// Upsert implements user.UserRepository.
func (r *userRepositoryImpl) Upsert(ctx context.Context, profile user.IdentityProfile) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	var role *string
	if profile.Role != nil {
		s := string(*profile.Role)
		role = &s
	}

	query := `
		INSERT INTO users (external_id, email, display_name, role)
		VALUES ($1, $2, $3, COALESCE($4, 'employee'))
		ON CONFLICT (external_id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			role = COALESCE($4, users.role),
			updated_at = NOW()
		RETURNING ` + userColumns

	u, err := scanUser(q.QueryRow(ctx, query, profile.ExternalID, profile.Email, profile.DisplayName, role))
	if err != nil {
		return user.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

// DeleteByExternalID implements user.UserRepository.
func (r *userRepositoryImpl) DeleteByExternalID(ctx context.Context, externalID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ListByCompanyID implements user.UserRepository.
func (r *userRepositoryImpl) ListByCompanyID(ctx context.Context, companyID string) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM users WHERE company_id = $1 ORDER BY display_name, email`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list company users: %w", err)
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateRole implements user.UserRepository.
func (r *userRepositoryImpl) UpdateRole(ctx context.Context, id string, role user.Role) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// UpdateCompanyAndRole implements user.UserRepository.
func (r *userRepositoryImpl) UpdateCompanyAndRole(ctx context.Context, id string, companyID *string, role user.Role) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE users SET company_id = $1, role = $2, updated_at = NOW()
		WHERE id = $3
	`, companyID, string(role), id)
	if err != nil {
		return fmt.Errorf("failed to update user membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
