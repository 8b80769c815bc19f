package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

// GetByID implements company.CompanyRepository.
func (r *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	var c company.Company
	err := q.QueryRow(ctx, `
		SELECT id, name, created_by, created_at, updated_at
		FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// Create implements company.CompanyRepository.
func (r *companyRepositoryImpl) Create(ctx context.Context, newCompany company.Company) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	var c company.Company
	err := q.QueryRow(ctx, `
		INSERT INTO companies (name, created_by)
		VALUES ($1, $2)
		RETURNING id, name, created_by, created_at, updated_at
	`, newCompany.Name, newCompany.CreatedBy).Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return c, nil
}

// EnsureExists implements company.CompanyRepository.
func (r *companyRepositoryImpl) EnsureExists(ctx context.Context, id, name string, createdBy *string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO companies (id, name, created_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, id, name, createdBy)
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to ensure company: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Exists implements company.CompanyRepository.
func (r *companyRepositoryImpl) Exists(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check company: %w", err)
	}
	return exists, nil
}

// UpdateName implements company.CompanyRepository.
func (r *companyRepositoryImpl) UpdateName(ctx context.Context, id, name string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE companies SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return company.ErrCompanyNotFound
	}
	return nil
}
