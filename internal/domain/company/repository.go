package company

import "context"

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (Company, error)
	Create(ctx context.Context, newCompany Company) (Company, error)
	// EnsureExists creates the company with the given id and name if it is absent
	EnsureExists(ctx context.Context, id, name string, createdBy *string) (Company, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateName(ctx context.Context, id, name string) error
}
