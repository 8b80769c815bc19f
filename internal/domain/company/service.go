package company

import (
	"context"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

type CompanyService interface {
	Create(ctx context.Context, creator user.User, req CreateCompanyRequest) (CompanyResponse, error)
	GetMine(ctx context.Context, u user.User) (CompanyResponse, error)
	Update(ctx context.Context, u user.User, req UpdateCompanyRequest) (CompanyResponse, error)
}
