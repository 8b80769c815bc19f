package company

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
)

type CompanyServiceImpl struct {
	tx database.TxRunner
	company.CompanyRepository
	user.UserRepository
}

func NewCompanyService(tx database.TxRunner, companyRepo company.CompanyRepository, userRepo user.UserRepository) company.CompanyService {
	return &CompanyServiceImpl{
		tx:                tx,
		CompanyRepository: companyRepo,
		UserRepository:    userRepo,
	}
}

// Create implements company.CompanyService.
// Subtle: this method shadows the method (CompanyRepository).Create of CompanyServiceImpl.CompanyRepository.
func (c *CompanyServiceImpl) Create(ctx context.Context, creator user.User, req company.CreateCompanyRequest) (company.CompanyResponse, error) {
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}
	if creator.HasCompany() {
		return company.CompanyResponse{}, company.ErrUserAlreadyHasCompany
	}

	// the creator runs the company; admins keep their platform role
	role := user.RoleManager
	if creator.IsAdmin() {
		role = user.RoleAdmin
	}

	var newCompany company.Company
	err := c.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		newCompany, err = c.CompanyRepository.Create(txCtx, company.Company{
			Name:      strings.TrimSpace(req.Name),
			CreatedBy: &creator.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		if err := c.UserRepository.UpdateCompanyAndRole(txCtx, creator.ID, &newCompany.ID, role); err != nil {
			return fmt.Errorf("failed to assign company to creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return company.CompanyResponse{}, err
	}

	slog.Info("company created", "company_id", newCompany.ID, "created_by", creator.ID)
	return company.ToResponse(newCompany, 1), nil
}

// GetMine implements company.CompanyService.
func (c *CompanyServiceImpl) GetMine(ctx context.Context, u user.User) (company.CompanyResponse, error) {
	if !u.HasCompany() {
		return company.CompanyResponse{}, user.ErrCompanyIDRequired
	}

	comp, err := c.CompanyRepository.GetByID(ctx, *u.CompanyID)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	members, err := c.UserRepository.ListByCompanyID(ctx, comp.ID)
	if err != nil {
		return company.CompanyResponse{}, fmt.Errorf("failed to count members: %w", err)
	}
	return company.ToResponse(comp, len(members)), nil
}

// Update implements company.CompanyService.
func (c *CompanyServiceImpl) Update(ctx context.Context, u user.User, req company.UpdateCompanyRequest) (company.CompanyResponse, error) {
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}
	if !u.HasCompany() {
		return company.CompanyResponse{}, user.ErrCompanyIDRequired
	}
	if !u.CanManageSessions() {
		return company.CompanyResponse{}, company.ErrCompanyManageDenied
	}

	if err := c.CompanyRepository.UpdateName(ctx, *u.CompanyID, strings.TrimSpace(*req.Name)); err != nil {
		return company.CompanyResponse{}, err
	}
	return c.GetMine(ctx, u)
}
