package company

import (
	"context"
	"errors"
	"testing"

	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyService_Create(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewCompanyService(store, store.Companies(), store.Users())
	ctx := context.Background()

	creator := store.SeedUser(user.User{Email: "founder@acme.test"})
	resp, err := svc.Create(ctx, creator, company.CreateCompanyRequest{Name: " Acme "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.Name)
	assert.Equal(t, 1, resp.MemberCount)

	updated, err := store.Users().GetByID(ctx, creator.ID)
	require.NoError(t, err)
	assert.True(t, updated.BelongsTo(resp.ID))
	assert.Equal(t, user.RoleManager, updated.Role)

	_, err = svc.Create(ctx, updated, company.CreateCompanyRequest{Name: "Second"})
	assert.ErrorIs(t, err, company.ErrUserAlreadyHasCompany)
}

func TestCompanyService_CreateRollsBack(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewCompanyService(store, store.Companies(), store.Users())
	ctx := context.Background()

	creator := store.SeedUser(user.User{})
	store.Fail["users.UpdateCompanyAndRole"] = errors.New("boom")

	_, err := svc.Create(ctx, creator, company.CreateCompanyRequest{Name: "Acme"})
	require.Error(t, err)

	fresh, err := store.Users().GetByID(ctx, creator.ID)
	require.NoError(t, err)
	assert.False(t, fresh.HasCompany())
}

func TestCompanyService_Update(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewCompanyService(store, store.Companies(), store.Users())
	ctx := context.Background()

	c := store.SeedCompany("Acme")
	employee := store.SeedUser(user.User{CompanyID: &c.ID})
	manager := store.SeedUser(user.User{Role: user.RoleManager, CompanyID: &c.ID})
	name := "Acme Corp"

	_, err := svc.Update(ctx, employee, company.UpdateCompanyRequest{Name: &name})
	assert.ErrorIs(t, err, company.ErrCompanyManageDenied)

	resp, err := svc.Update(ctx, manager, company.UpdateCompanyRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", resp.Name)
	assert.Equal(t, 2, resp.MemberCount)
}
