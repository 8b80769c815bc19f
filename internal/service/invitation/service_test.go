package invitation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCodes replays codes in order
type fixedCodes struct {
	codes []string
	calls int
}

func (f *fixedCodes) Next(context.Context) (string, error) {
	code := f.codes[f.calls%len(f.codes)]
	f.calls++
	return code, nil
}

type fixture struct {
	store   *servicetest.Store
	svc     *InvitationServiceImpl
	manager user.User
	company string
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := servicetest.NewStore()
	c := store.SeedCompany("Acme")
	manager := store.SeedUser(user.User{Email: "m@acme.test", Role: user.RoleManager, CompanyID: &c.ID})

	svc := NewInvitationService(store, store.Invitations(), store.Companies(), store.Users(), RandomCodeGenerator{})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	return &fixture{store: store, svc: svc, manager: manager, company: c.ID, now: now}
}

func (f *fixture) issue(t *testing.T, maxUses int) invitation.InvitationResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.manager, invitation.CreateRequest{
		CompanyID:   f.company,
		CompanyName: "Acme",
		MaxUses:     maxUses,
	})
	require.NoError(t, err)
	return resp
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	resp := f.issue(t, 0)

	assert.Equal(t, 1, resp.MaxUses)
	assert.Equal(t, "employee", resp.Role)
	assert.True(t, resp.IsActive)
	assert.Equal(t, f.now.AddDate(0, 0, 7).Format(time.RFC3339), resp.ExpiresAt)
	assert.Len(t, resp.Code, 8)
}

func TestCreate_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := invitation.CreateRequest{CompanyID: f.company, CompanyName: "Acme"}

	employee := f.store.SeedUser(user.User{Role: user.RoleEmployee, CompanyID: &f.company})
	_, err := f.svc.Create(ctx, employee, req)
	assert.ErrorIs(t, err, invitation.ErrIssueForbidden)

	other := f.store.SeedCompany("Other")
	foreignManager := f.store.SeedUser(user.User{Role: user.RoleManager, CompanyID: &other.ID})
	_, err = f.svc.Create(ctx, foreignManager, req)
	assert.ErrorIs(t, err, invitation.ErrCompanyMismatch)

	admin := f.store.SeedUser(user.User{Role: user.RoleAdmin})
	_, err = f.svc.Create(ctx, admin, req)
	assert.NoError(t, err)

	req.Role = "admin"
	_, err = f.svc.Create(ctx, admin, req)
	assert.Error(t, err)
}

func TestCreate_CodeGenerationExhausted(t *testing.T) {
	f := newFixture(t)
	f.svc.codes = &fixedCodes{codes: []string{"AAAA1111"}}
	f.issue(t, 1)

	gen := &fixedCodes{codes: []string{"AAAA1111"}}
	f.svc.codes = gen
	_, err := f.svc.Create(context.Background(), f.manager, invitation.CreateRequest{CompanyID: f.company, CompanyName: "Acme"})

	assert.ErrorIs(t, err, invitation.ErrCodeGenerationExhausted)
	assert.Equal(t, invitation.MaxCodeAttempts, gen.calls)
}

func TestCreate_RetriesPastCollision(t *testing.T) {
	f := newFixture(t)
	f.svc.codes = &fixedCodes{codes: []string{"AAAA1111"}}
	f.issue(t, 1)

	f.svc.codes = &fixedCodes{codes: []string{"AAAA1111", "BBBB2222"}}
	resp := f.issue(t, 1)
	assert.Equal(t, "BBBB2222", resp.Code)
}

func TestRedeem_SingleUseScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, 1)

	first := f.store.SeedUser(user.User{Email: "a@x.test"})
	second := f.store.SeedUser(user.User{Email: "b@x.test"})

	resp, err := f.svc.Redeem(ctx, " "+inv.Code+" ", first)
	require.NoError(t, err)
	assert.Equal(t, f.company, resp.CompanyID)
	assert.Equal(t, "Acme", resp.CompanyName)

	joined, err := f.store.Users().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, joined.BelongsTo(f.company))

	_, err = f.svc.Redeem(ctx, inv.Code, second)
	assert.ErrorIs(t, err, invitation.ErrMaxUsesReached)

	_, err = f.svc.Redeem(ctx, inv.Code, first)
	assert.ErrorIs(t, err, invitation.ErrAlreadyRedeemed)

	stored, err := f.store.Invitations().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)
	assert.False(t, stored.IsActive)
	assert.Equal(t, []string{first.ID}, stored.UsedBy)
}

func TestRedeem_MultiUseNeverExceedsMax(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, 3)

	var redeemed int
	for i := 0; i < 5; i++ {
		u := f.store.SeedUser(user.User{})
		_, err := f.svc.Redeem(ctx, inv.Code, u)
		if err == nil {
			redeemed++
			continue
		}
		assert.ErrorIs(t, err, invitation.ErrMaxUsesReached)
	}
	assert.Equal(t, 3, redeemed)

	stored, err := f.store.Invitations().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.UsedCount)
	assert.False(t, stored.IsActive)

	seen := map[string]bool{}
	for _, id := range stored.UsedBy {
		assert.False(t, seen[id], "duplicate redeemer %s", id)
		seen[id] = true
	}
}

func TestRedeem_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.store.SeedUser(user.User{})

	_, err := f.svc.Redeem(ctx, "NOPE0000", u)
	assert.ErrorIs(t, err, invitation.ErrInvalidCode)

	inv := f.issue(t, 2)
	f.svc.SetClock(func() time.Time { return f.now.AddDate(0, 0, 8) })
	_, err = f.svc.Redeem(ctx, inv.Code, u)
	assert.ErrorIs(t, err, invitation.ErrInvitationExpired)
}

func TestRedeem_PartialFailuresAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.store.SeedUser(user.User{})

	inv := f.issue(t, 5)
	f.store.Fail["companies.EnsureExists"] = errors.New("db down")
	_, err := f.svc.Redeem(ctx, inv.Code, u)
	assert.ErrorIs(t, err, invitation.ErrCompanyProvisionFailed)

	// the redemption itself was kept
	stored, err := f.store.Invitations().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)

	delete(f.store.Fail, "companies.EnsureExists")
	f.store.Fail["users.UpdateCompanyAndRole"] = errors.New("db down")
	_, err = f.svc.Redeem(ctx, inv.Code, f.store.SeedUser(user.User{}))
	assert.ErrorIs(t, err, invitation.ErrMembershipUpdateFailed)
}

func TestRedeem_AdminKeepsRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.store.SeedUser(user.User{Role: user.RoleAdmin})
	inv := f.issue(t, 1)

	resp, err := f.svc.Redeem(ctx, inv.Code, admin)
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Role)
}

func TestDelete_OnlyCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.issue(t, 1)

	other := f.store.SeedUser(user.User{Role: user.RoleManager, CompanyID: &f.company})
	assert.ErrorIs(t, f.svc.Delete(ctx, inv.ID, other), invitation.ErrNotInvitationOwner)
	assert.NoError(t, f.svc.Delete(ctx, inv.ID, f.manager))

	_, err := f.svc.Preview(ctx, inv.Code)
	assert.ErrorIs(t, err, invitation.ErrInvitationNotFound)
}
