package order

import (
	"context"
	"testing"

	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/service/servicetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	err    error
	params []payment.CreateIntentParams
}

func (p *stubProvider) CreateIntent(_ context.Context, params payment.CreateIntentParams) (payment.ProviderIntent, error) {
	p.params = append(p.params, params)
	if p.err != nil {
		return payment.ProviderIntent{}, p.err
	}
	return payment.ProviderIntent{
		ID:           "pi_" + params.OrderID,
		ClientSecret: "pi_" + params.OrderID + "_secret",
		Status:       payment.IntentRequiresPayment,
		Amount:       params.Amount,
		Currency:     params.Currency,
	}, nil
}

func newService(store *servicetest.Store, provider payment.Provider) *OrderServiceImpl {
	fees := config.CheckoutConfig{
		ServiceFeeRate: decimal.RequireFromString("0.05"),
		PlatformFee:    decimal.RequireFromString("1.00"),
	}
	return NewOrderService(store, store.Orders(), store.PaymentIntents(), provider, fees, "usd")
}

func checkoutRequest() order.CheckoutRequest {
	fee := decimal.RequireFromString("4.99")
	return order.CheckoutRequest{
		RestaurantID:   "place_1",
		RestaurantName: "Noodle Bar",
		Items: []order.Item{
			{ItemID: "pad-thai", Name: "Pad Thai", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
			{ItemID: "tea", Name: "Thai Tea", Quantity: 1, UnitPrice: decimal.RequireFromString("3.75")},
		},
		DeliveryFee:    &fee,
		DropoffAddress: "1 Market St, San Francisco, CA",
	}
}

func TestCheckout(t *testing.T) {
	store := servicetest.NewStore()
	provider := &stubProvider{}
	svc := newService(store, provider)
	c := store.SeedCompany("Acme")
	u := store.SeedUser(user.User{Role: user.RoleEmployee, CompanyID: &c.ID})

	resp, err := svc.Checkout(context.Background(), u, checkoutRequest())
	require.NoError(t, err)

	// 28.75 food, 1.44 service, 1.00 platform, 4.99 delivery
	assert.Equal(t, "28.75", resp.Order.FoodAmount.StringFixed(2))
	assert.Equal(t, "1.44", resp.Order.ServiceFee.StringFixed(2))
	assert.Equal(t, "36.18", resp.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, "pending", resp.Order.PaymentStatus)
	assert.Equal(t, "none", resp.Order.DeliveryStatus)
	assert.Equal(t, "pi_"+resp.Order.ID+"_secret", resp.ClientSecret)

	require.Len(t, provider.params, 1)
	assert.True(t, provider.params[0].Amount.Equal(resp.Order.TotalAmount))
	assert.Equal(t, "checkout_"+resp.Order.ID, provider.params[0].IdempotencyKey)

	stored, ok := store.Order(resp.Order.ID)
	require.True(t, ok)
	require.NotNil(t, stored.PaymentIntentID)
	intent, ok := store.PaymentIntent(*stored.PaymentIntentID)
	require.True(t, ok)
	assert.Equal(t, resp.Order.ID, intent.OrderID)
	assert.Equal(t, payment.IntentRequiresPayment, intent.Status)
}

func TestCheckout_ProviderFailure(t *testing.T) {
	store := servicetest.NewStore()
	svc := newService(store, &stubProvider{err: payment.ErrProviderUnreachable})
	u := store.SeedUser(user.User{})

	_, err := svc.Checkout(context.Background(), u, checkoutRequest())
	require.ErrorIs(t, err, order.ErrPaymentIntentFail)

	orders, err := svc.ListMine(context.Background(), u)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "failed", orders[0].PaymentStatus)
}

func TestCheckout_Validation(t *testing.T) {
	store := servicetest.NewStore()
	provider := &stubProvider{}
	svc := newService(store, provider)

	req := checkoutRequest()
	req.Items = nil
	_, err := svc.Checkout(context.Background(), store.SeedUser(user.User{}), req)
	require.Error(t, err)
	assert.Empty(t, provider.params)
}

func TestGetByID_Access(t *testing.T) {
	store := servicetest.NewStore()
	svc := newService(store, &stubProvider{})
	ctx := context.Background()
	c := store.SeedCompany("Acme")
	owner := store.SeedUser(user.User{Role: user.RoleEmployee, CompanyID: &c.ID})
	colleague := store.SeedUser(user.User{Role: user.RoleEmployee, CompanyID: &c.ID})
	manager := store.SeedUser(user.User{Role: user.RoleManager, CompanyID: &c.ID})
	other := store.SeedCompany("Other")
	outsider := store.SeedUser(user.User{Role: user.RoleManager, CompanyID: &other.ID})

	o := store.SeedOrder(order.Order{UserID: owner.ID, CompanyID: &c.ID, PaymentStatus: order.PaymentPending, DeliveryStatus: order.DeliveryNone})

	_, err := svc.GetByID(ctx, owner, o.ID)
	assert.NoError(t, err)
	_, err = svc.GetByID(ctx, manager, o.ID)
	assert.NoError(t, err)
	_, err = svc.GetByID(ctx, colleague, o.ID)
	assert.ErrorIs(t, err, order.ErrOrderAccessDenied)
	_, err = svc.GetByID(ctx, outsider, o.ID)
	assert.ErrorIs(t, err, order.ErrOrderAccessDenied)
	_, err = svc.GetByID(ctx, owner, "missing")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestClearAll(t *testing.T) {
	store := servicetest.NewStore()
	svc := newService(store, &stubProvider{})
	ctx := context.Background()
	store.SeedOrder(order.Order{UserID: "u1"})
	store.SeedOrder(order.Order{UserID: "u2"})

	_, err := svc.ClearAll(ctx, store.SeedUser(user.User{Role: user.RoleManager}))
	assert.ErrorIs(t, err, order.ErrClearForbidden)

	resp, err := svc.ClearAll(ctx, store.SeedUser(user.User{Role: user.RoleAdmin}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Deleted)
}

