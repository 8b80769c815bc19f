package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/doordash"
	"github.com/groupmeal/groupmeal-backend/internal/repository/memory"
	"github.com/groupmeal/groupmeal-backend/internal/service/servicetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	created   []delivery.CreateRequest
	createErr error
	getErr    error
	status    order.DeliveryStatus
	cancelled []string
}

func (p *stubProvider) Quote(_ context.Context, req delivery.QuoteRequest) (delivery.Quote, error) {
	return delivery.Quote{QuoteID: req.ExternalDeliveryID, Fee: decimal.RequireFromString("6.50"), Currency: "usd"}, nil
}

func (p *stubProvider) Create(_ context.Context, req delivery.CreateRequest) (delivery.Delivery, error) {
	p.created = append(p.created, req)
	if p.createErr != nil {
		return delivery.Delivery{}, p.createErr
	}
	return delivery.Delivery{
		ExternalDeliveryID: req.ExternalDeliveryID,
		Status:             order.DeliveryCreated,
		TrackingURL:        "https://track.example.com/" + req.ExternalDeliveryID,
	}, nil
}

func (p *stubProvider) Get(_ context.Context, id string) (delivery.Delivery, error) {
	if p.getErr != nil {
		return delivery.Delivery{}, p.getErr
	}
	st := p.status
	if st == "" {
		st = order.DeliveryConfirmed
	}
	return delivery.Delivery{ExternalDeliveryID: id, Status: st, TrackingURL: "https://track.example.com/" + id}, nil
}

func (p *stubProvider) Cancel(_ context.Context, id string) (delivery.Delivery, error) {
	p.cancelled = append(p.cancelled, id)
	return delivery.Delivery{ExternalDeliveryID: id, Status: order.DeliveryCancelled}, nil
}

type fixture struct {
	store    *servicetest.Store
	provider *stubProvider
	cache    delivery.StatusCache
	verifier *doordash.WebhookVerifier
	svc      *DeliveryServiceImpl
	owner    user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := servicetest.NewStore()
	provider := &stubProvider{}
	cache := memory.NewDeliveryStatusCache(memory.NewStore(), time.Hour)
	verifier := doordash.NewWebhookVerifier("delivery-secret")
	svc := NewDeliveryService(store.Orders(), provider, cache, verifier, config.DeliveryConfig{
		PickupAddress: "500 Kitchen Way, San Francisco, CA",
		PickupName:    "Groupmeal Kitchen",
	})
	owner := store.SeedUser(user.User{Role: user.RoleEmployee})
	return &fixture{store: store, provider: provider, cache: cache, verifier: verifier, svc: svc, owner: owner}
}

func (f *fixture) paidOrder() order.Order {
	return f.store.SeedOrder(order.Order{
		UserID:         f.owner.ID,
		FoodAmount:     decimal.RequireFromString("28.75"),
		PaymentStatus:  order.PaymentSucceeded,
		DeliveryStatus: order.DeliveryReady,
		DropoffAddress: "1 Market St, San Francisco, CA",
	})
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Quote(context.Background(), f.owner, delivery.QuoteInput{
		Dropoff:    delivery.Location{Address: "1 Market St"},
		OrderValue: decimal.RequireFromString("20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "6.50", resp.Fee.StringFixed(2))
	assert.Contains(t, resp.QuoteID, "quote_")

	svc := NewDeliveryService(f.store.Orders(), f.provider, f.cache, nil, config.DeliveryConfig{})
	_, err = svc.Quote(context.Background(), f.owner, delivery.QuoteInput{Dropoff: delivery.Location{Address: "1 Market St"}})
	assert.ErrorIs(t, err, delivery.ErrPickupNotConfigured)
}

func TestCreateDelivery_Idempotent(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder()
	ctx := context.Background()

	first, err := f.svc.CreateDelivery(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, ExternalID(o.ID), first.ExternalDeliveryID)
	assert.Equal(t, "created", first.Status)
	require.Len(t, f.provider.created, 1)
	assert.Equal(t, "500 Kitchen Way, San Francisco, CA", f.provider.created[0].Pickup.Address)

	second, err := f.svc.CreateDelivery(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ExternalDeliveryID, second.ExternalDeliveryID)
	assert.Len(t, f.provider.created, 1)

	stored, _ := f.store.Order(o.ID)
	require.NotNil(t, stored.TrackingURL)
	cached, ok, err := f.cache.Get(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order.DeliveryCreated, cached.Status)
}

func TestCreateDelivery_DuplicateAtProviderIsFetched(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder()
	f.provider.createErr = delivery.ErrDuplicateDelivery

	resp, err := f.svc.CreateDelivery(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, ExternalID(o.ID), resp.ExternalDeliveryID)
}

func TestCreateDelivery_RequiresPayment(t *testing.T) {
	f := newFixture(t)
	o := f.store.SeedOrder(order.Order{UserID: f.owner.ID, PaymentStatus: order.PaymentPending, DeliveryStatus: order.DeliveryNone})

	_, err := f.svc.CreateDelivery(context.Background(), o.ID)
	assert.ErrorIs(t, err, order.ErrOrderNotPaid)
	assert.Empty(t, f.provider.created)
}

func TestCreateForOrder_Access(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder()
	stranger := f.store.SeedUser(user.User{Role: user.RoleEmployee})

	_, err := f.svc.CreateForOrder(context.Background(), stranger, o.ID)
	assert.ErrorIs(t, err, order.ErrOrderAccessDenied)

	_, err = f.svc.CreateForOrder(context.Background(), f.owner, o.ID)
	assert.NoError(t, err)
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder()
	ctx := context.Background()

	_, err := f.svc.GetStatus(ctx, f.owner, o.ID)
	assert.ErrorIs(t, err, delivery.ErrNoDelivery)

	_, err = f.svc.CreateDelivery(ctx, o.ID)
	require.NoError(t, err)

	f.provider.status = order.DeliveryPickedUp
	resp, err := f.svc.GetStatus(ctx, f.owner, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "picked_up", resp.Status)
	assert.False(t, resp.Stale)

	// provider outage serves the cached status
	f.provider.getErr = delivery.ErrProviderUnavailable
	require.NoError(t, f.cache.Set(ctx, o.ID, delivery.CachedStatus{Status: order.DeliveryEnrouteToDropoff}))
	resp, err = f.svc.GetStatus(ctx, f.owner, o.ID)
	require.NoError(t, err)
	assert.True(t, resp.Stale)
	assert.Equal(t, "enroute_to_dropoff", resp.Status)
}

func TestGetStatus_StaleFallsBackToOrderRow(t *testing.T) {
	f := newFixture(t)
	ext := "gm_manual"
	o := f.store.SeedOrder(order.Order{UserID: f.owner.ID, ExternalDeliveryID: &ext, DeliveryStatus: order.DeliveryConfirmed})
	f.provider.getErr = errors.New("timeout")

	resp, err := f.svc.GetStatus(context.Background(), f.owner, o.ID)
	require.NoError(t, err)
	assert.True(t, resp.Stale)
	assert.Equal(t, "confirmed", resp.Status)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder()
	ctx := context.Background()
	_, err := f.svc.CreateDelivery(ctx, o.ID)
	require.NoError(t, err)

	resp, err := f.svc.Cancel(ctx, f.owner, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, []string{ExternalID(o.ID)}, f.provider.cancelled)

	_, err = f.svc.Cancel(ctx, f.owner, o.ID)
	assert.ErrorIs(t, err, delivery.ErrNotCancelable)
}

func TestHandleWebhook(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder()
	ctx := context.Background()
	_, err := f.svc.CreateDelivery(ctx, o.ID)
	require.NoError(t, err)

	body := []byte(`{"event_name":"DASHER_PICKED_UP","external_delivery_id":"` + ExternalID(o.ID) + `","tracking_url":"https://track.example.com/new","pickup_time_actual":"2025-04-01T18:20:00Z"}`)

	assert.ErrorIs(t, f.svc.HandleWebhook(ctx, body, "bad"), delivery.ErrInvalidSignature)

	require.NoError(t, f.svc.HandleWebhook(ctx, body, f.verifier.Sign(body)))
	stored, _ := f.store.Order(o.ID)
	assert.Equal(t, order.DeliveryPickedUp, stored.DeliveryStatus)
	require.NotNil(t, stored.PickupTime)
	assert.Equal(t, "https://track.example.com/new", *stored.TrackingURL)

	delivered := []byte(`{"event_name":"DASHER_DROPPED_OFF","external_delivery_id":"` + ExternalID(o.ID) + `"}`)
	require.NoError(t, f.svc.HandleWebhook(ctx, delivered, f.verifier.Sign(delivered)))

	// a late pickup event does not reopen a delivered order
	require.NoError(t, f.svc.HandleWebhook(ctx, body, f.verifier.Sign(body)))
	stored, _ = f.store.Order(o.ID)
	assert.Equal(t, order.DeliveryDelivered, stored.DeliveryStatus)
}

func TestHandleWebhook_UnknownAndMalformed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unknown := []byte(`{"event_name":"DASHER_PICKED_UP","external_delivery_id":"gm_nope"}`)
	assert.NoError(t, f.svc.HandleWebhook(ctx, unknown, f.verifier.Sign(unknown)))

	garbage := []byte(`{"event_name":`)
	assert.ErrorIs(t, f.svc.HandleWebhook(ctx, garbage, f.verifier.Sign(garbage)), delivery.ErrMalformedEvent)
}

func TestHandleWebhook_UnsignedWithoutSecret(t *testing.T) {
	f := newFixture(t)
	o := f.paidOrder()
	ctx := context.Background()
	svc := NewDeliveryService(f.store.Orders(), f.provider, f.cache, nil, config.DeliveryConfig{PickupAddress: "x"})
	_, err := svc.CreateDelivery(ctx, o.ID)
	require.NoError(t, err)

	body := []byte(`{"event_name":"DASHER_CONFIRMED","external_delivery_id":"` + ExternalID(o.ID) + `"}`)
	require.NoError(t, svc.HandleWebhook(ctx, body, ""))
	stored, _ := f.store.Order(o.ID)
	assert.Equal(t, order.DeliveryConfirmed, stored.DeliveryStatus)
}

func TestOutboxRelay(t *testing.T) {
	store := servicetest.NewStore()
	outbox := store.DeliveryIntentOutbox()
	ctx := context.Background()
	_, err := outbox.Enqueue(ctx, "o1")
	require.NoError(t, err)
	_, err = outbox.Enqueue(ctx, "o2")
	require.NoError(t, err)

	pub := &stubPublisher{failFor: "o2"}
	relay := NewOutboxRelay(store, outbox, pub)

	n, err := relay.RelayPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	intents := store.DeliveryIntents()
	require.Len(t, intents, 2)
	for _, in := range intents {
		if in.OrderID == "o1" {
			assert.NotNil(t, in.PublishedAt)
		} else {
			assert.Nil(t, in.PublishedAt)
			require.NotNil(t, in.LastError)
			assert.Equal(t, 1, in.Attempts)
		}
	}

	pub.failFor = ""
	n, err = relay.RelayPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"o1", "o2"}, pub.sent)
}

type stubPublisher struct {
	failFor string
	sent    []string
}

func (p *stubPublisher) Publish(_ context.Context, msg delivery.IntentMessage) error {
	if msg.OrderID == p.failFor {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, msg.OrderID)
	return nil
}
