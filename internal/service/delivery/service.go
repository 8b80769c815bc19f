package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/ids"
)

var _ delivery.DeliveryService = (*DeliveryServiceImpl)(nil)

// ExternalID derives the provider idempotency key from the order id, so a retried dispatch never creates a second delivery
func ExternalID(orderID string) string {
	return "gm_" + orderID
}

type DeliveryServiceImpl struct {
	orderRepo order.OrderRepository
	provider  delivery.Provider
	cache     delivery.StatusCache
	// verifier is nil when no webhook secret is configured (development only)
	verifier delivery.WebhookVerifier
	pickup   delivery.Location
	now      func() time.Time
}

func NewDeliveryService(
	orderRepo order.OrderRepository,
	provider delivery.Provider,
	cache delivery.StatusCache,
	verifier delivery.WebhookVerifier,
	cfg config.DeliveryConfig,
) *DeliveryServiceImpl {
	return &DeliveryServiceImpl{
		orderRepo: orderRepo,
		provider:  provider,
		cache:     cache,
		verifier:  verifier,
		pickup: delivery.Location{
			Address:      cfg.PickupAddress,
			BusinessName: cfg.PickupName,
			PhoneNumber:  cfg.PickupPhone,
		},
		now: time.Now,
	}
}

func (s *DeliveryServiceImpl) SetClock(now func() time.Time) {
	s.now = now
}

func (s *DeliveryServiceImpl) pickupFor(addr string) (delivery.Location, error) {
	if addr != "" {
		return delivery.Location{Address: addr}, nil
	}
	if s.pickup.Address == "" {
		return delivery.Location{}, delivery.ErrPickupNotConfigured
	}
	return s.pickup, nil
}

// Quote implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) Quote(ctx context.Context, u user.User, req delivery.QuoteInput) (delivery.QuoteResponse, error) {
	if err := req.Validate(); err != nil {
		return delivery.QuoteResponse{}, err
	}

	pickup := s.pickup
	if req.Pickup != nil {
		pickup = *req.Pickup
	} else if pickup.Address == "" {
		return delivery.QuoteResponse{}, delivery.ErrPickupNotConfigured
	}

	q, err := s.provider.Quote(ctx, delivery.QuoteRequest{
		ExternalDeliveryID: ids.WithPrefix("quote"),
		Pickup:             pickup,
		Dropoff:            req.Dropoff,
		OrderValue:         req.OrderValue,
	})
	if err != nil {
		return delivery.QuoteResponse{}, err
	}

	slog.Info("delivery quoted", "user_id", u.ID, "quote_id", q.QuoteID, "fee", q.Fee.StringFixed(2))
	return delivery.ToQuoteResponse(q), nil
}

func (s *DeliveryServiceImpl) accessibleOrder(ctx context.Context, u user.User, orderID string) (order.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}
	if !o.AccessibleBy(u) {
		return order.Order{}, order.ErrOrderAccessDenied
	}
	return o, nil
}

// CreateForOrder implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) CreateForOrder(ctx context.Context, u user.User, orderID string) (delivery.DeliveryResponse, error) {
	if _, err := s.accessibleOrder(ctx, u, orderID); err != nil {
		return delivery.DeliveryResponse{}, err
	}
	return s.CreateDelivery(ctx, orderID)
}

// CreateDelivery implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) CreateDelivery(ctx context.Context, orderID string) (delivery.DeliveryResponse, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return delivery.DeliveryResponse{}, err
	}
	if o.ExternalDeliveryID != nil {
		return responseFromOrder(o, false), nil
	}
	if o.PaymentStatus != order.PaymentSucceeded {
		return delivery.DeliveryResponse{}, order.ErrOrderNotPaid
	}

	pickup, err := s.pickupFor(o.PickupAddress)
	if err != nil {
		return delivery.DeliveryResponse{}, err
	}

	extID := ExternalID(o.ID)
	d, err := s.provider.Create(ctx, delivery.CreateRequest{
		ExternalDeliveryID: extID,
		Pickup:             pickup,
		Dropoff: delivery.Location{
			Address:     o.DropoffAddress,
			ContactName: o.DropoffName,
			PhoneNumber: o.DropoffPhone,
		},
		OrderValue: o.FoodAmount,
	})
	if errors.Is(err, delivery.ErrDuplicateDelivery) {
		slog.Info("delivery already exists at provider, fetching", "order_id", o.ID, "external_delivery_id", extID)
		d, err = s.provider.Get(ctx, extID)
	}
	if err != nil {
		return delivery.DeliveryResponse{}, err
	}
	if d.ExternalDeliveryID == "" {
		d.ExternalDeliveryID = extID
	}
	if d.Status == "" {
		d.Status = order.DeliveryCreated
	}

	update := order.DeliveryUpdate{
		Status:             d.Status,
		ExternalDeliveryID: &d.ExternalDeliveryID,
		PickupTime:         d.PickupTime,
		DropoffTime:        d.DropoffTime,
	}
	if d.TrackingURL != "" {
		update.TrackingURL = &d.TrackingURL
	}
	if d.Fee.IsPositive() {
		update.DeliveryFee = &d.Fee
	}
	updated, err := s.orderRepo.UpdateDelivery(ctx, o.ID, update)
	if err != nil {
		return delivery.DeliveryResponse{}, err
	}
	s.remember(ctx, updated)

	slog.Info("delivery created", "order_id", o.ID, "external_delivery_id", d.ExternalDeliveryID, "status", d.Status)
	return responseFromOrder(updated, false), nil
}

// GetStatus implements delivery.DeliveryService.
// A provider failure falls back to the cached status, then to the order row, flagged stale.
func (s *DeliveryServiceImpl) GetStatus(ctx context.Context, u user.User, orderID string) (delivery.DeliveryResponse, error) {
	o, err := s.accessibleOrder(ctx, u, orderID)
	if err != nil {
		return delivery.DeliveryResponse{}, err
	}
	if o.ExternalDeliveryID == nil {
		return delivery.DeliveryResponse{}, delivery.ErrNoDelivery
	}

	d, err := s.provider.Get(ctx, *o.ExternalDeliveryID)
	if err != nil {
		slog.Warn("delivery status fetch failed, serving last known", "order_id", o.ID, "error", err)
		resp := responseFromOrder(o, true)
		if cached, ok, cerr := s.cache.Get(ctx, o.ID); cerr == nil && ok {
			resp.Status = string(cached.Status)
			if cached.TrackingURL != "" {
				url := cached.TrackingURL
				resp.TrackingURL = &url
			}
		}
		return resp, nil
	}

	update := order.DeliveryUpdate{
		Status:      d.Status,
		PickupTime:  d.PickupTime,
		DropoffTime: d.DropoffTime,
	}
	if d.TrackingURL != "" {
		update.TrackingURL = &d.TrackingURL
	}
	updated, err := s.orderRepo.UpdateDelivery(ctx, o.ID, update)
	if err != nil {
		return delivery.DeliveryResponse{}, err
	}
	s.remember(ctx, updated)
	return responseFromOrder(updated, false), nil
}

// Cancel implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) Cancel(ctx context.Context, u user.User, orderID string) (delivery.CancelResponse, error) {
	o, err := s.accessibleOrder(ctx, u, orderID)
	if err != nil {
		return delivery.CancelResponse{}, err
	}
	if o.ExternalDeliveryID == nil {
		return delivery.CancelResponse{}, delivery.ErrNoDelivery
	}
	if o.DeliveryStatus.IsTerminal() {
		return delivery.CancelResponse{}, delivery.ErrNotCancelable
	}

	if _, err := s.provider.Cancel(ctx, *o.ExternalDeliveryID); err != nil {
		return delivery.CancelResponse{}, err
	}

	updated, err := s.orderRepo.UpdateDelivery(ctx, o.ID, order.DeliveryUpdate{Status: order.DeliveryCancelled})
	if err != nil {
		return delivery.CancelResponse{}, err
	}
	s.remember(ctx, updated)

	slog.Info("delivery cancelled", "order_id", o.ID, "by", u.ID)
	return delivery.CancelResponse{OrderID: o.ID, Status: string(updated.DeliveryStatus)}, nil
}

// HandleWebhook implements delivery.DeliveryService.
// Terminal statuses are never overwritten by a late callback.
func (s *DeliveryServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.verifier != nil {
		if err := s.verifier.Verify(payload, signature); err != nil {
			return err
		}
	}

	var ev delivery.WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %v", delivery.ErrMalformedEvent, err)
	}
	if ev.ExternalDeliveryID == "" {
		return fmt.Errorf("%w: missing external_delivery_id", delivery.ErrMalformedEvent)
	}

	o, err := s.orderRepo.GetByExternalDeliveryID(ctx, ev.ExternalDeliveryID)
	if errors.Is(err, order.ErrOrderNotFound) {
		slog.Warn("delivery event for unknown delivery dropped", "event", ev.EventName, "external_delivery_id", ev.ExternalDeliveryID)
		return nil
	}
	if err != nil {
		return err
	}

	update := order.DeliveryUpdate{
		PickupTime:  ev.PickupTimeActual,
		DropoffTime: ev.DropoffTimeActual,
	}
	if st, ok := ev.ResolveStatus(); ok {
		if o.DeliveryStatus.IsTerminal() && st != o.DeliveryStatus {
			slog.Warn("late delivery event ignored", "order_id", o.ID, "current", o.DeliveryStatus, "incoming", st)
			return nil
		}
		update.Status = st
	} else {
		slog.Debug("delivery event without mapped status", "event", ev.EventName, "order_id", o.ID)
	}
	if ev.TrackingURL != "" {
		update.TrackingURL = &ev.TrackingURL
	}

	updated, err := s.orderRepo.UpdateDelivery(ctx, o.ID, update)
	if err != nil {
		return err
	}
	s.remember(ctx, updated)

	slog.Info("delivery event applied", "event", ev.EventName, "order_id", o.ID, "status", updated.DeliveryStatus)
	return nil
}

// remember refreshes the status cache; a cache failure never fails the caller
func (s *DeliveryServiceImpl) remember(ctx context.Context, o order.Order) {
	cs := delivery.CachedStatus{Status: o.DeliveryStatus, UpdatedAt: s.now()}
	if o.TrackingURL != nil {
		cs.TrackingURL = *o.TrackingURL
	}
	if err := s.cache.Set(ctx, o.ID, cs); err != nil {
		slog.Warn("delivery status cache write failed", "order_id", o.ID, "error", err)
	}
}

func responseFromOrder(o order.Order, stale bool) delivery.DeliveryResponse {
	resp := delivery.DeliveryResponse{
		OrderID:     o.ID,
		Status:      string(o.DeliveryStatus),
		TrackingURL: o.TrackingURL,
		Stale:       stale,
	}
	if o.ExternalDeliveryID != nil {
		resp.ExternalDeliveryID = *o.ExternalDeliveryID
	}
	return resp
}
