package servicetest

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
)

type orderRepo struct{ s *Store }

func (s *Store) Orders() order.OrderRepository { return &orderRepo{s} }

func (r *orderRepo) Create(_ context.Context, o order.Order) (order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.Create"); err != nil {
		return order.Order{}, err
	}
	o.ID = uuid.NewString()
	o.CreatedAt = r.s.tick()
	o.UpdatedAt = o.CreatedAt
	r.s.st.orders[o.ID] = o
	return o, nil
}

func (r *orderRepo) find(match func(order.Order) bool) (order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.st.orders {
		if match(o) {
			return o, nil
		}
	}
	return order.Order{}, order.ErrOrderNotFound
}

func (r *orderRepo) GetByID(_ context.Context, id string) (order.Order, error) {
	return r.find(func(o order.Order) bool { return o.ID == id })
}

func (r *orderRepo) GetByPaymentIntentID(_ context.Context, id string) (order.Order, error) {
	return r.find(func(o order.Order) bool { return o.PaymentIntentID != nil && *o.PaymentIntentID == id })
}

func (r *orderRepo) GetByExternalDeliveryID(_ context.Context, id string) (order.Order, error) {
	return r.find(func(o order.Order) bool { return o.ExternalDeliveryID != nil && *o.ExternalDeliveryID == id })
}

func (r *orderRepo) ListByUserID(_ context.Context, userID string) ([]order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range r.s.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *orderRepo) SetPaymentIntent(_ context.Context, id, paymentIntentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.PaymentIntentID = &paymentIntentID
	r.s.st.orders[id] = o
	return nil
}

func (r *orderRepo) UpdatePaymentStatus(_ context.Context, id string, status order.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = r.s.tick()
	r.s.st.orders[id] = o
	return nil
}

func (r *orderRepo) UpdateDelivery(_ context.Context, id string, u order.DeliveryUpdate) (order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return order.Order{}, order.ErrOrderNotFound
	}
	if u.Status != "" {
		o.DeliveryStatus = u.Status
	}
	if u.ExternalDeliveryID != nil {
		o.ExternalDeliveryID = u.ExternalDeliveryID
	}
	if u.DeliveryQuoteID != nil {
		o.DeliveryQuoteID = u.DeliveryQuoteID
	}
	if u.DeliveryFee != nil {
		o.DeliveryFee = *u.DeliveryFee
	}
	if u.TrackingURL != nil {
		o.TrackingURL = u.TrackingURL
	}
	if u.PickupTime != nil {
		o.PickupTime = u.PickupTime
	}
	if u.DropoffTime != nil {
		o.DropoffTime = u.DropoffTime
	}
	o.UpdatedAt = r.s.tick()
	r.s.st.orders[id] = o
	return o, nil
}

func (r *orderRepo) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.st.orders))
	r.s.st.orders = map[string]order.Order{}
	return n, nil
}

type paymentIntentRepo struct{ s *Store }

func (s *Store) PaymentIntents() payment.IntentRepository { return &paymentIntentRepo{s} }

func (r *paymentIntentRepo) Create(_ context.Context, in payment.Intent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.intents[in.ID]; ok {
		return nil
	}
	in.CreatedAt = r.s.tick()
	in.UpdatedAt = in.CreatedAt
	r.s.st.intents[in.ID] = in
	return nil
}

func (r *paymentIntentRepo) GetByID(_ context.Context, id string) (payment.Intent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	in, ok := r.s.st.intents[id]
	if !ok {
		return payment.Intent{}, payment.ErrIntentNotFound
	}
	return in, nil
}

func (r *paymentIntentRepo) UpdateStatus(_ context.Context, id string, status payment.IntentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	in, ok := r.s.st.intents[id]
	if !ok {
		return payment.ErrIntentNotFound
	}
	in.Status = status
	r.s.st.intents[id] = in
	return nil
}

type disputeRepo struct{ s *Store }

func (s *Store) PaymentDisputes() payment.DisputeRepository { return &disputeRepo{s} }

func (r *disputeRepo) Create(_ context.Context, d payment.Dispute) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.disputes[d.ProviderDisputeID]; ok {
		return false, nil
	}
	d.ID = uuid.NewString()
	d.CreatedAt = r.s.tick()
	r.s.st.disputes[d.ProviderDisputeID] = d
	return true, nil
}

func (r *disputeRepo) ListRecent(_ context.Context, limit int) ([]payment.Dispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]payment.Dispute, 0)
	for _, d := range r.s.st.disputes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type deliveryIntentRepo struct{ s *Store }

func (s *Store) DeliveryIntentOutbox() delivery.IntentRepository { return &deliveryIntentRepo{s} }

func (r *deliveryIntentRepo) Enqueue(_ context.Context, orderID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.Enqueue"); err != nil {
		return false, err
	}
	for _, in := range r.s.st.deliveryIntents {
		if in.OrderID == orderID {
			return false, nil
		}
	}
	in := delivery.Intent{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Payload:   []byte(`{"order_id":"` + orderID + `"}`),
		CreatedAt: r.s.tick(),
	}
	r.s.st.deliveryIntents[in.ID] = in
	return true, nil
}

func (r *deliveryIntentRepo) ListUnpublished(_ context.Context, limit int) ([]delivery.Intent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]delivery.Intent, 0)
	for _, in := range r.s.st.deliveryIntents {
		if in.PublishedAt == nil {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *deliveryIntentRepo) MarkPublished(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	in := r.s.st.deliveryIntents[id]
	in.PublishedAt = &at
	in.Attempts++
	in.LastError = nil
	r.s.st.deliveryIntents[id] = in
	return nil
}

func (r *deliveryIntentRepo) MarkFailed(_ context.Context, id string, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	in := r.s.st.deliveryIntents[id]
	in.Attempts++
	in.LastError = &reason
	r.s.st.deliveryIntents[id] = in
	return nil
}

type restaurantRepo struct{ s *Store }

func (s *Store) Restaurants() menu.RestaurantRepository { return &restaurantRepo{s} }

func (r *restaurantRepo) GetByID(_ context.Context, id string) (menu.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rest, ok := r.s.st.restaurants[id]
	if !ok {
		return menu.Restaurant{}, menu.ErrRestaurantNotFound
	}
	return rest, nil
}

func (r *restaurantRepo) FindByNameWithMenu(_ context.Context, name string) (menu.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rest := range r.s.st.restaurants {
		if lower(rest.Name) == lower(name) && rest.HasMenu() {
			return rest, nil
		}
	}
	return menu.Restaurant{}, menu.ErrRestaurantNotFound
}

func (r *restaurantRepo) Upsert(_ context.Context, rest menu.Restaurant) (menu.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.tick()
	if existing, ok := r.s.st.restaurants[rest.ID]; ok {
		rest.CreatedAt = existing.CreatedAt
		if rest.Menu == nil {
			rest.Menu = existing.Menu
		}
	} else {
		rest.CreatedAt = now
	}
	rest.UpdatedAt = now
	r.s.st.restaurants[rest.ID] = rest
	return rest, nil
}

func (r *restaurantRepo) List(_ context.Context) ([]menu.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]menu.Restaurant, 0)
	for _, rest := range r.s.st.restaurants {
		out = append(out, rest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
