package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `
	id, user_id, company_id, session_id, restaurant_id, restaurant_name, items,
	food_amount, service_fee, platform_fee, delivery_fee, total_amount, currency,
	payment_intent_id, payment_status, delivery_status, external_delivery_id, delivery_quote_id,
	tracking_url, COALESCE(pickup_address, ''), COALESCE(dropoff_address, ''), COALESCE(dropoff_name, ''),
	COALESCE(dropoff_phone, ''), pickup_time, dropoff_time, created_at, updated_at`

type orderRepositoryImpl struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) order.OrderRepository {
	return &orderRepositoryImpl{db: db}
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.CompanyID, &o.SessionID, &o.RestaurantID, &o.RestaurantName, &o.Items,
		&o.FoodAmount, &o.ServiceFee, &o.PlatformFee, &o.DeliveryFee, &o.TotalAmount, &o.Currency,
		&o.PaymentIntentID, &o.PaymentStatus, &o.DeliveryStatus, &o.ExternalDeliveryID, &o.DeliveryQuoteID,
		&o.TrackingURL, &o.PickupAddress, &o.DropoffAddress, &o.DropoffName,
		&o.DropoffPhone, &o.PickupTime, &o.DropoffTime, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *orderRepositoryImpl) getOne(ctx context.Context, where string, arg interface{}) (order.Order, error) {
	q := GetQuerier(ctx, r.db)

	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// Create implements order.OrderRepository.
func (r *orderRepositoryImpl) Create(ctx context.Context, o order.Order) (order.Order, error) {
	q := GetQuerier(ctx, r.db)

	items := o.Items
	if items == nil {
		items = []order.Item{}
	}

	query := `
		INSERT INTO orders (
			user_id, company_id, session_id, restaurant_id, restaurant_name, items,
			food_amount, service_fee, platform_fee, delivery_fee, total_amount, currency,
			payment_status, delivery_status, delivery_quote_id,
			pickup_address, dropoff_address, dropoff_name, dropoff_phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ` + orderColumns

	created, err := scanOrder(q.QueryRow(ctx, query,
		o.UserID, o.CompanyID, o.SessionID, o.RestaurantID, o.RestaurantName, items,
		o.FoodAmount, o.ServiceFee, o.PlatformFee, o.DeliveryFee, o.TotalAmount, o.Currency,
		string(o.PaymentStatus), string(o.DeliveryStatus), o.DeliveryQuoteID,
		o.PickupAddress, o.DropoffAddress, o.DropoffName, o.DropoffPhone,
	))
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	return created, nil
}

// GetByID implements order.OrderRepository.
func (r *orderRepositoryImpl) GetByID(ctx context.Context, id string) (order.Order, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByPaymentIntentID implements order.OrderRepository.
func (r *orderRepositoryImpl) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (order.Order, error) {
	return r.getOne(ctx, `payment_intent_id = $1`, paymentIntentID)
}

// GetByExternalDeliveryID implements order.OrderRepository.
func (r *orderRepositoryImpl) GetByExternalDeliveryID(ctx context.Context, externalDeliveryID string) (order.Order, error) {
	return r.getOne(ctx, `external_delivery_id = $1`, externalDeliveryID)
}

// ListByUserID implements order.OrderRepository.
func (r *orderRepositoryImpl) ListByUserID(ctx context.Context, userID string) ([]order.Order, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SetPaymentIntent implements order.OrderRepository.
func (r *orderRepositoryImpl) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE orders SET payment_intent_id = $1, updated_at = NOW() WHERE id = $2`, paymentIntentID, id)
	if err != nil {
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// UpdatePaymentStatus implements order.OrderRepository.
func (r *orderRepositoryImpl) UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// UpdateDelivery implements order.OrderRepository. Nil fields keep their stored value.
func (r *orderRepositoryImpl) UpdateDelivery(ctx context.Context, id string, u order.DeliveryUpdate) (order.Order, error) {
	q := GetQuerier(ctx, r.db)

	var status *string
	if u.Status != "" {
		s := string(u.Status)
		status = &s
	}

	query := `
		UPDATE orders SET
			delivery_status = COALESCE($1, delivery_status),
			external_delivery_id = COALESCE($2, external_delivery_id),
			delivery_quote_id = COALESCE($3, delivery_quote_id),
			delivery_fee = COALESCE($4, delivery_fee),
			tracking_url = COALESCE($5, tracking_url),
			pickup_time = COALESCE($6, pickup_time),
			dropoff_time = COALESCE($7, dropoff_time),
			updated_at = NOW()
		WHERE id = $8
		RETURNING ` + orderColumns

	o, err := scanOrder(q.QueryRow(ctx, query,
		status, u.ExternalDeliveryID, u.DeliveryQuoteID, u.DeliveryFee, u.TrackingURL, u.PickupTime, u.DropoffTime, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("failed to update delivery: %w", err)
	}
	return o, nil
}

// DeleteAll implements order.OrderRepository.
func (r *orderRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear orders: %w", err)
	}
	return tag.RowsAffected(), nil
}
