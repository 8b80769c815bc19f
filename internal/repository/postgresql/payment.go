package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type paymentIntentRepositoryImpl struct {
	db *database.DB
}

func NewPaymentIntentRepository(db *database.DB) payment.IntentRepository {
	return &paymentIntentRepositoryImpl{db: db}
}

// Create implements payment.IntentRepository.
func (r *paymentIntentRepositoryImpl) Create(ctx context.Context, intent payment.Intent) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO payment_intents (id, order_id, amount, currency, status, client_secret)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, intent.ID, intent.OrderID, intent.Amount, intent.Currency, string(intent.Status), intent.ClientSecret)
	if err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}
	return nil
}

// GetByID implements payment.IntentRepository.
func (r *paymentIntentRepositoryImpl) GetByID(ctx context.Context, id string) (payment.Intent, error) {
	q := GetQuerier(ctx, r.db)

	var in payment.Intent
	var secret *string
	err := q.QueryRow(ctx, `
		SELECT id, order_id, amount, currency, status, client_secret, created_at, updated_at
		FROM payment_intents WHERE id = $1
	`, id).Scan(&in.ID, &in.OrderID, &in.Amount, &in.Currency, &in.Status, &secret, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.Intent{}, payment.ErrIntentNotFound
		}
		return payment.Intent{}, fmt.Errorf("failed to get payment intent: %w", err)
	}
	if secret != nil {
		in.ClientSecret = *secret
	}
	return in, nil
}

// UpdateStatus implements payment.IntentRepository.
func (r *paymentIntentRepositoryImpl) UpdateStatus(ctx context.Context, id string, status payment.IntentStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE payment_intents SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrIntentNotFound
	}
	return nil
}

type disputeRepositoryImpl struct {
	db *database.DB
}

func NewDisputeRepository(db *database.DB) payment.DisputeRepository {
	return &disputeRepositoryImpl{db: db}
}

// Create implements payment.DisputeRepository.
func (r *disputeRepositoryImpl) Create(ctx context.Context, d payment.Dispute) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO payment_disputes (
			provider_dispute_id, payment_intent_id, order_id, amount, currency, reason, status, raw_event
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (provider_dispute_id) DO NOTHING
	`, d.ProviderDisputeID, d.PaymentIntentID, d.OrderID, d.Amount, d.Currency, d.Reason, d.Status, d.RawEvent)
	if err != nil {
		return false, fmt.Errorf("failed to record dispute: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListRecent implements payment.DisputeRepository.
func (r *disputeRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]payment.Dispute, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, provider_dispute_id, payment_intent_id, order_id, amount, currency, reason, status, raw_event, created_at
		FROM payment_disputes
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]payment.Dispute, 0)
	for rows.Next() {
		var d payment.Dispute
		if err := rows.Scan(&d.ID, &d.ProviderDisputeID, &d.PaymentIntentID, &d.OrderID, &d.Amount,
			&d.Currency, &d.Reason, &d.Status, &d.RawEvent, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispute: %w", err)
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}
