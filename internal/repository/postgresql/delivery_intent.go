package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
)

type deliveryIntentRepositoryImpl struct {
	db *database.DB
}

func NewDeliveryIntentRepository(db *database.DB) delivery.IntentRepository {
	return &deliveryIntentRepositoryImpl{db: db}
}

// Enqueue implements delivery.IntentRepository.
func (r *deliveryIntentRepositoryImpl) Enqueue(ctx context.Context, orderID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO delivery_intents (order_id, payload)
		VALUES ($1::uuid, jsonb_build_object('order_id', $1::uuid))
		ON CONFLICT (order_id) DO NOTHING
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue delivery intent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListUnpublished implements delivery.IntentRepository.
// Rows are locked with SKIP LOCKED so concurrent relays do not publish the same intent.
func (r *deliveryIntentRepositoryImpl) ListUnpublished(ctx context.Context, limit int) ([]delivery.Intent, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, order_id, payload, published_at, attempts, last_error, created_at
		FROM delivery_intents
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery intents: %w", err)
	}
	defer rows.Close()

	intents := make([]delivery.Intent, 0)
	for rows.Next() {
		var in delivery.Intent
		if err := rows.Scan(&in.ID, &in.OrderID, &in.Payload, &in.PublishedAt, &in.Attempts, &in.LastError, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery intent: %w", err)
		}
		intents = append(intents, in)
	}
	return intents, rows.Err()
}

// MarkPublished implements delivery.IntentRepository.
func (r *deliveryIntentRepositoryImpl) MarkPublished(ctx context.Context, id string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE delivery_intents SET published_at = $1, attempts = attempts + 1, last_error = NULL
		WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery intent published: %w", err)
	}
	return nil
}

// MarkFailed implements delivery.IntentRepository.
func (r *deliveryIntentRepositoryImpl) MarkFailed(ctx context.Context, id string, reason string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE delivery_intents SET attempts = attempts + 1, last_error = $1
		WHERE id = $2
	`, reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery intent failed: %w", err)
	}
	return nil
}
