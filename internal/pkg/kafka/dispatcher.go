package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/segmentio/kafka-go"
)

// DeliveryDispatcher creates the delivery for each intent message.
// Only provider outages are retried; anything else is logged and committed.
func DeliveryDispatcher(svc delivery.DeliveryService) Handler {
	return func(ctx context.Context, m kafka.Message) error {
		var msg delivery.IntentMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil || msg.OrderID == "" {
			slog.Error("undecodable delivery intent skipped", "offset", m.Offset, "key", string(m.Key), "error", err)
			return nil
		}

		resp, err := svc.CreateDelivery(ctx, msg.OrderID)
		switch {
		case err == nil:
			slog.Info("delivery dispatched", "intent_id", msg.IntentID, "order_id", msg.OrderID, "external_delivery_id", resp.ExternalDeliveryID, "status", resp.Status)
			return nil
		case errors.Is(err, delivery.ErrProviderUnavailable):
			return err
		case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, order.ErrOrderNotPaid),
			errors.Is(err, delivery.ErrInvalidAddress), errors.Is(err, delivery.ErrPickupNotConfigured):
			slog.Error("delivery intent dropped", "intent_id", msg.IntentID, "order_id", msg.OrderID, "error", err)
			return nil
		default:
			return err
		}
	}
}
