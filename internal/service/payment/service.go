package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/ids"
)

var _ payment.ReconcilerService = (*ReconcilerServiceImpl)(nil)

type ReconcilerServiceImpl struct {
	tx          database.TxRunner
	orderRepo   order.OrderRepository
	intentRepo  payment.IntentRepository
	disputeRepo payment.DisputeRepository
	outbox      delivery.IntentRepository
	verifier    payment.Verifier
	deduper     payment.EventDeduper
}

func NewReconcilerService(
	tx database.TxRunner,
	orderRepo order.OrderRepository,
	intentRepo payment.IntentRepository,
	disputeRepo payment.DisputeRepository,
	outbox delivery.IntentRepository,
	verifier payment.Verifier,
	deduper payment.EventDeduper,
) *ReconcilerServiceImpl {
	return &ReconcilerServiceImpl{
		tx:          tx,
		orderRepo:   orderRepo,
		intentRepo:  intentRepo,
		disputeRepo: disputeRepo,
		outbox:      outbox,
		verifier:    verifier,
		deduper:     deduper,
	}
}

// HandleWebhook implements payment.ReconcilerService.
func (s *ReconcilerServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := s.verifier.Verify(payload, signatureHeader); err != nil {
		return err
	}

	var event payment.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
	}
	if event.Type == "" {
		return fmt.Errorf("%w: missing type", payment.ErrMalformedEvent)
	}
	claimed := false
	if event.ID == "" {
		event.ID = ids.WithPrefix("evt")
	} else if s.deduper != nil {
		first, err := s.deduper.FirstSeen(ctx, event.ID)
		if err != nil {
			slog.Warn("payment event dedupe unavailable", "event_id", event.ID, "error", err)
		} else if !first {
			slog.Info("duplicate payment event skipped", "event_id", event.ID, "type", event.Type)
			return nil
		}
		claimed = err == nil
	}

	if err := s.Reconcile(ctx, event); err != nil {
		if claimed {
			if ferr := s.deduper.Forget(ctx, event.ID); ferr != nil {
				slog.Error("failed to release payment event after error", "event_id", event.ID, "error", ferr)
			}
		}
		return err
	}
	return nil
}

// Reconcile implements payment.ReconcilerService.
func (s *ReconcilerServiceImpl) Reconcile(ctx context.Context, event payment.Event) error {
	switch event.Type {
	case payment.EventIntentSucceeded:
		obj, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.handleSucceeded(ctx, event, obj)
	case payment.EventIntentFailed:
		obj, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.handleTerminal(ctx, event, obj, order.PaymentFailed, payment.IntentFailed)
	case payment.EventIntentCanceled:
		obj, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.handleTerminal(ctx, event, obj, order.PaymentCanceled, payment.IntentCanceled)
	case payment.EventDisputeCreated:
		var obj payment.DisputeObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil || obj.ID == "" {
			return fmt.Errorf("%w: dispute object", payment.ErrMalformedEvent)
		}
		return s.handleDispute(ctx, event, obj)
	default:
		slog.Debug("payment event ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}
}

func decodeIntent(event payment.Event) (payment.IntentObject, error) {
	var obj payment.IntentObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil || obj.ID == "" {
		return payment.IntentObject{}, fmt.Errorf("%w: payment intent object", payment.ErrMalformedEvent)
	}
	return obj, nil
}

// lookup returns ok=false for an intent that matches no order
func (s *ReconcilerServiceImpl) lookup(ctx context.Context, event payment.Event, intentID string) (order.Order, bool, error) {
	o, err := s.orderRepo.GetByPaymentIntentID(ctx, intentID)
	if errors.Is(err, order.ErrOrderNotFound) {
		slog.Warn("payment event for unknown intent dropped", "event_id", event.ID, "type", event.Type, "payment_intent_id", intentID)
		return order.Order{}, false, nil
	}
	if err != nil {
		return order.Order{}, false, err
	}
	return o, true, nil
}

// mirrorIntent tolerates orders whose intent record was never stored
func (s *ReconcilerServiceImpl) mirrorIntent(ctx context.Context, id string, status payment.IntentStatus) error {
	err := s.intentRepo.UpdateStatus(ctx, id, status)
	if errors.Is(err, payment.ErrIntentNotFound) {
		return nil
	}
	return err
}

// handleSucceeded marks the order paid and writes the delivery intent in one transaction
func (s *ReconcilerServiceImpl) handleSucceeded(ctx context.Context, event payment.Event, obj payment.IntentObject) error {
	o, ok, err := s.lookup(ctx, event, obj.ID)
	if err != nil || !ok {
		return err
	}

	var enqueued bool
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if o.PaymentStatus != order.PaymentDisputed {
			if err := s.orderRepo.UpdatePaymentStatus(txCtx, o.ID, order.PaymentSucceeded); err != nil {
				return err
			}
		}
		if err := s.mirrorIntent(txCtx, obj.ID, payment.IntentSucceeded); err != nil {
			return err
		}
		if o.DeliveryStatus == order.DeliveryNone || o.DeliveryStatus == order.DeliveryQuoted {
			if _, err := s.orderRepo.UpdateDelivery(txCtx, o.ID, order.DeliveryUpdate{Status: order.DeliveryReady}); err != nil {
				return err
			}
		}
		var err error
		enqueued, err = s.outbox.Enqueue(txCtx, o.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to apply payment success: %w", err)
	}

	slog.Info("payment succeeded", "event_id", event.ID, "order_id", o.ID, "payment_intent_id", obj.ID, "delivery_intent_enqueued", enqueued)
	return nil
}

// handleTerminal mirrors failed/canceled. A paid or disputed order is never moved back.
func (s *ReconcilerServiceImpl) handleTerminal(ctx context.Context, event payment.Event, obj payment.IntentObject, status order.PaymentStatus, intentStatus payment.IntentStatus) error {
	o, ok, err := s.lookup(ctx, event, obj.ID)
	if err != nil || !ok {
		return err
	}
	if o.PaymentStatus == order.PaymentSucceeded || o.PaymentStatus == order.PaymentDisputed {
		slog.Warn("stale payment event ignored", "event_id", event.ID, "order_id", o.ID, "current", o.PaymentStatus, "incoming", status)
		return nil
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.UpdatePaymentStatus(txCtx, o.ID, status); err != nil {
			return err
		}
		return s.mirrorIntent(txCtx, obj.ID, intentStatus)
	})
	if err != nil {
		return fmt.Errorf("failed to apply payment %s: %w", status, err)
	}

	attrs := []any{"event_id", event.ID, "order_id", o.ID, "payment_intent_id", obj.ID, "status", status}
	if obj.LastPaymentError != nil {
		attrs = append(attrs, "reason", obj.LastPaymentError.Message)
	}
	slog.Info("payment not completed", attrs...)
	return nil
}

// handleDispute records every dispute, matched or not, and flags the matching order
func (s *ReconcilerServiceImpl) handleDispute(ctx context.Context, event payment.Event, obj payment.DisputeObject) error {
	var orderID *string
	if obj.PaymentIntent != "" {
		o, ok, err := s.lookup(ctx, event, obj.PaymentIntent)
		if err != nil {
			return err
		}
		if ok {
			orderID = &o.ID
		}
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode dispute event: %w", err)
	}

	var created bool
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.disputeRepo.Create(txCtx, payment.Dispute{
			ProviderDisputeID: obj.ID,
			PaymentIntentID:   obj.PaymentIntent,
			OrderID:           orderID,
			Amount:            payment.FromMinorUnits(obj.Amount),
			Currency:          obj.Currency,
			Reason:            obj.Reason,
			Status:            obj.Status,
			RawEvent:          raw,
		})
		if err != nil {
			return err
		}
		if orderID == nil {
			return nil
		}
		return s.orderRepo.UpdatePaymentStatus(txCtx, *orderID, order.PaymentDisputed)
	})
	if err != nil {
		return fmt.Errorf("failed to record dispute: %w", err)
	}

	slog.Warn("payment dispute recorded", "event_id", event.ID, "dispute_id", obj.ID, "payment_intent_id", obj.PaymentIntent, "order_id", orderID, "new", created, "reason", obj.Reason)
	return nil
}
