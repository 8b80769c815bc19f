package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
)

const relayBatchSize = 50

var _ delivery.OutboxRelay = (*OutboxRelayImpl)(nil)

// OutboxRelayImpl publishes unpublished delivery intents. Rows are claimed with SKIP LOCKED inside one transaction,
// so concurrent relays never publish the same batch.
type OutboxRelayImpl struct {
	tx        database.TxRunner
	outbox    delivery.IntentRepository
	publisher delivery.IntentPublisher
	now       func() time.Time
}

func NewOutboxRelay(tx database.TxRunner, outbox delivery.IntentRepository, publisher delivery.IntentPublisher) *OutboxRelayImpl {
	return &OutboxRelayImpl{tx: tx, outbox: outbox, publisher: publisher, now: time.Now}
}

// RelayPending implements delivery.OutboxRelay.
// A failed publish is recorded on the row and retried on the next run.
func (r *OutboxRelayImpl) RelayPending(ctx context.Context) (int, error) {
	var published int
	err := r.tx.WithinTx(ctx, func(txCtx context.Context) error {
		pending, err := r.outbox.ListUnpublished(txCtx, relayBatchSize)
		if err != nil {
			return err
		}

		for _, in := range pending {
			msg := delivery.IntentMessage{IntentID: in.ID, OrderID: in.OrderID, CreatedAt: in.CreatedAt}
			if err := r.publisher.Publish(txCtx, msg); err != nil {
				slog.Warn("delivery intent publish failed", "intent_id", in.ID, "order_id", in.OrderID, "attempts", in.Attempts+1, "error", err)
				if merr := r.outbox.MarkFailed(txCtx, in.ID, err.Error()); merr != nil {
					return merr
				}
				continue
			}
			if err := r.outbox.MarkPublished(txCtx, in.ID, r.now()); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	return published, err
}
