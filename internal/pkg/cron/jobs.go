package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
)

// SessionTransitionJob activates and closes sessions by wall clock
func SessionTransitionJob(svc session.SessionService, now func() time.Time) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		activated, closed, err := svc.AdvanceByClock(ctx, now())
		if err != nil {
			return err
		}
		if activated > 0 || closed > 0 {
			slog.Info("Session transitions applied", "activated", activated, "closed", closed)
		}
		return nil
	}
}

// OutboxRelayJob publishes pending delivery intents
func OutboxRelayJob(relay delivery.OutboxRelay) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		published, err := relay.RelayPending(ctx)
		if published > 0 {
			slog.Info("Delivery intents relayed", "count", published)
		}
		return err
	}
}
