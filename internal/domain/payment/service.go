package payment

import "context"

// ReconcilerService mirrors processor events onto orders
type ReconcilerService interface {
	// HandleWebhook verifies the signature before parsing; unknown intents are dropped without error
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
	Reconcile(ctx context.Context, event Event) error
}
