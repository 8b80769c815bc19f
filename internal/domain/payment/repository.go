package payment

import "context"

type IntentRepository interface {
	Create(ctx context.Context, intent Intent) error
	GetByID(ctx context.Context, id string) (Intent, error)
	UpdateStatus(ctx context.Context, id string, status IntentStatus) error
}

type DisputeRepository interface {
	// Create inserts a dispute; created is false when the provider dispute id was already recorded
	Create(ctx context.Context, d Dispute) (created bool, err error)
	ListRecent(ctx context.Context, limit int) ([]Dispute, error)
}

// Provider creates payment intents at the processor
type Provider interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (ProviderIntent, error)
}

// Verifier authenticates a raw webhook body against its signature header
type Verifier interface {
	Verify(payload []byte, header string) error
}

// EventDeduper remembers processed event ids
type EventDeduper interface {
	// FirstSeen reports true the first time an event id is offered
	FirstSeen(ctx context.Context, eventID string) (bool, error)
	// Forget releases an id whose processing failed so the provider's retry is handled again
	Forget(ctx context.Context, eventID string) error
}
