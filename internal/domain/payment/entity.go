package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event kinds handled by the reconciler
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
	EventDisputeCreated  = "charge.dispute.created"
)

type IntentStatus string

const (
	IntentRequiresPayment IntentStatus = "requires_payment_method"
	IntentProcessing      IntentStatus = "processing"
	IntentSucceeded       IntentStatus = "succeeded"
	IntentFailed          IntentStatus = "failed"
	IntentCanceled        IntentStatus = "canceled"
)

// Intent is the local mirror of a processor payment intent
type Intent struct {
	ID           string
	OrderID      string
	Amount       decimal.Decimal
	Currency     string
	Status       IntentStatus
	ClientSecret string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Dispute is a durable record of a chargeback for manual follow-up
type Dispute struct {
	ID                string
	ProviderDisputeID string
	PaymentIntentID   string
	OrderID           *string
	Amount            decimal.Decimal
	Currency          string
	Reason            string
	Status            string
	RawEvent          json.RawMessage
	CreatedAt         time.Time
}

// Event is the envelope of a processor webhook
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// IntentObject is data.object for payment_intent.* events
type IntentObject struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error,omitempty"`
}

// DisputeObject is data.object for charge.dispute.* events
type DisputeObject struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	PaymentIntent string `json:"payment_intent"`
	Charge        string `json:"charge"`
}

// FromMinorUnits converts an amount in cents into a decimal
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// ToMinorUnits converts a decimal amount into cents
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// CreateIntentParams is what checkout asks the processor for
type CreateIntentParams struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	// IdempotencyKey is forwarded so a retried checkout does not double-charge
	IdempotencyKey string
	Metadata       map[string]string
}

// ProviderIntent is the processor's answer to CreateIntent
type ProviderIntent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       decimal.Decimal
	Currency     string
}
