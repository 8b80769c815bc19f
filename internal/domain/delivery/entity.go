package delivery

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Location is a pickup or dropoff point
type Location struct {
	Address      string `json:"address"`
	BusinessName string `json:"business_name,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type QuoteRequest struct {
	ExternalDeliveryID string          `json:"external_delivery_id"`
	Pickup             Location        `json:"pickup"`
	Dropoff            Location        `json:"dropoff"`
	OrderValue         decimal.Decimal `json:"order_value"`
}

type Quote struct {
	QuoteID  string          `json:"quote_id"`
	Fee      decimal.Decimal `json:"fee"`
	Currency string          `json:"currency"`
	ETA      *time.Time      `json:"eta,omitempty"`
}

type CreateRequest struct {
	ExternalDeliveryID string
	Pickup             Location
	Dropoff            Location
	OrderValue         decimal.Decimal
}

// Delivery is the provider's view of a dispatched delivery
type Delivery struct {
	ExternalDeliveryID string
	Status             order.DeliveryStatus
	TrackingURL        string
	Fee                decimal.Decimal
	PickupTime         *time.Time
	DropoffTime        *time.Time
}

// CachedStatus is the last known status kept for stale fallback
type CachedStatus struct {
	Status      order.DeliveryStatus `json:"status"`
	TrackingURL string               `json:"tracking_url,omitempty"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Intent is an outbox row asking the dispatcher to create a delivery for an order
type Intent struct {
	ID          string
	OrderID     string
	Payload     json.RawMessage
	PublishedAt *time.Time
	Attempts    int
	LastError   *string
	CreatedAt   time.Time
}

// IntentMessage is the Kafka payload of a delivery intent
type IntentMessage struct {
	IntentID  string    `json:"intent_id"`
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookEvent is the provider's delivery status callback
type WebhookEvent struct {
	EventName          string     `json:"event_name"`
	ExternalDeliveryID string     `json:"external_delivery_id"`
	DeliveryStatus     string     `json:"delivery_status,omitempty"`
	TrackingURL        string     `json:"tracking_url,omitempty"`
	PickupTimeActual   *time.Time `json:"pickup_time_actual,omitempty"`
	DropoffTimeActual  *time.Time `json:"dropoff_time_actual,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
}

var eventStatuses = map[string]order.DeliveryStatus{
	"DELIVERY_CREATED":                 order.DeliveryCreated,
	"DASHER_CONFIRMED":                 order.DeliveryConfirmed,
	"DASHER_ENROUTE_TO_PICKUP":         order.DeliveryEnrouteToPickup,
	"DASHER_CONFIRMED_PICKUP_ARRIVAL":  order.DeliveryEnrouteToPickup,
	"DASHER_PICKED_UP":                 order.DeliveryPickedUp,
	"DASHER_ENROUTE_TO_DROPOFF":        order.DeliveryEnrouteToDropoff,
	"DASHER_CONFIRMED_DROPOFF_ARRIVAL": order.DeliveryEnrouteToDropoff,
	"DASHER_DROPPED_OFF":               order.DeliveryDelivered,
	"DELIVERY_CANCELLED":               order.DeliveryCancelled,
	"DELIVERY_RETURNED":                order.DeliveryReturned,
}

// ResolveStatus prefers an explicit delivery_status and falls back to the event name
func (e WebhookEvent) ResolveStatus() (order.DeliveryStatus, bool) {
	if e.DeliveryStatus != "" {
		if st, ok := ParseProviderStatus(e.DeliveryStatus); ok {
			return st, true
		}
	}
	st, ok := eventStatuses[strings.ToUpper(e.EventName)]
	return st, ok
}

// ParseProviderStatus maps a provider delivery_status onto the local enum
func ParseProviderStatus(s string) (order.DeliveryStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "quote":
		return order.DeliveryQuoted, true
	case "canceled":
		return order.DeliveryCancelled, true
	}
	return order.ParseDeliveryStatus(s)
}
