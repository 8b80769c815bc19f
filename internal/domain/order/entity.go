package order

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCanceled   PaymentStatus = "canceled"
	PaymentDisputed   PaymentStatus = "disputed"
)

type DeliveryStatus string

const (
	DeliveryNone             DeliveryStatus = "none"
	DeliveryReady            DeliveryStatus = "ready"
	DeliveryQuoted           DeliveryStatus = "quoted"
	DeliveryCreated          DeliveryStatus = "created"
	DeliveryConfirmed        DeliveryStatus = "confirmed"
	DeliveryEnrouteToPickup  DeliveryStatus = "enroute_to_pickup"
	DeliveryPickedUp         DeliveryStatus = "picked_up"
	DeliveryEnrouteToDropoff DeliveryStatus = "enroute_to_dropoff"
	DeliveryDelivered        DeliveryStatus = "delivered"
	DeliveryCancelled        DeliveryStatus = "cancelled"
	DeliveryReturned         DeliveryStatus = "returned"
)

// IsTerminal reports whether no further provider updates are expected
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled || s == DeliveryReturned
}

// ParseDeliveryStatus maps a provider status string onto a local status
func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch DeliveryStatus(s) {
	case DeliveryNone, DeliveryReady, DeliveryQuoted, DeliveryCreated, DeliveryConfirmed,
		DeliveryEnrouteToPickup, DeliveryPickedUp, DeliveryEnrouteToDropoff,
		DeliveryDelivered, DeliveryCancelled, DeliveryReturned:
		return DeliveryStatus(s), true
	}
	return "", false
}

// Item is one line of an order
type Item struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Options   []string        `json:"options,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// Subtotal is quantity * unit price
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID                 string
	UserID             string
	CompanyID          *string
	SessionID          *string
	RestaurantID       string
	RestaurantName     string
	Items              []Item
	FoodAmount         decimal.Decimal
	ServiceFee         decimal.Decimal
	PlatformFee        decimal.Decimal
	DeliveryFee        decimal.Decimal
	TotalAmount        decimal.Decimal
	Currency           string
	PaymentIntentID    *string
	PaymentStatus      PaymentStatus
	DeliveryStatus     DeliveryStatus
	ExternalDeliveryID *string
	DeliveryQuoteID    *string
	TrackingURL        *string
	PickupAddress      string
	DropoffAddress     string
	DropoffName        string
	DropoffPhone       string
	PickupTime         *time.Time
	DropoffTime        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Breakdown is the monetary split of an order
type Breakdown struct {
	FoodAmount  decimal.Decimal
	ServiceFee  decimal.Decimal
	PlatformFee decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// ComputeBreakdown sums the items and applies fees. Amounts are rounded to cents.
func ComputeBreakdown(items []Item, serviceFeeRate, platformFee, deliveryFee decimal.Decimal) Breakdown {
	food := decimal.Zero
	for _, it := range items {
		food = food.Add(it.Subtotal())
	}
	food = food.Round(2)
	service := food.Mul(serviceFeeRate).Round(2)
	return Breakdown{
		FoodAmount:  food,
		ServiceFee:  service,
		PlatformFee: platformFee.Round(2),
		DeliveryFee: deliveryFee.Round(2),
		Total:       food.Add(service).Add(platformFee).Add(deliveryFee).Round(2),
	}
}

// DeliveryUpdate mirrors provider delivery state onto an order
type DeliveryUpdate struct {
	Status             DeliveryStatus
	ExternalDeliveryID *string
	DeliveryQuoteID    *string
	DeliveryFee        *decimal.Decimal
	TrackingURL        *string
	PickupTime         *time.Time
	DropoffTime        *time.Time
}

// AccessibleBy reports whether u is the owner, or a manager/admin of the order's company
func (o Order) AccessibleBy(u user.User) bool {
	if o.UserID == u.ID {
		return true
	}
	if o.CompanyID == nil || !u.BelongsTo(*o.CompanyID) {
		return false
	}
	return u.IsAdmin() || u.IsManager()
}
