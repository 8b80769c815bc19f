package order

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	RestaurantID   string           `json:"restaurant_id"`
	RestaurantName string           `json:"restaurant_name"`
	SessionID      *string          `json:"session_id,omitempty"`
	Items          []Item           `json:"items"`
	DeliveryFee    *decimal.Decimal `json:"delivery_fee,omitempty"`
	QuoteID        *string          `json:"quote_id,omitempty"`
	PickupAddress  string           `json:"pickup_address"`
	DropoffAddress string           `json:"dropoff_address"`
	DropoffName    string           `json:"dropoff_name"`
	DropoffPhone   string           `json:"dropoff_phone"`
}

func (r *CheckoutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RestaurantID) {
		errs.Add("restaurant_id", "restaurant_id is required")
	}
	if validator.IsEmpty(r.RestaurantName) {
		errs.Add("restaurant_name", "restaurant_name is required")
	}
	if r.SessionID != nil && !validator.IsValidUUID(*r.SessionID) {
		errs.Add("session_id", "session_id must be a valid UUID")
	}
	if len(r.Items) == 0 {
		errs.Add("items", ErrEmptyOrder.Error())
	}
	for _, it := range r.Items {
		if validator.IsEmpty(it.ItemID) || validator.IsEmpty(it.Name) {
			errs.Add("items", "every item needs item_id and name")
			break
		}
		if it.Quantity <= 0 {
			errs.Add("items", "item quantity must be positive")
			break
		}
		if it.UnitPrice.IsNegative() {
			errs.Add("items", "item unit_price must not be negative")
			break
		}
	}
	if r.DeliveryFee != nil && r.DeliveryFee.IsNegative() {
		errs.Add("delivery_fee", "delivery_fee must not be negative")
	}
	if validator.IsEmpty(r.DropoffAddress) {
		errs.Add("dropoff_address", "dropoff_address is required")
	}
	if !validator.IsEmpty(r.DropoffPhone) && !validator.IsValidPhoneNumber(r.DropoffPhone) {
		errs.Add("dropoff_phone", "dropoff_phone must be in E.164 format")
	}

	return errs.Err()
}

type OrderResponse struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	CompanyID          *string         `json:"company_id,omitempty"`
	SessionID          *string         `json:"session_id,omitempty"`
	RestaurantID       string          `json:"restaurant_id"`
	RestaurantName     string          `json:"restaurant_name"`
	Items              []Item          `json:"items"`
	FoodAmount         decimal.Decimal `json:"food_amount"`
	ServiceFee         decimal.Decimal `json:"service_fee"`
	PlatformFee        decimal.Decimal `json:"platform_fee"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Currency           string          `json:"currency"`
	PaymentIntentID    *string         `json:"payment_intent_id,omitempty"`
	PaymentStatus      string          `json:"payment_status"`
	DeliveryStatus     string          `json:"delivery_status"`
	ExternalDeliveryID *string         `json:"external_delivery_id,omitempty"`
	TrackingURL        *string         `json:"tracking_url,omitempty"`
	DropoffAddress     string          `json:"dropoff_address"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

// CheckoutResponse carries the client secret used by the browser to confirm payment
type CheckoutResponse struct {
	Order        OrderResponse `json:"order"`
	ClientSecret string        `json:"client_secret"`
}

type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

func ToResponse(o Order) OrderResponse {
	items := o.Items
	if items == nil {
		items = []Item{}
	}
	return OrderResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		CompanyID:          o.CompanyID,
		SessionID:          o.SessionID,
		RestaurantID:       o.RestaurantID,
		RestaurantName:     o.RestaurantName,
		Items:              items,
		FoodAmount:         o.FoodAmount,
		ServiceFee:         o.ServiceFee,
		PlatformFee:        o.PlatformFee,
		DeliveryFee:        o.DeliveryFee,
		TotalAmount:        o.TotalAmount,
		Currency:           o.Currency,
		PaymentIntentID:    o.PaymentIntentID,
		PaymentStatus:      string(o.PaymentStatus),
		DeliveryStatus:     string(o.DeliveryStatus),
		ExternalDeliveryID: o.ExternalDeliveryID,
		TrackingURL:        o.TrackingURL,
		DropoffAddress:     o.DropoffAddress,
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}
}
