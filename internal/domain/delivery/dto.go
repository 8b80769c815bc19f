package delivery

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// QuoteInput for POST /delivery/quote; pickup defaults to the configured kitchen
type QuoteInput struct {
	Pickup     *Location       `json:"pickup,omitempty"`
	Dropoff    Location        `json:"dropoff"`
	OrderValue decimal.Decimal `json:"order_value"`
}

func (r *QuoteInput) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Dropoff.Address) {
		errs.Add("dropoff.address", "dropoff address is required")
	}
	if !validator.IsEmpty(r.Dropoff.PhoneNumber) && !validator.IsValidPhoneNumber(r.Dropoff.PhoneNumber) {
		errs.Add("dropoff.phone_number", "phone_number must be in E.164 format")
	}
	if r.Pickup != nil && validator.IsEmpty(r.Pickup.Address) {
		errs.Add("pickup.address", "pickup address must not be empty")
	}
	if r.OrderValue.IsNegative() {
		errs.Add("order_value", "order_value must not be negative")
	}

	return errs.Err()
}

type QuoteResponse struct {
	QuoteID  string          `json:"quote_id"`
	Fee      decimal.Decimal `json:"fee"`
	Currency string          `json:"currency"`
	ETA      *string         `json:"eta,omitempty"`
}

type DeliveryResponse struct {
	OrderID            string  `json:"order_id"`
	ExternalDeliveryID string  `json:"external_delivery_id"`
	Status             string  `json:"status"`
	TrackingURL        *string `json:"tracking_url,omitempty"`
	// Stale is true when the provider could not be reached and the last known status is returned
	Stale bool `json:"stale"`
}

type CancelResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func ToQuoteResponse(q Quote) QuoteResponse {
	resp := QuoteResponse{QuoteID: q.QuoteID, Fee: q.Fee, Currency: q.Currency}
	if q.ETA != nil {
		s := q.ETA.Format(time.RFC3339)
		resp.ETA = &s
	}
	return resp
}
