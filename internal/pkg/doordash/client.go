package doordash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// Client implements delivery.Provider against the Drive v2 API
type Client struct {
	http   *resty.Client
	tokens *TokenSource
}

func NewClient(cfg config.DeliveryConfig) (*Client, error) {
	tokens, err := NewTokenSource(cfg.DeveloperID, cfg.KeyID, cfg.SigningSecret)
	if err != nil {
		return nil, err
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: c, tokens: tokens}, nil
}

// APIError is the provider's error envelope
type APIError struct {
	StatusCode  int          `json:"-"`
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
}

type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("delivery API error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) isAddressProblem() bool {
	if strings.Contains(e.Code, "address") || e.Code == "distance_too_long" {
		return true
	}
	for _, fe := range e.FieldErrors {
		if strings.Contains(fe.Field, "address") {
			return true
		}
	}
	return false
}

type deliveryBody struct {
	ExternalDeliveryID      string `json:"external_delivery_id"`
	PickupAddress           string `json:"pickup_address"`
	PickupBusinessName      string `json:"pickup_business_name,omitempty"`
	PickupPhoneNumber       string `json:"pickup_phone_number,omitempty"`
	PickupInstructions      string `json:"pickup_instructions,omitempty"`
	DropoffAddress          string `json:"dropoff_address"`
	DropoffBusinessName     string `json:"dropoff_business_name,omitempty"`
	DropoffPhoneNumber      string `json:"dropoff_phone_number,omitempty"`
	DropoffContactGivenName string `json:"dropoff_contact_given_name,omitempty"`
	DropoffInstructions     string `json:"dropoff_instructions,omitempty"`
	OrderValue              int64  `json:"order_value"`
}

type deliveryResponse struct {
	ExternalDeliveryID   string     `json:"external_delivery_id"`
	Currency             string     `json:"currency"`
	DeliveryStatus       string     `json:"delivery_status"`
	Fee                  int64      `json:"fee"`
	TrackingURL          string     `json:"tracking_url"`
	PickupTimeActual     *time.Time `json:"pickup_time_actual,omitempty"`
	DropoffTimeEstimated *time.Time `json:"dropoff_time_estimated,omitempty"`
	DropoffTimeActual    *time.Time `json:"dropoff_time_actual,omitempty"`
}

func toBody(id string, pickup, dropoff delivery.Location, value decimal.Decimal) deliveryBody {
	return deliveryBody{
		ExternalDeliveryID:      id,
		PickupAddress:           pickup.Address,
		PickupBusinessName:      pickup.BusinessName,
		PickupPhoneNumber:       pickup.PhoneNumber,
		PickupInstructions:      pickup.Instructions,
		DropoffAddress:          dropoff.Address,
		DropoffBusinessName:     dropoff.BusinessName,
		DropoffPhoneNumber:      dropoff.PhoneNumber,
		DropoffContactGivenName: dropoff.ContactName,
		DropoffInstructions:     dropoff.Instructions,
		OrderValue:              payment.ToMinorUnits(value),
	}
}

func (r deliveryResponse) toDelivery() delivery.Delivery {
	d := delivery.Delivery{
		ExternalDeliveryID: r.ExternalDeliveryID,
		TrackingURL:        r.TrackingURL,
		Fee:                payment.FromMinorUnits(r.Fee),
		PickupTime:         r.PickupTimeActual,
		DropoffTime:        r.DropoffTimeActual,
	}
	if st, ok := delivery.ParseProviderStatus(r.DeliveryStatus); ok {
		d.Status = st
	}
	return d
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (deliveryResponse, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return deliveryResponse{}, err
	}

	var out deliveryResponse
	apiErr := &APIError{}
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return deliveryResponse{}, fmt.Errorf("%w: %v", delivery.ErrProviderUnavailable, err)
	}
	if !resp.IsError() {
		return out, nil
	}

	apiErr.StatusCode = resp.StatusCode()
	slog.Warn("delivery provider returned error", "method", method, "path", path, "status", apiErr.StatusCode, "code", apiErr.Code)

	switch {
	case apiErr.StatusCode >= 500 || apiErr.StatusCode == 429:
		return deliveryResponse{}, fmt.Errorf("%w: %v", delivery.ErrProviderUnavailable, apiErr)
	case apiErr.StatusCode == 409 && apiErr.Code == "duplicate_delivery_id":
		return deliveryResponse{}, fmt.Errorf("%w: %v", delivery.ErrDuplicateDelivery, apiErr)
	case apiErr.StatusCode == 404:
		return deliveryResponse{}, fmt.Errorf("%w: %v", delivery.ErrDeliveryNotFound, apiErr)
	case apiErr.isAddressProblem():
		return deliveryResponse{}, fmt.Errorf("%w: %v", delivery.ErrInvalidAddress, apiErr)
	}
	return deliveryResponse{}, apiErr
}

func (c *Client) Quote(ctx context.Context, req delivery.QuoteRequest) (delivery.Quote, error) {
	out, err := c.do(ctx, resty.MethodPost, "/drive/v2/quotes", toBody(req.ExternalDeliveryID, req.Pickup, req.Dropoff, req.OrderValue))
	if err != nil {
		return delivery.Quote{}, err
	}
	return delivery.Quote{
		QuoteID:  out.ExternalDeliveryID,
		Fee:      payment.FromMinorUnits(out.Fee),
		Currency: out.Currency,
		ETA:      out.DropoffTimeEstimated,
	}, nil
}

func (c *Client) Create(ctx context.Context, req delivery.CreateRequest) (delivery.Delivery, error) {
	out, err := c.do(ctx, resty.MethodPost, "/drive/v2/deliveries", toBody(req.ExternalDeliveryID, req.Pickup, req.Dropoff, req.OrderValue))
	if err != nil {
		return delivery.Delivery{}, err
	}
	return out.toDelivery(), nil
}

func (c *Client) Get(ctx context.Context, externalDeliveryID string) (delivery.Delivery, error) {
	out, err := c.do(ctx, resty.MethodGet, "/drive/v2/deliveries/"+url.PathEscape(externalDeliveryID), nil)
	if err != nil {
		return delivery.Delivery{}, err
	}
	return out.toDelivery(), nil
}

func (c *Client) Cancel(ctx context.Context, externalDeliveryID string) (delivery.Delivery, error) {
	out, err := c.do(ctx, resty.MethodPut, "/drive/v2/deliveries/"+url.PathEscape(externalDeliveryID)+"/cancel", nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 400 {
			return delivery.Delivery{}, fmt.Errorf("%w: %v", delivery.ErrNotCancelable, apiErr)
		}
		return delivery.Delivery{}, err
	}
	return out.toDelivery(), nil
}
