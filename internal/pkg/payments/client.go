package payments

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
)

// Client talks to the payment processor REST API
type Client struct {
	http     *resty.Client
	currency string
}

func NewClient(cfg config.PaymentConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: c, currency: cfg.Currency}
}

// APIError is the processor's error envelope
type APIError struct {
	StatusCode int          `json:"-"`
	Body       apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment API error [%d] %s: %s", e.StatusCode, e.Body.Code, e.Body.Message)
}

type intentResponse struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

func (c *Client) CreateIntent(ctx context.Context, params payment.CreateIntentParams) (payment.ProviderIntent, error) {
	currency := params.Currency
	if currency == "" {
		currency = c.currency
	}

	form := map[string]string{
		"amount":                             strconv.FormatInt(payment.ToMinorUnits(params.Amount), 10),
		"currency":                           currency,
		"automatic_payment_methods[enabled]": "true",
		"metadata[order_id]":                 params.OrderID,
	}
	if params.Description != "" {
		form["description"] = params.Description
	}
	for k, v := range params.Metadata {
		form["metadata["+k+"]"] = v
	}

	var out intentResponse
	apiErr := &APIError{}
	req := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		SetError(apiErr)
	if params.IdempotencyKey != "" {
		req.SetHeader("Idempotency-Key", params.IdempotencyKey)
	}

	resp, err := req.Post("/v1/payment_intents")
	if err != nil {
		return payment.ProviderIntent{}, fmt.Errorf("%w: %v", payment.ErrProviderUnreachable, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if resp.StatusCode() >= 500 {
			return payment.ProviderIntent{}, fmt.Errorf("%w: %v", payment.ErrProviderUnreachable, apiErr)
		}
		return payment.ProviderIntent{}, fmt.Errorf("%w: %v", payment.ErrProviderRejected, apiErr)
	}

	return payment.ProviderIntent{
		ID:           out.ID,
		ClientSecret: out.ClientSecret,
		Status:       payment.IntentStatus(out.Status),
		Amount:       payment.FromMinorUnits(out.Amount),
		Currency:     out.Currency,
	}, nil
}
