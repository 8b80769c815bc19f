package doordash

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = base64.RawURLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.DeliveryConfig{
		BaseURL:       srv.URL,
		DeveloperID:   "dev-1",
		KeyID:         "key-1",
		SigningSecret: testSecret,
	})
	require.NoError(t, err)
	return c
}

func TestTokenShape(t *testing.T) {
	ts, err := NewTokenSource("dev-1", "key-1", testSecret)
	require.NoError(t, err)
	now := time.Now()
	ts.now = func() time.Time { return now }

	signed, err := ts.Token()
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, func(tok *jwt.Token) (interface{}, error) {
		return []byte("0123456789abcdef0123456789abcdef"), nil
	}, jwt.WithAudience("doordash"), jwt.WithIssuer("dev-1"))
	require.NoError(t, err)

	assert.Equal(t, "key-1", parsed.Header["kid"])
	assert.Equal(t, "DD-JWT-V1", parsed.Header["dd-ver"])
	exp, err := parsed.Claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute).Unix(), exp.Unix())

	again, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, signed, again)

	ts.now = func() time.Time { return now.Add(29*time.Minute + 30*time.Second) }
	fresh, err := ts.Token()
	require.NoError(t, err)
	assert.NotEqual(t, signed, fresh)
}

func TestQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drive/v2/quotes", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ext-1", body["external_delivery_id"])
		assert.Equal(t, float64(2500), body["order_value"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"external_delivery_id":"ext-1","currency":"USD","delivery_status":"quote","fee":975}`))
	})

	q, err := c.Quote(context.Background(), delivery.QuoteRequest{
		ExternalDeliveryID: "ext-1",
		Pickup:             delivery.Location{Address: "1 Kitchen St"},
		Dropoff:            delivery.Location{Address: "2 Office Ave"},
		OrderValue:         decimal.RequireFromString("25.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ext-1", q.QuoteID)
	assert.True(t, decimal.RequireFromString("9.75").Equal(q.Fee))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"address", 400, `{"code":"validation_error","message":"bad","field_errors":[{"field":"dropoff_address","error":"invalid"}]}`, delivery.ErrInvalidAddress},
		{"distance", 422, `{"code":"distance_too_long","message":"too far"}`, delivery.ErrInvalidAddress},
		{"duplicate", 409, `{"code":"duplicate_delivery_id","message":"dup"}`, delivery.ErrDuplicateDelivery},
		{"not found", 404, `{"code":"not_found","message":"nope"}`, delivery.ErrDeliveryNotFound},
		{"server", 503, `{"code":"service_unavailable","message":"down"}`, delivery.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Create(context.Background(), delivery.CreateRequest{ExternalDeliveryID: "ext-1"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetMapsStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drive/v2/deliveries/ext-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"external_delivery_id":"ext-1","delivery_status":"picked_up","tracking_url":"https://track/1"}`))
	})

	d, err := c.Get(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, order.DeliveryPickedUp, d.Status)
	assert.Equal(t, "https://track/1", d.TrackingURL)
}

func TestCancelNotCancelable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"code":"cannot_be_cancelled","message":"already picked up"}`))
	})

	_, err := c.Cancel(context.Background(), "ext-1")
	assert.ErrorIs(t, err, delivery.ErrNotCancelable)
}
