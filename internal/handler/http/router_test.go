package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/jwt"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/payments"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/sse"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/webhook"
	"github.com/groupmeal/groupmeal-backend/internal/repository/memory"
	cartService "github.com/groupmeal/groupmeal-backend/internal/service/cart"
	companyService "github.com/groupmeal/groupmeal-backend/internal/service/company"
	invitationService "github.com/groupmeal/groupmeal-backend/internal/service/invitation"
	paymentService "github.com/groupmeal/groupmeal-backend/internal/service/payment"
	"github.com/groupmeal/groupmeal-backend/internal/service/servicetest"
	sessionService "github.com/groupmeal/groupmeal-backend/internal/service/session"
	userService "github.com/groupmeal/groupmeal-backend/internal/service/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paymentSecret = "whsec_test"

type stubOrders struct{ order.OrderService }

type stubDeliveries struct {
	delivery.DeliveryService
	webhookErr error
}

func (s *stubDeliveries) HandleWebhook(context.Context, []byte, string) error {
	return s.webhookErr
}

type stubMenus struct{ menu.MenuService }

func (stubMenus) HasMenu(_ context.Context, placeID string) bool { return placeID == "ChIJknown" }

func (stubMenus) GetMenu(context.Context, string) (*menu.Document, error) { return nil, nil }

func (stubMenus) ScrapeMenu(_ context.Context, req menu.ScrapeRequest) (*menu.Document, error) {
	return &menu.Document{RestaurantName: req.Name, Success: true, Source: menu.SourceScrape}, nil
}

type countingRecorder struct{ counts map[string]int }

func (c *countingRecorder) Webhook(source, outcome string) {
	c.counts[source+"/"+outcome]++
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	router   *chi.Mux
	store    *servicetest.Store
	jwt      jwt.Service
	hub      *sse.Hub
	identity *webhook.Verifier
	recorder *countingRecorder
	health   map[string]HealthCheck

	companyID string
	manager   user.User
	employee  user.User
	admin     user.User
	orphan    user.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := servicetest.NewStore()
	kv := memory.NewStore()
	hub := sse.NewHub()
	jwtSvc := jwt.NewJWTService("test-secret")

	identity, err := webhook.NewVerifier("whsec_" + base64.StdEncoding.EncodeToString([]byte("identity-secret")))
	require.NoError(t, err)

	c := store.SeedCompany("Acme")
	ts := &testServer{
		store:     store,
		jwt:       jwtSvc,
		hub:       hub,
		identity:  identity,
		recorder:  &countingRecorder{counts: map[string]int{}},
		health:    map[string]HealthCheck{"db": func(context.Context) error { return nil }},
		companyID: c.ID,
		manager:   store.SeedUser(user.User{Email: "mona@acme.test", DisplayName: "Mona", Role: user.RoleManager, CompanyID: &c.ID}),
		employee:  store.SeedUser(user.User{Email: "eli@acme.test", DisplayName: "Eli", Role: user.RoleEmployee, CompanyID: &c.ID}),
		admin:     store.SeedUser(user.User{Email: "root@acme.test", DisplayName: "Ada", Role: user.RoleAdmin, CompanyID: &c.ID}),
		orphan:    store.SeedUser(user.User{Email: "solo@example.test", DisplayName: "Sol", Role: user.RoleEmployee}),
	}

	users := userService.NewUserService(store.Users(), store.Companies())
	reconciler := paymentService.NewReconcilerService(
		store,
		store.Orders(),
		store.PaymentIntents(),
		store.PaymentDisputes(),
		store.DeliveryIntentOutbox(),
		payments.NewSignatureVerifier(paymentSecret),
		memory.NewEventDeduper(kv, time.Hour),
	)
	deliveries := &stubDeliveries{}

	h := Handlers{
		User:    NewUserHandler(users),
		Company: NewCompanyHandler(companyService.NewCompanyService(store, store.Companies(), store.Users())),
		Invitation: NewInvitationHandler(invitationService.NewInvitationService(
			store, store.Invitations(), store.Companies(), store.Users(),
			invitationService.NewSequenceCodeGenerator(store.Invitations()),
		)),
		Session:  NewSessionHandler(sessionService.NewSessionService(store, store.Sessions(), store.SessionParticipants(), store.Users(), hub), jwtSvc, hub),
		Order:    NewOrderHandler(stubOrders{}),
		Delivery: NewDeliveryHandler(deliveries),
		Menu:     NewMenuHandler(stubMenus{}),
		Cart:     NewCartHandler(cartService.NewCartService(kv)),
		Webhook:  NewWebhookHandler(identity, users, reconciler, deliveries, ts.recorder),
		Health: NewHealthHandler(map[string]HealthCheck{
			"db": func(ctx context.Context) error { return ts.health["db"](ctx) },
		}),
	}

	ts.router = NewRouter(config.AppConfig{Env: "test", AllowedOrigins: []string{"http://localhost:3000"}}, jwtSvc, users, nil, h)
	return ts
}

func (s *testServer) token(t *testing.T, u user.User) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(user.IdentityProfile{ExternalID: u.ExternalID, Email: u.Email, DisplayName: u.DisplayName}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	s.health["db"] = func(context.Context) error { return errors.New("connection refused") }
	rec, env = s.do(t, http.MethodGet, "/api/v1/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Code)
	assert.Equal(t, "connection refused", env.Details["db"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
	assert.NotEmpty(t, env.Error)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/me", nil, s.token(t, s.employee))
	require.Equal(t, http.StatusOK, rec.Code)

	var me user.MeResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, s.employee.ID, me.User.ID)
	require.NotNil(t, me.CompanyName)
	assert.Equal(t, "Acme", *me.CompanyName)
}

func TestAuthProvisionsUnknownSubject(t *testing.T) {
	s := newTestServer(t)

	tok, err := s.jwt.GenerateToken(user.IdentityProfile{ExternalID: "user_new", Email: "new@example.test", DisplayName: "Newt"}, time.Hour)
	require.NoError(t, err)

	rec, env := s.do(t, http.MethodGet, "/api/v1/users/me", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var me user.MeResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "user_new", me.User.ExternalID)
	assert.Equal(t, "employee", me.User.Role)
	assert.Nil(t, me.User.CompanyID)
}

func TestSessionsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	now := time.Now().UTC()

	body := map[string]interface{}{
		"restaurant_name": "Noodle Bar",
		"start_time":      now.Add(-time.Minute).Format(time.RFC3339),
		"end_time":        now.Add(time.Hour).Format(time.RFC3339),
		"start_now":       true,
	}

	rec, env := s.do(t, http.MethodPost, "/api/v1/sessions", body, s.token(t, s.employee))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/sessions", body, s.token(t, s.admin))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/sessions", body, s.token(t, s.manager))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		Participants []struct {
			UserID string `json:"user_id"`
		} `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "active", created.Status)
	assert.Len(t, created.Participants, 3)

	rec, env = s.do(t, http.MethodGet, "/api/v1/sessions/current", nil, s.token(t, s.employee))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), created.ID)

	rec, env = s.do(t, http.MethodPost, "/api/v1/sessions/"+created.ID+"/respond", map[string]string{"status": "ordered"}, s.token(t, s.employee))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"status":"ordered"`)

	rec, env = s.do(t, http.MethodPatch, "/api/v1/sessions/"+created.ID, map[string]string{"status": "upcoming"}, s.token(t, s.manager))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/sessions/"+created.ID, nil, s.token(t, s.employee))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/sessions/"+created.ID, nil, s.token(t, s.manager))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/sessions/"+created.ID, nil, s.token(t, s.manager))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestSessionCurrentEmpty(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/sessions/current", nil, s.token(t, s.employee))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session":null}`, string(env.Data))
}

func TestValidationErrorsCarryDetails(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"end_time": "tomorrow"}, s.token(t, s.manager))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
	assert.Equal(t, "Validation failed", env.Error)
	assert.Contains(t, env.Details, "restaurant_name")
	assert.Contains(t, env.Details, "end_time")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+s.token(t, s.manager))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BAD_REQUEST"`)
}

func TestCompanyRequired(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/sessions", nil, s.token(t, s.orphan))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "COMPANY_REQUIRED", env.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/me", nil, s.token(t, s.orphan))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateRoleIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	path := "/api/v1/users/" + s.employee.ID + "/role"

	rec, env := s.do(t, http.MethodPut, path, map[string]string{"role": "manager"}, s.token(t, s.manager))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, user.ErrAdminPrivilegeRequired.Error(), env.Error)

	rec, env = s.do(t, http.MethodPut, path, map[string]string{"role": "manager"}, s.token(t, s.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"role":"manager"`)

	rec, env = s.do(t, http.MethodPut, "/api/v1/users/"+s.admin.ID+"/role", map[string]string{"role": "employee"}, s.token(t, s.admin))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, user.ErrCannotChangeOwnRole.Error(), env.Error)
}

func TestInvitationIssueAndRedeem(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/invitations", map[string]string{"company_id": s.companyID, "company_name": "Acme"}, s.token(t, s.employee))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/v1/invitations", map[string]string{"company_id": s.companyID, "company_name": "Acme"}, s.token(t, s.manager))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var inv struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	require.NotEmpty(t, inv.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/invitations/"+inv.Code, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/invitations/redeem", map[string]string{"code": inv.Code}, s.token(t, s.orphan))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodPost, "/api/v1/invitations/redeem", map[string]string{"code": inv.Code}, s.token(t, s.orphan))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_REDEEMED", env.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/sessions", nil, s.token(t, s.orphan))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartOverHTTP(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, s.employee)

	item := map[string]interface{}{
		"restaurant_id":   "r1",
		"restaurant_name": "Noodle Bar",
		"item_id":         "ramen",
		"name":            "Ramen",
		"quantity":        2,
		"unit_price":      "11.50",
	}
	rec, env := s.do(t, http.MethodPost, "/api/v1/cart/items", item, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"subtotal":"23"`)

	item["restaurant_id"] = "r2"
	rec, env = s.do(t, http.MethodPost, "/api/v1/cart/items", item, tok)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESTAURANT_MISMATCH", env.Code)

	rec, env = s.do(t, http.MethodDelete, "/api/v1/cart/items/missing", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/cart", nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/cart", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"lines":[]`)
}

func TestMenuRoutes(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, s.employee)

	rec, env := s.do(t, http.MethodGet, "/api/v1/menus/ChIJknown/exists", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"place_id":"ChIJknown","has_menu":true}`, string(env.Data))

	rec, env = s.do(t, http.MethodGet, "/api/v1/menus/ChIJnothing", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"place_id":"ChIJnothing","menu":null}`, string(env.Data))

	scrape := map[string]string{"url": "https://noodles.example.com/menu", "name": "Noodle Bar"}
	rec, env = s.do(t, http.MethodPost, "/api/v1/menus/scrape", scrape, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/menus/scrape", scrape, s.token(t, s.manager))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"restaurant_name":"Noodle Bar"`)
}

func (s *testServer) identityRequest(t *testing.T, body []byte, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/identity", bytes.NewReader(body))
	now := time.Now()
	req.Header.Set("webhook-id", "msg_1")
	req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	if sign {
		sig, err := s.identity.Sign("msg_1", now, body)
		require.NoError(t, err)
		req.Header.Set("webhook-signature", sig)
	} else {
		req.Header.Set("webhook-signature", "v1,forged")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestIdentityWebhook(t *testing.T) {
	s := newTestServer(t)

	created := []byte(`{"type":"user.created","data":{"id":"user_hook","first_name":"Hana","email_addresses":[{"id":"e1","email_address":"hana@example.test"}],"primary_email_address_id":"e1"}}`)

	rec := s.identityRequest(t, created, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, s.recorder.counts["identity/rejected"])

	rec = s.identityRequest(t, created, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := s.store.Users().GetByExternalID(context.Background(), "user_hook")
	require.NoError(t, err)
	assert.Equal(t, "hana@example.test", u.Email)
	assert.Equal(t, "Hana", u.DisplayName)

	rec = s.identityRequest(t, []byte(`{"type":"session.created","data":{}}`), true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.recorder.counts["identity/ignored"])

	rec = s.identityRequest(t, []byte(`{"type":"user.deleted","data":{"id":"user_hook","deleted":true}}`), true)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = s.store.Users().GetByExternalID(context.Background(), "user_hook")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestPaymentWebhookSignature(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_unknown"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(body))
	req.Header.Set(payments.SignatureHeader, "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INVALID_SIGNATURE"`)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(body))
	req.Header.Set(payments.SignatureHeader, payments.NewSignatureVerifier(paymentSecret).Sign(body, time.Now()))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.recorder.counts["payments/processed"])
}

func TestSessionStream(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/sessions/events", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a bearer token is not a stream token
	rec, _ = s.do(t, http.MethodGet, "/api/v1/sessions/events?token="+s.token(t, s.employee), nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/v1/sessions/events/token", nil, s.token(t, s.employee))
	require.Equal(t, http.StatusOK, rec.Code)
	var tok struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	assert.Equal(t, 300, tok.ExpiresIn)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/sessions/events?token="+tok.Token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		require.True(t, lines.Scan())
		return lines.Text()
	}

	assert.Equal(t, "event: connected", next())
	next() // data
	next() // blank

	s.hub.Publish(s.companyID, sse.Event{Event: "session.updated", Data: map[string]string{"id": "s1"}})
	assert.Equal(t, "event: session.updated", next())
	assert.Equal(t, `data: {"id":"s1"}`, next())
}
