package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/doordash"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/payments"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/webhook"
)

const maxWebhookBody = 1 << 20

const (
	sourceIdentity = "identity"
	sourcePayments = "payments"
	sourceDelivery = "delivery"
)

// IdentityVerifier checks the signing headers of an identity-provider webhook
type IdentityVerifier interface {
	Verify(body []byte, h webhook.Headers) error
}

// WebhookRecorder counts webhook outcomes; may be nil
type WebhookRecorder interface {
	Webhook(source, outcome string)
}

type WebhookHandler interface {
	Identity(w http.ResponseWriter, r *http.Request)
	Payments(w http.ResponseWriter, r *http.Request)
	Delivery(w http.ResponseWriter, r *http.Request)
}

type webhookHandlerImpl struct {
	identityVerifier IdentityVerifier
	userService      user.UserService
	reconciler       payment.ReconcilerService
	deliveryService  delivery.DeliveryService
	recorder         WebhookRecorder
}

func NewWebhookHandler(
	identityVerifier IdentityVerifier,
	userService user.UserService,
	reconciler payment.ReconcilerService,
	deliveryService delivery.DeliveryService,
	recorder WebhookRecorder,
) WebhookHandler {
	return &webhookHandlerImpl{
		identityVerifier: identityVerifier,
		userService:      userService,
		reconciler:       reconciler,
		deliveryService:  deliveryService,
		recorder:         recorder,
	}
}

func (h *webhookHandlerImpl) record(source, outcome string) {
	if h.recorder != nil {
		h.recorder.Webhook(source, outcome)
	}
}

func (h *webhookHandlerImpl) fail(w http.ResponseWriter, source string, err error) {
	outcome := "error"
	if isSignatureError(err) {
		outcome = "rejected"
	}
	slog.Warn("webhook failed", "source", source, "outcome", outcome, "error", err)
	h.record(source, outcome)
	response.HandleError(w, err)
}

func isSignatureError(err error) bool {
	for _, target := range []error{
		payment.ErrInvalidSignature,
		payment.ErrSignatureExpired,
		delivery.ErrInvalidSignature,
		webhook.ErrMissingHeaders,
		webhook.ErrInvalidSignature,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Unreadable request body", nil)
		return nil, false
	}
	return body, true
}

// Identity mirrors user.created, user.updated and user.deleted; other types are acknowledged and ignored
func (h *webhookHandlerImpl) Identity(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	if err := h.identityVerifier.Verify(body, webhook.HeadersFromRequest(r)); err != nil {
		h.fail(w, sourceIdentity, err)
		return
	}

	event, err := webhook.ParseEvent(body)
	if err != nil {
		h.record(sourceIdentity, "malformed")
		response.BadRequest(w, err.Error(), nil)
		return
	}

	switch event.Type {
	case webhook.EventUserCreated, webhook.EventUserUpdated:
		data, err := event.User()
		if err != nil {
			h.record(sourceIdentity, "malformed")
			response.BadRequest(w, err.Error(), nil)
			return
		}
		if _, err := h.userService.SyncFromIdentity(r.Context(), data.Profile()); err != nil {
			h.fail(w, sourceIdentity, err)
			return
		}

	case webhook.EventUserDeleted:
		data, err := event.User()
		if err != nil {
			h.record(sourceIdentity, "malformed")
			response.BadRequest(w, err.Error(), nil)
			return
		}
		if err := h.userService.DeleteFromIdentity(r.Context(), data.ID); err != nil {
			h.fail(w, sourceIdentity, err)
			return
		}

	default:
		slog.Debug("ignoring identity event", "type", event.Type)
		h.record(sourceIdentity, "ignored")
		response.SuccessWithMessage(w, "Event ignored", nil)
		return
	}

	h.record(sourceIdentity, "processed")
	response.SuccessWithMessage(w, "Event processed", nil)
}

func (h *webhookHandlerImpl) Payments(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	if err := h.reconciler.HandleWebhook(r.Context(), body, r.Header.Get(payments.SignatureHeader)); err != nil {
		h.fail(w, sourcePayments, err)
		return
	}

	h.record(sourcePayments, "processed")
	response.SuccessWithMessage(w, "Event processed", nil)
}

func (h *webhookHandlerImpl) Delivery(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	if err := h.deliveryService.HandleWebhook(r.Context(), body, r.Header.Get(doordash.SignatureHeader)); err != nil {
		h.fail(w, sourceDelivery, err)
		return
	}

	h.record(sourceDelivery, "processed")
	response.SuccessWithMessage(w, "Event processed", nil)
}
