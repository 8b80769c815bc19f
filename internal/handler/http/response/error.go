package response

import (
	"errors"
	"net/http"

	"github.com/groupmeal/groupmeal-backend/internal/domain/cart"
	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/webhook"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorTable is matched in order with errors.Is; the sentinel's text becomes the client message
var errorTable = []errorMapping{
	// 401
	{user.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
	{payment.ErrInvalidSignature, http.StatusUnauthorized, "INVALID_SIGNATURE"},
	{payment.ErrSignatureExpired, http.StatusUnauthorized, "INVALID_SIGNATURE"},
	{delivery.ErrInvalidSignature, http.StatusUnauthorized, "INVALID_SIGNATURE"},
	{webhook.ErrMissingHeaders, http.StatusUnauthorized, "INVALID_SIGNATURE"},
	{webhook.ErrInvalidSignature, http.StatusUnauthorized, "INVALID_SIGNATURE"},

	// 403
	{user.ErrAdminPrivilegeRequired, http.StatusForbidden, "FORBIDDEN"},
	{user.ErrManagerAccessRequired, http.StatusForbidden, "FORBIDDEN"},
	{user.ErrCannotChangeOwnRole, http.StatusForbidden, "FORBIDDEN"},
	{user.ErrCompanyIDRequired, http.StatusForbidden, "COMPANY_REQUIRED"},
	{company.ErrNotCompanyMember, http.StatusForbidden, "FORBIDDEN"},
	{company.ErrCompanyManageDenied, http.StatusForbidden, "FORBIDDEN"},
	{invitation.ErrNotInvitationOwner, http.StatusForbidden, "FORBIDDEN"},
	{invitation.ErrIssueForbidden, http.StatusForbidden, "FORBIDDEN"},
	{invitation.ErrCompanyMismatch, http.StatusForbidden, "FORBIDDEN"},
	{session.ErrCreateForbidden, http.StatusForbidden, "FORBIDDEN"},
	{session.ErrManageForbidden, http.StatusForbidden, "FORBIDDEN"},
	{order.ErrOrderAccessDenied, http.StatusForbidden, "FORBIDDEN"},
	{order.ErrClearForbidden, http.StatusForbidden, "FORBIDDEN"},

	// 404
	{user.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
	{company.ErrCompanyNotFound, http.StatusNotFound, "NOT_FOUND"},
	{invitation.ErrInvitationNotFound, http.StatusNotFound, "NOT_FOUND"},
	{invitation.ErrInvalidCode, http.StatusNotFound, "INVALID_CODE"},
	{session.ErrSessionNotFound, http.StatusNotFound, "NOT_FOUND"},
	{session.ErrParticipantNotFound, http.StatusNotFound, "NOT_FOUND"},
	{order.ErrOrderNotFound, http.StatusNotFound, "NOT_FOUND"},
	{delivery.ErrDeliveryNotFound, http.StatusNotFound, "NOT_FOUND"},
	{delivery.ErrNoDelivery, http.StatusNotFound, "NOT_FOUND"},
	{menu.ErrRestaurantNotFound, http.StatusNotFound, "NOT_FOUND"},
	{menu.ErrPlaceNotFound, http.StatusNotFound, "NOT_FOUND"},
	{cart.ErrLineNotFound, http.StatusNotFound, "NOT_FOUND"},

	// 400
	{user.ErrInvalidRole, http.StatusBadRequest, "INVALID_INPUT"},
	{company.ErrInvalidCompanyName, http.StatusBadRequest, "INVALID_INPUT"},
	{invitation.ErrInvitationExpired, http.StatusBadRequest, "INVITATION_EXPIRED"},
	{invitation.ErrMaxUsesReached, http.StatusBadRequest, "INVITATION_EXHAUSTED"},
	{session.ErrInvalidTimeRange, http.StatusBadRequest, "INVALID_INPUT"},
	{session.ErrPresetOrderRequired, http.StatusBadRequest, "INVALID_INPUT"},
	{session.ErrNoParticipants, http.StatusBadRequest, "NO_PARTICIPANTS"},
	{order.ErrEmptyOrder, http.StatusBadRequest, "INVALID_INPUT"},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_INPUT"},
	{delivery.ErrInvalidAddress, http.StatusBadRequest, "INVALID_ADDRESS"},
	{delivery.ErrMalformedEvent, http.StatusBadRequest, "MALFORMED_EVENT"},
	{payment.ErrMalformedEvent, http.StatusBadRequest, "MALFORMED_EVENT"},
	{menu.ErrScrapeFailed, http.StatusBadRequest, "SCRAPE_FAILED"},

	// 409
	{company.ErrUserAlreadyHasCompany, http.StatusConflict, "CONFLICT"},
	{invitation.ErrAlreadyRedeemed, http.StatusConflict, "ALREADY_REDEEMED"},
	{session.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{session.ErrSessionClosed, http.StatusConflict, "SESSION_CLOSED"},
	{order.ErrOrderNotPaid, http.StatusConflict, "ORDER_NOT_PAID"},
	{delivery.ErrDuplicateDelivery, http.StatusConflict, "CONFLICT"},
	{delivery.ErrNotCancelable, http.StatusConflict, "NOT_CANCELABLE"},
	{cart.ErrRestaurantMismatch, http.StatusConflict, "RESTAURANT_MISMATCH"},
}

// HandleError maps domain errors to HTTP responses. Anything unmapped is an upstream failure and keeps its message.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, m.target.Error(), nil)
			return
		}
	}

	Upstream(w, err)
}
