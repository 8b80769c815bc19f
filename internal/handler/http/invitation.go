package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

type InvitationHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	// Preview shows what a code grants without consuming it
	Preview(w http.ResponseWriter, r *http.Request)
	Redeem(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type invitationHandlerImpl struct {
	invitationService invitation.InvitationService
}

func NewInvitationHandler(invitationService invitation.InvitationService) InvitationHandler {
	return &invitationHandlerImpl{
		invitationService: invitationService,
	}
}

func (h *invitationHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req invitation.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.invitationService.Create(r.Context(), u, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Invitation created", result)
}

func (h *invitationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	results, err := h.invitationService.ListByCompany(r.Context(), u)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func (h *invitationHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "ref")
	if code == "" {
		response.BadRequest(w, "Code is required", nil)
		return
	}

	result, err := h.invitationService.Preview(r.Context(), code)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *invitationHandlerImpl) Redeem(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req invitation.RedeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.invitationService.Redeem(r.Context(), req.Code, u)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invitation redeemed", result)
}

func (h *invitationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.invitationService.Delete(r.Context(), chi.URLParam(r, "ref"), u); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invitation deleted", nil)
}
