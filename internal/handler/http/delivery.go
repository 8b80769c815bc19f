package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

type DeliveryHandler interface {
	Quote(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type deliveryHandlerImpl struct {
	deliveryService delivery.DeliveryService
}

func NewDeliveryHandler(deliveryService delivery.DeliveryService) DeliveryHandler {
	return &deliveryHandlerImpl{deliveryService: deliveryService}
}

func (h *deliveryHandlerImpl) Quote(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req delivery.QuoteInput
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.deliveryService.Quote(r.Context(), u, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *deliveryHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.deliveryService.CreateForOrder(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Delivery requested", result)
}

func (h *deliveryHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.deliveryService.GetStatus(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *deliveryHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.deliveryService.Cancel(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Delivery cancelled", result)
}
