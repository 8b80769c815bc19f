package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

type OrderHandler interface {
	Checkout(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	// ClearAll is the admin bulk clear
	ClearAll(w http.ResponseWriter, r *http.Request)
}

type orderHandlerImpl struct {
	orderService order.OrderService
}

func NewOrderHandler(orderService order.OrderService) OrderHandler {
	return &orderHandlerImpl{orderService: orderService}
}

func (h *orderHandlerImpl) Checkout(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req order.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.orderService.Checkout(r.Context(), u, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Order created", result)
}

func (h *orderHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	results, err := h.orderService.ListMine(r.Context(), u)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func (h *orderHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.orderService.GetByID(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *orderHandlerImpl) ClearAll(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.orderService.ClearAll(r.Context(), u)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Orders cleared", result)
}
