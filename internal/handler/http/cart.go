package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/cart"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

type CartHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	AddItem(w http.ResponseWriter, r *http.Request)
	UpdateItem(w http.ResponseWriter, r *http.Request)
	RemoveItem(w http.ResponseWriter, r *http.Request)
	Clear(w http.ResponseWriter, r *http.Request)
}

type cartHandlerImpl struct {
	cartService cart.CartService
}

func NewCartHandler(cartService cart.CartService) CartHandler {
	return &cartHandlerImpl{cartService: cartService}
}

func (h *cartHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.cartService.Get(r.Context(), u.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *cartHandlerImpl) AddItem(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req cart.AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.cartService.AddItem(r.Context(), u.ID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *cartHandlerImpl) UpdateItem(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req cart.UpdateQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.cartService.UpdateQuantity(r.Context(), u.ID, chi.URLParam(r, "itemKey"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *cartHandlerImpl) RemoveItem(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.cartService.RemoveItem(r.Context(), u.ID, chi.URLParam(r, "itemKey"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *cartHandlerImpl) Clear(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.cartService.Clear(r.Context(), u.ID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cart cleared", nil)
}
