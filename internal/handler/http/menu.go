package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/handler/http/response"
)

type MenuHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Exists(w http.ResponseWriter, r *http.Request)
	Scrape(w http.ResponseWriter, r *http.Request)
	ListRestaurants(w http.ResponseWriter, r *http.Request)
}

type menuHandlerImpl struct {
	menuService menu.MenuService
}

func NewMenuHandler(menuService menu.MenuService) MenuHandler {
	return &menuHandlerImpl{menuService: menuService}
}

// Get answers 200 with a null menu when no source has one
func (h *menuHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")

	doc, err := h.menuService.GetMenu(r.Context(), placeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, menu.MenuResponse{PlaceID: placeID, Menu: doc})
}

func (h *menuHandlerImpl) Exists(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")

	response.Success(w, menu.ExistsResponse{
		PlaceID: placeID,
		HasMenu: h.menuService.HasMenu(r.Context(), placeID),
	})
}

func (h *menuHandlerImpl) Scrape(w http.ResponseWriter, r *http.Request) {
	var req menu.ScrapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := h.menuService.ScrapeMenu(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Menu scraped", doc)
}

func (h *menuHandlerImpl) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	results, err := h.menuService.ListRestaurants(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
