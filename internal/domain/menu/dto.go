package menu

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
)

type ScrapeRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (r *ScrapeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.URL) {
		errs.Add("url", "url is required")
	} else if !validator.IsValidURL(r.URL) {
		errs.Add("url", "url must be an http(s) URL")
	}
	return errs.Err()
}

type ExistsResponse struct {
	PlaceID string `json:"place_id"`
	HasMenu bool   `json:"has_menu"`
}

// MenuResponse wraps a possibly missing document; Menu is null when nothing was found
type MenuResponse struct {
	PlaceID string    `json:"place_id"`
	Menu    *Document `json:"menu"`
}

type RestaurantResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Source        string  `json:"source"`
	SourceURL     *string `json:"source_url,omitempty"`
	Address       *string `json:"address,omitempty"`
	HasMenu       bool    `json:"has_menu"`
	MenuUpdatedAt *string `json:"menu_updated_at,omitempty"`
}

func ToRestaurantResponse(r Restaurant) RestaurantResponse {
	resp := RestaurantResponse{
		ID:        r.ID,
		Name:      r.Name,
		Source:    string(r.Source),
		SourceURL: r.SourceURL,
		Address:   r.Address,
		HasMenu:   r.HasMenu(),
	}
	if r.MenuUpdatedAt != nil {
		s := r.MenuUpdatedAt.Format(time.RFC3339)
		resp.MenuUpdatedAt = &s
	}
	return resp
}
