package menu

import "context"

type MenuService interface {
	HasMenu(ctx context.Context, placeID string) bool
	// GetMenu returns nil without error when no source has a menu
	GetMenu(ctx context.Context, placeID string) (*Document, error)
	ScrapeMenu(ctx context.Context, req ScrapeRequest) (*Document, error)
	ListRestaurants(ctx context.Context) ([]RestaurantResponse, error)
}
