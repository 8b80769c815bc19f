package menu

import (
	"context"
	"time"
)

type RestaurantRepository interface {
	GetByID(ctx context.Context, id string) (Restaurant, error)
	// FindByNameWithMenu matches case-insensitively and only returns rows with a menu
	FindByNameWithMenu(ctx context.Context, name string) (Restaurant, error)
	Upsert(ctx context.Context, r Restaurant) (Restaurant, error)
	List(ctx context.Context) ([]Restaurant, error)
}

// Cache keeps resolved documents keyed by place id
type Cache interface {
	Get(ctx context.Context, placeID string) (*Document, error)
	Set(ctx context.Context, placeID string, doc *Document, ttl time.Duration) error
}

// Scraper extracts a menu from a restaurant web page
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Document, error)
}

// Partner is the third-party menu and places API
type Partner interface {
	Enabled() bool
	// PlaceName resolves a place id to its canonical name
	PlaceName(ctx context.Context, placeID string) (string, error)
	Menu(ctx context.Context, placeID string) (*Document, error)
}
