package menu

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceLocal   Source = "local"
	SourceMerged  Source = "merged"
	SourceScrape  Source = "scrape"
	SourcePartner Source = "partner"
)

// GooglePlacePrefix marks ids issued by the Google Places API
const GooglePlacePrefix = "ChIJ"

// ScrapeIDPrefix marks restaurants created by on-demand scraping
const ScrapeIDPrefix = "scrape_"

type Item struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    string           `json:"category,omitempty"`
	ImageURL    string           `json:"image_url,omitempty"`
}

type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Document is the uniform menu shape returned regardless of where it came from
type Document struct {
	RestaurantName string     `json:"restaurant_name"`
	Categories     []Category `json:"categories"`
	Items          []Item     `json:"items"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Success        bool       `json:"success"`
	Source         Source     `json:"source"`
}

// IsEmpty reports whether the document carries no items
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	if len(d.Items) > 0 {
		return false
	}
	for _, c := range d.Categories {
		if len(c.Items) > 0 {
			return false
		}
	}
	return true
}

// Normalize fills the flat item list from categories (or the reverse) and stamps category names onto items
func (d *Document) Normalize() {
	if len(d.Categories) == 0 && len(d.Items) > 0 {
		byCat := map[string]int{}
		for _, it := range d.Items {
			name := it.Category
			if name == "" {
				name = "Menu"
			}
			idx, ok := byCat[name]
			if !ok {
				idx = len(d.Categories)
				byCat[name] = idx
				d.Categories = append(d.Categories, Category{Name: name})
			}
			it.Category = name
			d.Categories[idx].Items = append(d.Categories[idx].Items, it)
		}
	}

	if len(d.Items) == 0 {
		for _, c := range d.Categories {
			for _, it := range c.Items {
				if it.Category == "" {
					it.Category = c.Name
				}
				d.Items = append(d.Items, it)
			}
		}
	}

	for ci := range d.Categories {
		if d.Categories[ci].Items == nil {
			d.Categories[ci].Items = []Item{}
		}
	}
	if d.Categories == nil {
		d.Categories = []Category{}
	}
	if d.Items == nil {
		d.Items = []Item{}
	}
	d.Success = !d.IsEmpty()
}

type Restaurant struct {
	ID            string
	Name          string
	Source        Source
	SourceURL     *string
	Address       *string
	Menu          *Document
	MenuUpdatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasMenu reports whether the restaurant carries a non-empty menu
func (r *Restaurant) HasMenu() bool {
	return r != nil && !r.Menu.IsEmpty()
}

// IsGooglePlaceID reports whether id looks like a Google place id
func IsGooglePlaceID(id string) bool {
	return strings.HasPrefix(id, GooglePlacePrefix)
}

// ScrapeID derives the stable restaurant id for a scraped URL
func ScrapeID(url string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(url)))
	return ScrapeIDPrefix + hex.EncodeToString(sum[:])[:16]
}
