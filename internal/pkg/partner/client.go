package partner

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultPlacesBaseURL = "https://places.googleapis.com"

// Client reads menus from the partner API and resolves place names
type Client struct {
	menus    *resty.Client
	places   *resty.Client
	placeKey string
	now      func() time.Time
}

// NewClient builds the partner client. Menus are disabled when no OAuth2 credentials are configured.
func NewClient(ctx context.Context, cfg config.MenuConfig) *Client {
	c := &Client{
		placeKey: cfg.GooglePlacesAPIKey,
		now:      time.Now,
		places: resty.New().
			SetBaseURL(defaultPlacesBaseURL).
			SetTimeout(10 * time.Second),
	}

	if cfg.PartnerBaseURL != "" && cfg.PartnerClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.PartnerClientID,
			ClientSecret: cfg.PartnerSecret,
			TokenURL:     cfg.PartnerTokenURL,
			Scopes:       []string{"menus.read"},
		}
		c.menus = resty.NewWithClient(cc.Client(ctx)).
			SetBaseURL(cfg.PartnerBaseURL).
			SetTimeout(15 * time.Second).
			SetHeader("Accept", "application/json")
	}

	return c
}

// SetPlacesBaseURL points place lookups elsewhere; used in tests
func (c *Client) SetPlacesBaseURL(u string) {
	c.places.SetBaseURL(u)
}

func (c *Client) Enabled() bool {
	return c.menus != nil
}

type placeResponse struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
}

func (c *Client) PlaceName(ctx context.Context, placeID string) (string, error) {
	if c.placeKey == "" {
		return "", menu.ErrPartnerDisabled
	}

	var out placeResponse
	resp, err := c.places.R().
		SetContext(ctx).
		SetHeader("X-Goog-Api-Key", c.placeKey).
		SetHeader("X-Goog-FieldMask", "displayName").
		SetResult(&out).
		Get("/v1/places/" + url.PathEscape(placeID))
	if err != nil {
		return "", fmt.Errorf("lookup place %s: %w", placeID, err)
	}
	if resp.StatusCode() == 404 {
		return "", menu.ErrPlaceNotFound
	}
	if resp.IsError() {
		return "", fmt.Errorf("lookup place %s: status %d", placeID, resp.StatusCode())
	}

	name := strings.TrimSpace(out.DisplayName.Text)
	if name == "" {
		return "", menu.ErrPlaceNotFound
	}
	return name, nil
}

type menuResponse struct {
	RestaurantName string `json:"restaurant_name"`
	Sections       []struct {
		Name  string `json:"name"`
		Items []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			PriceCents  *int64 `json:"price_cents"`
			ImageURL    string `json:"image_url"`
		} `json:"items"`
	} `json:"sections"`
}

func (c *Client) Menu(ctx context.Context, placeID string) (*menu.Document, error) {
	if !c.Enabled() {
		return nil, menu.ErrPartnerDisabled
	}

	var out menuResponse
	resp, err := c.menus.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/menus/" + url.PathEscape(placeID))
	if err != nil {
		return nil, fmt.Errorf("partner menu %s: %w", placeID, err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("partner menu %s: status %d", placeID, resp.StatusCode())
	}

	doc := &menu.Document{
		RestaurantName: out.RestaurantName,
		Source:         menu.SourcePartner,
		UpdatedAt:      c.now().UTC(),
	}
	for _, sec := range out.Sections {
		cat := menu.Category{Name: sec.Name}
		for _, it := range sec.Items {
			item := menu.Item{
				ID:          it.ID,
				Name:        it.Name,
				Description: it.Description,
				Category:    sec.Name,
				ImageURL:    it.ImageURL,
			}
			if it.PriceCents != nil {
				p := payment.FromMinorUnits(*it.PriceCents)
				item.Price = &p
			}
			cat.Items = append(cat.Items, item)
		}
		doc.Categories = append(doc.Categories, cat)
	}
	doc.Normalize()
	return doc, nil
}
