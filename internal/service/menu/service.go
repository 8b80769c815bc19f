package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
)

var _ menu.MenuService = (*MenuServiceImpl)(nil)

// MenuServiceImpl resolves a menu through cache, local records, name matches, scraping and the partner API, in that order
type MenuServiceImpl struct {
	restaurants menu.RestaurantRepository
	cache       menu.Cache
	scraper     menu.Scraper
	partner     menu.Partner
	ttl         time.Duration
	now         func() time.Time
}

func NewMenuService(restaurants menu.RestaurantRepository, cache menu.Cache, scraper menu.Scraper, partner menu.Partner, ttl time.Duration) *MenuServiceImpl {
	return &MenuServiceImpl{
		restaurants: restaurants,
		cache:       cache,
		scraper:     scraper,
		partner:     partner,
		ttl:         ttl,
		now:         time.Now,
	}
}

// HasMenu implements menu.MenuService.
// Only the cache and stored records are consulted; no page, place or partner API is called to answer it.
func (s *MenuServiceImpl) HasMenu(ctx context.Context, placeID string) bool {
	if doc := s.fromCache(ctx, placeID); doc != nil {
		return true
	}
	rest, found, err := s.lookup(ctx, placeID)
	if err != nil {
		return false
	}
	if found && rest.HasMenu() {
		return true
	}
	doc, err := s.byName(ctx, placeID, rest, found, false)
	return err == nil && doc != nil
}

// GetMenu implements menu.MenuService.
func (s *MenuServiceImpl) GetMenu(ctx context.Context, placeID string) (*menu.Document, error) {
	if doc := s.fromCache(ctx, placeID); doc != nil {
		return doc, nil
	}

	rest, found, err := s.lookup(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if found && rest.HasMenu() {
		return s.remember(ctx, placeID, withSource(rest.Menu, rest.Name, menu.SourceLocal)), nil
	}

	doc, err := s.byName(ctx, placeID, rest, found, true)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return s.remember(ctx, placeID, doc), nil
	}

	if found && rest.SourceURL != nil && *rest.SourceURL != "" {
		if doc := s.scrapeInto(ctx, rest); doc != nil {
			return s.remember(ctx, placeID, doc), nil
		}
	}

	if s.partner != nil && s.partner.Enabled() {
		if doc := s.fromPartner(ctx, placeID, rest.Name); doc != nil {
			return s.remember(ctx, placeID, doc), nil
		}
	}

	slog.Debug("no menu found", "place_id", placeID)
	return nil, nil
}

func (s *MenuServiceImpl) fromCache(ctx context.Context, placeID string) *menu.Document {
	doc, err := s.cache.Get(ctx, placeID)
	if err != nil {
		slog.Warn("menu cache read failed", "place_id", placeID, "error", err)
		return nil
	}
	if doc.IsEmpty() {
		return nil
	}
	return doc
}

func (s *MenuServiceImpl) remember(ctx context.Context, placeID string, doc *menu.Document) *menu.Document {
	if err := s.cache.Set(ctx, placeID, doc, s.ttl); err != nil {
		slog.Warn("menu cache write failed", "place_id", placeID, "error", err)
	}
	return doc
}

func (s *MenuServiceImpl) lookup(ctx context.Context, placeID string) (menu.Restaurant, bool, error) {
	rest, err := s.restaurants.GetByID(ctx, placeID)
	if errors.Is(err, menu.ErrRestaurantNotFound) {
		return menu.Restaurant{}, false, nil
	}
	if err != nil {
		return menu.Restaurant{}, false, err
	}
	return rest, true, nil
}

// byName finds another record with the same canonical name that carries a menu.
// resolveRemote allows asking the places API for the name of an unknown Google place id.
func (s *MenuServiceImpl) byName(ctx context.Context, placeID string, rest menu.Restaurant, found, resolveRemote bool) (*menu.Document, error) {
	name := rest.Name
	if !found && resolveRemote && menu.IsGooglePlaceID(placeID) && s.partner != nil {
		resolved, err := s.partner.PlaceName(ctx, placeID)
		if err != nil && !errors.Is(err, menu.ErrPartnerDisabled) {
			slog.Warn("place name lookup failed", "place_id", placeID, "error", err)
		}
		name = resolved
	}
	if name == "" {
		return nil, nil
	}

	match, err := s.restaurants.FindByNameWithMenu(ctx, name)
	if errors.Is(err, menu.ErrRestaurantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if match.ID == placeID {
		return nil, nil
	}

	slog.Info("menu matched by restaurant name", "place_id", placeID, "matched_id", match.ID, "name", name)
	return withSource(match.Menu, name, menu.SourceMerged), nil
}

func (s *MenuServiceImpl) scrapeInto(ctx context.Context, rest menu.Restaurant) *menu.Document {
	doc, err := s.scraper.Scrape(ctx, *rest.SourceURL)
	if err != nil || doc.IsEmpty() {
		slog.Warn("on-demand menu scrape found nothing", "restaurant_id", rest.ID, "url", *rest.SourceURL, "error", err)
		return nil
	}
	doc = withSource(doc, rest.Name, menu.SourceScrape)

	if _, err := s.storeScrape(ctx, *rest.SourceURL, rest.Name, doc); err != nil {
		slog.Warn("failed to store scraped menu", "restaurant_id", rest.ID, "error", err)
	}
	return doc
}

// storeScrape upserts a scraped menu under the id derived from its source url
func (s *MenuServiceImpl) storeScrape(ctx context.Context, sourceURL, name string, doc *menu.Document) (string, error) {
	id := menu.ScrapeID(sourceURL)
	_, err := s.restaurants.Upsert(ctx, menu.Restaurant{
		ID:            id,
		Name:          name,
		Source:        menu.SourceScrape,
		SourceURL:     &sourceURL,
		Menu:          doc,
		MenuUpdatedAt: &doc.UpdatedAt,
	})
	return id, err
}

func (s *MenuServiceImpl) fromPartner(ctx context.Context, placeID, name string) *menu.Document {
	doc, err := s.partner.Menu(ctx, placeID)
	if err != nil || doc.IsEmpty() {
		if err != nil {
			slog.Warn("partner menu lookup failed", "place_id", placeID, "error", err)
		}
		return nil
	}
	if name == "" {
		name = doc.RestaurantName
	}
	doc = withSource(doc, name, menu.SourcePartner)

	if _, err := s.restaurants.Upsert(ctx, menu.Restaurant{
		ID:            placeID,
		Name:          doc.RestaurantName,
		Source:        menu.SourcePartner,
		Menu:          doc,
		MenuUpdatedAt: &doc.UpdatedAt,
	}); err != nil {
		slog.Warn("failed to store partner menu", "place_id", placeID, "error", err)
	}
	return doc
}

// ScrapeMenu implements menu.MenuService.
func (s *MenuServiceImpl) ScrapeMenu(ctx context.Context, req menu.ScrapeRequest) (*menu.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc, err := s.scraper.Scrape(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", menu.ErrScrapeFailed, err)
	}
	if doc.IsEmpty() {
		return nil, menu.ErrScrapeFailed
	}

	name := req.Name
	if name == "" {
		name = doc.RestaurantName
	}
	if name == "" {
		if u, err := url.Parse(req.URL); err == nil {
			name = u.Hostname()
		}
	}
	doc = withSource(doc, name, menu.SourceScrape)

	id, err := s.storeScrape(ctx, req.URL, name, doc)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, id, doc)

	slog.Info("menu scraped", "restaurant_id", id, "name", name, "items", len(doc.Items))
	return doc, nil
}

// ListRestaurants implements menu.MenuService.
func (s *MenuServiceImpl) ListRestaurants(ctx context.Context) ([]menu.RestaurantResponse, error) {
	rests, err := s.restaurants.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]menu.RestaurantResponse, 0, len(rests))
	for _, r := range rests {
		resp = append(resp, menu.ToRestaurantResponse(r))
	}
	return resp, nil
}

// withSource copies doc so stored documents are never mutated
func withSource(doc *menu.Document, name string, source menu.Source) *menu.Document {
	out := *doc
	out.Categories = append([]menu.Category(nil), doc.Categories...)
	out.Items = append([]menu.Item(nil), doc.Items...)
	if name != "" {
		out.RestaurantName = name
	}
	out.Source = source
	out.Normalize()
	return &out
}
