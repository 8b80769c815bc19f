package menu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/repository/memory"
	"github.com/groupmeal/groupmeal-backend/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScraper struct {
	doc   *menu.Document
	err   error
	calls []string
}

func (s *stubScraper) Scrape(_ context.Context, url string) (*menu.Document, error) {
	s.calls = append(s.calls, url)
	return s.doc, s.err
}

type stubPartner struct {
	enabled   bool
	names     map[string]string
	menus     map[string]*menu.Document
	calls     int
	nameCalls int
}

func (p *stubPartner) Enabled() bool { return p.enabled }

func (p *stubPartner) PlaceName(_ context.Context, placeID string) (string, error) {
	p.nameCalls++
	if name, ok := p.names[placeID]; ok {
		return name, nil
	}
	return "", menu.ErrPlaceNotFound
}

func (p *stubPartner) Menu(_ context.Context, placeID string) (*menu.Document, error) {
	p.calls++
	return p.menus[placeID], nil
}

func sampleMenu(name string) *menu.Document {
	return &menu.Document{
		RestaurantName: name,
		Categories: []menu.Category{
			{Name: "Noodles", Items: []menu.Item{{ID: "pad-thai", Name: "Pad Thai"}}},
		},
		UpdatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

type fixture struct {
	store   *servicetest.Store
	scraper *stubScraper
	partner *stubPartner
	cache   menu.Cache
	svc     *MenuServiceImpl
}

func newFixture() *fixture {
	store := servicetest.NewStore()
	scraper := &stubScraper{}
	partner := &stubPartner{names: map[string]string{}, menus: map[string]*menu.Document{}}
	cache := memory.NewMenuCache(memory.NewStore())
	return &fixture{
		store:   store,
		scraper: scraper,
		partner: partner,
		cache:   cache,
		svc:     NewMenuService(store.Restaurants(), cache, scraper, partner, time.Hour),
	}
}

func TestGetMenu_Local(t *testing.T) {
	f := newFixture()
	f.store.SeedRestaurant(menu.Restaurant{ID: "r1", Name: "Noodle Bar", Source: menu.SourceLocal, Menu: sampleMenu("Noodle Bar")})

	doc, err := f.svc.GetMenu(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, menu.SourceLocal, doc.Source)
	assert.True(t, doc.Success)
	assert.Len(t, doc.Items, 1)
	assert.Equal(t, "Noodles", doc.Items[0].Category)

	cached, err := f.cache.Get(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestGetMenu_MergedByGooglePlaceName(t *testing.T) {
	f := newFixture()
	f.store.SeedRestaurant(menu.Restaurant{ID: "r1", Name: "Noodle Bar", Menu: sampleMenu("Noodle Bar")})
	f.partner.names["ChIJabc"] = "noodle bar"

	doc, err := f.svc.GetMenu(context.Background(), "ChIJabc")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, menu.SourceMerged, doc.Source)
	assert.Equal(t, "noodle bar", doc.RestaurantName)
	assert.True(t, f.svc.HasMenu(context.Background(), "ChIJabc"))
}

func TestGetMenu_MergedByLocalName(t *testing.T) {
	f := newFixture()
	f.store.SeedRestaurant(menu.Restaurant{ID: "r1", Name: "Noodle Bar", Menu: sampleMenu("Noodle Bar")})
	f.store.SeedRestaurant(menu.Restaurant{ID: "r2", Name: "NOODLE BAR"})

	doc, err := f.svc.GetMenu(context.Background(), "r2")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, menu.SourceMerged, doc.Source)
}

func TestGetMenu_ScrapesKnownSourceURL(t *testing.T) {
	f := newFixture()
	src := "https://noodlebar.example.com/menu"
	f.store.SeedRestaurant(menu.Restaurant{ID: "r3", Name: "Pho House", SourceURL: &src})
	f.scraper.doc = sampleMenu("")

	doc, err := f.svc.GetMenu(context.Background(), "r3")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, menu.SourceScrape, doc.Source)
	assert.Equal(t, "Pho House", doc.RestaurantName)
	assert.Equal(t, []string{src}, f.scraper.calls)

	// stored under the id derived from the source url
	scraped, err := f.store.Restaurants().GetByID(context.Background(), menu.ScrapeID(src))
	require.NoError(t, err)
	assert.True(t, scraped.HasMenu())
	assert.Equal(t, "Pho House", scraped.Name)
	assert.Equal(t, menu.SourceScrape, scraped.Source)

	// a cold lookup of the original record now merges by name without scraping again
	fresh := NewMenuService(f.store.Restaurants(), memory.NewMenuCache(memory.NewStore()), f.scraper, f.partner, time.Hour)
	doc, err = fresh.GetMenu(context.Background(), "r3")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, menu.SourceMerged, doc.Source)
	assert.Len(t, f.scraper.calls, 1)
}

func TestHasMenu_DoesNotCallPartner(t *testing.T) {
	f := newFixture()
	f.partner.enabled = true
	f.store.SeedRestaurant(menu.Restaurant{ID: "r1", Name: "Noodle Bar", Menu: sampleMenu("Noodle Bar")})
	f.partner.names["ChIJabc"] = "noodle bar"

	assert.True(t, f.svc.HasMenu(context.Background(), "r1"))
	assert.False(t, f.svc.HasMenu(context.Background(), "ChIJabc"))
	assert.Zero(t, f.partner.nameCalls)
	assert.Zero(t, f.partner.calls)
}

func TestGetMenu_Partner(t *testing.T) {
	f := newFixture()
	f.partner.enabled = true
	f.partner.menus["p1"] = sampleMenu("Taco Spot")

	doc, err := f.svc.GetMenu(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, menu.SourcePartner, doc.Source)

	// served from cache afterwards
	_, err = f.svc.GetMenu(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.partner.calls)
}

func TestGetMenu_NothingFound(t *testing.T) {
	f := newFixture()

	doc, err := f.svc.GetMenu(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.False(t, f.svc.HasMenu(context.Background(), "unknown"))
}

func TestScrapeMenu(t *testing.T) {
	f := newFixture()
	f.scraper.doc = sampleMenu("Scraped Diner")
	url := "https://diner.example.com/"

	doc, err := f.svc.ScrapeMenu(context.Background(), menu.ScrapeRequest{URL: url})
	require.NoError(t, err)
	assert.Equal(t, "Scraped Diner", doc.RestaurantName)

	rest, err := f.store.Restaurants().GetByID(context.Background(), menu.ScrapeID(url))
	require.NoError(t, err)
	assert.Equal(t, menu.SourceScrape, rest.Source)
	require.NotNil(t, rest.SourceURL)

	list, err := f.svc.ListRestaurants(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].HasMenu)
}

func TestScrapeMenu_Failures(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ScrapeMenu(context.Background(), menu.ScrapeRequest{URL: "not a url"})
	require.Error(t, err)

	f.scraper.err = errors.New("status 403")
	_, err = f.svc.ScrapeMenu(context.Background(), menu.ScrapeRequest{URL: "https://x.example.com"})
	assert.ErrorIs(t, err, menu.ErrScrapeFailed)

	f.scraper.err = nil
	f.scraper.doc = &menu.Document{}
	_, err = f.svc.ScrapeMenu(context.Background(), menu.ScrapeRequest{URL: "https://x.example.com"})
	assert.ErrorIs(t, err, menu.ErrScrapeFailed)
}
