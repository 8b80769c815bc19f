package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonLDPage = `<!doctype html>
<html><head><title>Ignored Title</title>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Restaurant","name":"Bella Pasta",
 "hasMenu":{"@type":"Menu","hasMenuSection":[
   {"@type":"MenuSection","name":"Mains","hasMenuItem":[
     {"@type":"MenuItem","name":"Carbonara","description":"Egg, pecorino","offers":{"@type":"Offer","price":"14.50"}},
     {"@type":"MenuItem","name":"Lasagna","offers":[{"price":13}]}
   ]},
   {"@type":"MenuSection","name":"Desserts","hasMenuItem":{"@type":"MenuItem","name":"Tiramisu","offers":{"price":"$7.00"}}}
 ]}}
</script></head><body></body></html>`

const heuristicPage = `<html><head><title>Taco Town</title></head><body>
<nav><ul><li>Home</li><li>About</li></ul></nav>
<h2>Tacos</h2>
<ul>
  <li>Al Pastor - $4.50 pineapple, onion</li>
  <li>Carnitas $4.00</li>
</ul>
<h2>Drinks</h2>
<div class="menu-item">Horchata <span>$3.25</span></div>
</body></html>`

func TestParseJSONLD(t *testing.T) {
	doc, err := Parse([]byte(jsonLDPage))
	require.NoError(t, err)

	assert.Equal(t, "Bella Pasta", doc.RestaurantName)
	assert.Equal(t, menu.SourceScrape, doc.Source)
	assert.True(t, doc.Success)
	require.Len(t, doc.Categories, 2)
	assert.Equal(t, "Mains", doc.Categories[0].Name)
	require.Len(t, doc.Items, 3)

	carbonara := doc.Items[0]
	assert.Equal(t, "Carbonara", carbonara.Name)
	assert.Equal(t, "carbonara", carbonara.ID)
	assert.Equal(t, "Mains", carbonara.Category)
	require.NotNil(t, carbonara.Price)
	assert.True(t, decimal.RequireFromString("14.50").Equal(*carbonara.Price))

	require.NotNil(t, doc.Items[2].Price)
	assert.True(t, decimal.RequireFromString("7").Equal(*doc.Items[2].Price))
}

func TestParseHeuristic(t *testing.T) {
	doc, err := Parse([]byte(heuristicPage))
	require.NoError(t, err)

	assert.Equal(t, "Taco Town", doc.RestaurantName)
	require.Len(t, doc.Categories, 2)
	assert.Equal(t, "Tacos", doc.Categories[0].Name)
	require.Len(t, doc.Categories[0].Items, 2)

	pastor := doc.Categories[0].Items[0]
	assert.Equal(t, "Al Pastor", pastor.Name)
	assert.Equal(t, "pineapple, onion", pastor.Description)
	assert.True(t, decimal.RequireFromString("4.50").Equal(*pastor.Price))

	assert.Equal(t, "Drinks", doc.Categories[1].Name)
	assert.Equal(t, "Horchata", doc.Categories[1].Items[0].Name)
	assert.Len(t, doc.Items, 3)
}

func TestParseNoMenu(t *testing.T) {
	_, err := Parse([]byte(`<html><body><p>Closed for renovation</p></body></html>`))
	assert.ErrorIs(t, err, menu.ErrScrapeFailed)
}

func TestScrapeFetchesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(heuristicPage))
	}))
	defer srv.Close()

	s := New("test-agent", 5*time.Second)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	doc, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, fixed, doc.UpdatedAt)
	assert.Equal(t, "Taco Town", doc.RestaurantName)
}

func TestScrapeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New("ua", time.Second).Scrape(context.Background(), srv.URL)
	assert.Error(t, err)
}
