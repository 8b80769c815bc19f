package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxBodySize = 5 << 20

var priceRe = regexp.MustCompile(`[$€£]\s?(\d{1,4}(?:[.,]\d{2})?)`)

// Scraper fetches restaurant pages and extracts a menu document
type Scraper struct {
	http *resty.Client
	now  func() time.Time
}

func New(userAgent string, timeout time.Duration) *Scraper {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Scraper{http: c, now: time.Now}
}

func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*menu.Document, error) {
	resp, err := s.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxBodySize {
		body = body[:maxBodySize]
	}

	doc, err := Parse(body)
	if err != nil {
		return nil, err
	}
	doc.UpdatedAt = s.now().UTC()
	return doc, nil
}

// Parse extracts a menu from an HTML page. JSON-LD is preferred; headings and prices are the fallback.
func Parse(page []byte) (*menu.Document, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &pageInfo{}
	p.walk(root)

	doc := &menu.Document{Source: menu.SourceScrape}
	for _, block := range p.jsonLD {
		if fromJSONLD(block, doc) {
			break
		}
	}

	if doc.IsEmpty() {
		doc.Categories = p.heuristicCategories()
	}

	if doc.RestaurantName == "" {
		doc.RestaurantName = p.siteName
	}
	if doc.RestaurantName == "" {
		doc.RestaurantName = p.title
	}

	doc.Normalize()
	if doc.IsEmpty() {
		return nil, menu.ErrScrapeFailed
	}
	assignIDs(doc)
	return doc, nil
}

type candidate struct {
	category string
	text     string
}

type pageInfo struct {
	title      string
	siteName   string
	jsonLD     []string
	candidates []candidate
	heading    string
}

func (p *pageInfo) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Title:
			if p.title == "" {
				p.title = strings.TrimSpace(textOf(n))
			}
		case atom.Meta:
			if attr(n, "property") == "og:site_name" {
				p.siteName = strings.TrimSpace(attr(n, "content"))
			}
		case atom.Script:
			if strings.EqualFold(attr(n, "type"), "application/ld+json") {
				p.jsonLD = append(p.jsonLD, textOf(n))
			}
			return
		case atom.Style, atom.Noscript:
			return
		case atom.H2, atom.H3, atom.H4:
			p.heading = collapse(textOf(n))
		case atom.Li, atom.Article:
			p.candidates = append(p.candidates, candidate{category: p.heading, text: collapse(textOf(n))})
			return
		case atom.Div:
			if strings.Contains(strings.ToLower(attr(n, "class")), "item") {
				p.candidates = append(p.candidates, candidate{category: p.heading, text: collapse(textOf(n))})
				return
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *pageInfo) heuristicCategories() []menu.Category {
	var cats []menu.Category
	index := map[string]int{}

	for _, c := range p.candidates {
		loc := priceRe.FindStringSubmatchIndex(c.text)
		if loc == nil {
			continue
		}
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(c.text[:loc[0]]), "-–·:|"))
		if name == "" || len(name) > 120 {
			continue
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(c.text[loc[2]:loc[3]], ",", "."))
		if err != nil {
			continue
		}
		desc := strings.TrimSpace(c.text[loc[1]:])

		catName := c.category
		if catName == "" {
			catName = "Menu"
		}
		i, ok := index[catName]
		if !ok {
			i = len(cats)
			index[catName] = i
			cats = append(cats, menu.Category{Name: catName})
		}
		cats[i].Items = append(cats[i].Items, menu.Item{Name: name, Description: desc, Price: &price, Category: catName})
	}
	return cats
}

// fromJSONLD fills doc from a schema.org block and reports whether a menu was found
func fromJSONLD(raw string, doc *menu.Document) bool {
	var v interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return false
	}

	for _, obj := range flatten(v) {
		types := typesOf(obj)
		if types["Restaurant"] || types["FoodEstablishment"] {
			if name, _ := obj["name"].(string); name != "" && doc.RestaurantName == "" {
				doc.RestaurantName = name
			}
			if m, ok := obj["hasMenu"].(map[string]interface{}); ok {
				readMenu(m, doc)
			}
		}
		if types["Menu"] {
			readMenu(obj, doc)
		}
	}
	return !doc.IsEmpty()
}

func readMenu(m map[string]interface{}, doc *menu.Document) {
	for _, sec := range asList(m["hasMenuSection"]) {
		name, _ := sec["name"].(string)
		cat := menu.Category{Name: strings.TrimSpace(name)}
		for _, it := range asList(sec["hasMenuItem"]) {
			cat.Items = append(cat.Items, readItem(it, cat.Name))
		}
		if len(cat.Items) > 0 {
			doc.Categories = append(doc.Categories, cat)
		}
	}
	for _, it := range asList(m["hasMenuItem"]) {
		doc.Items = append(doc.Items, readItem(it, ""))
	}
}

func readItem(it map[string]interface{}, category string) menu.Item {
	item := menu.Item{Category: category}
	item.Name, _ = it["name"].(string)
	item.Description, _ = it["description"].(string)
	if img, ok := it["image"].(string); ok {
		item.ImageURL = img
	}
	for _, offer := range asList(it["offers"]) {
		if p, ok := priceOf(offer["price"]); ok {
			item.Price = &p
			break
		}
	}
	return item
}

func priceOf(v interface{}) (decimal.Decimal, bool) {
	switch p := v.(type) {
	case float64:
		return decimal.NewFromFloat(p), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimLeft(p, "$€£")))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func flatten(v interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	switch t := v.(type) {
	case []interface{}:
		for _, e := range t {
			out = append(out, flatten(e)...)
		}
	case map[string]interface{}:
		out = append(out, t)
		if g, ok := t["@graph"]; ok {
			out = append(out, flatten(g)...)
		}
	}
	return out
}

func asList(v interface{}) []map[string]interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{t}
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func typesOf(obj map[string]interface{}) map[string]bool {
	out := map[string]bool{}
	switch t := obj["@type"].(type) {
	case string:
		out[t] = true
	case []interface{}:
		for _, e := range t {
			if s, ok := e.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}

func assignIDs(doc *menu.Document) {
	seen := map[string]int{}
	id := func(name string) string {
		base := slug(name)
		seen[base]++
		if n := seen[base]; n > 1 {
			return base + "-" + strconv.Itoa(n)
		}
		return base
	}
	for ci := range doc.Categories {
		for ii := range doc.Categories[ci].Items {
			it := &doc.Categories[ci].Items[ii]
			if it.ID == "" {
				it.ID = id(it.Name)
			}
		}
	}
	// the flat list mirrors categories after Normalize, so reuse their ids in order
	k := 0
	for ci := range doc.Categories {
		for _, it := range doc.Categories[ci].Items {
			if k < len(doc.Items) && doc.Items[k].Name == it.Name {
				doc.Items[k].ID = it.ID
			}
			k++
		}
	}
	for i := range doc.Items {
		if doc.Items[i].ID == "" {
			doc.Items[i].ID = id(doc.Items[i].Name)
		}
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	out := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if out == "" {
		return "item"
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
