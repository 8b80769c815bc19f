package cart

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TTL bounds how long an untouched cart is kept
const TTL = 7 * 24 * time.Hour

type Line struct {
	Key       string          `json:"key"`
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Options   []string        `json:"options,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart belongs to one user and one restaurant at a time
type Cart struct {
	UserID         string    `json:"user_id"`
	RestaurantID   string    `json:"restaurant_id,omitempty"`
	RestaurantName string    `json:"restaurant_name,omitempty"`
	Lines          []Line    `json:"lines"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LineKey identifies a line by item id plus its option set; option order does not matter
func LineKey(itemID string, options []string) string {
	if len(options) == 0 {
		return itemID
	}
	opts := make([]string, len(options))
	for i, o := range options {
		opts[i] = strings.ToLower(strings.TrimSpace(o))
	}
	sort.Strings(opts)
	return itemID + "|" + strings.Join(opts, ",")
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) find(key string) int {
	for i, l := range c.Lines {
		if l.Key == key {
			return i
		}
	}
	return -1
}

// Add merges quantity into an existing line with the same key or appends a new one
func (c *Cart) Add(line Line) Line {
	line.Key = LineKey(line.ItemID, line.Options)
	if i := c.find(line.Key); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return c.Lines[i]
	}
	c.Lines = append(c.Lines, line)
	return line
}

// SetQuantity updates a line; zero removes it. Reports false when the key is unknown.
func (c *Cart) SetQuantity(key string, qty int) bool {
	i := c.find(key)
	if i < 0 {
		return false
	}
	if qty == 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	} else {
		c.Lines[i].Quantity = qty
	}
	if len(c.Lines) == 0 {
		c.RestaurantID = ""
		c.RestaurantName = ""
	}
	return true
}

func (c *Cart) Remove(key string) bool {
	return c.SetQuantity(key, 0)
}

type Totals struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func (c *Cart) Totals() Totals {
	t := Totals{Subtotal: decimal.Zero}
	for _, l := range c.Lines {
		t.ItemCount += l.Quantity
		t.Subtotal = t.Subtotal.Add(l.Subtotal())
	}
	t.Subtotal = t.Subtotal.Round(2)
	return t
}
