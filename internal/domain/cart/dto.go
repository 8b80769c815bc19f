package cart

import (
	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type AddItemRequest struct {
	RestaurantID   string          `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name"`
	ItemID         string          `json:"item_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Options        []string        `json:"options,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

func (r *AddItemRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.RestaurantID) {
		errs.Add("restaurant_id", "restaurant_id is required")
	}
	if validator.IsEmpty(r.ItemID) {
		errs.Add("item_id", "item_id is required")
	}
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if r.Quantity <= 0 {
		errs.Add("quantity", "quantity must be positive")
	}
	if r.UnitPrice.IsNegative() {
		errs.Add("unit_price", "unit_price must not be negative")
	}
	return errs.Err()
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (r *UpdateQuantityRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Quantity < 0 {
		errs.Add("quantity", ErrInvalidQuantity.Error())
	}
	return errs.Err()
}

type CartResponse struct {
	Cart
	Totals Totals `json:"totals"`
}

func ToResponse(c Cart) CartResponse {
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return CartResponse{Cart: c, Totals: c.Totals()}
}
