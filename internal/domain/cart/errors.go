package cart

import "errors"

var (
	ErrRestaurantMismatch = errors.New("cart already holds items from another restaurant")
	ErrLineNotFound       = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must not be negative")
	ErrKeyNotFound        = errors.New("key not found")
)
