package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/cart"
)

const keyPrefix = "cart:"

var _ cart.CartService = (*CartServiceImpl)(nil)

// CartServiceImpl keeps one JSON document per user in the KV store; every write refreshes the TTL
type CartServiceImpl struct {
	kv  cart.KV
	now func() time.Time
}

func NewCartService(kv cart.KV) *CartServiceImpl {
	return &CartServiceImpl{kv: kv, now: time.Now}
}

func (s *CartServiceImpl) load(ctx context.Context, userID string) (cart.Cart, error) {
	b, err := s.kv.Get(ctx, keyPrefix+userID)
	if errors.Is(err, cart.ErrKeyNotFound) {
		return cart.Cart{UserID: userID}, nil
	}
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(b, &c); err != nil {
		// an unreadable cart is discarded rather than blocking the user
		return cart.Cart{UserID: userID}, nil
	}
	c.UserID = userID
	return c, nil
}

func (s *CartServiceImpl) save(ctx context.Context, c cart.Cart) (cart.CartResponse, error) {
	if c.IsEmpty() {
		if err := s.kv.Delete(ctx, keyPrefix+c.UserID); err != nil {
			return cart.CartResponse{}, fmt.Errorf("failed to clear cart: %w", err)
		}
		return cart.ToResponse(cart.Cart{UserID: c.UserID, UpdatedAt: s.now()}), nil
	}

	c.UpdatedAt = s.now()
	b, err := json.Marshal(c)
	if err != nil {
		return cart.CartResponse{}, fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.kv.Put(ctx, keyPrefix+c.UserID, b, cart.TTL); err != nil {
		return cart.CartResponse{}, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart.ToResponse(c), nil
}

// Get implements cart.CartService.
func (s *CartServiceImpl) Get(ctx context.Context, userID string) (cart.CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return cart.CartResponse{}, err
	}
	return cart.ToResponse(c), nil
}

// AddItem implements cart.CartService.
func (s *CartServiceImpl) AddItem(ctx context.Context, userID string, req cart.AddItemRequest) (cart.CartResponse, error) {
	if err := req.Validate(); err != nil {
		return cart.CartResponse{}, err
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return cart.CartResponse{}, err
	}
	if !c.IsEmpty() && c.RestaurantID != req.RestaurantID {
		return cart.CartResponse{}, cart.ErrRestaurantMismatch
	}
	if c.IsEmpty() {
		c.RestaurantID = req.RestaurantID
		c.RestaurantName = req.RestaurantName
	}

	c.Add(cart.Line{
		ItemID:    req.ItemID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Options:   req.Options,
		Notes:     req.Notes,
	})
	return s.save(ctx, c)
}

// UpdateQuantity implements cart.CartService.
func (s *CartServiceImpl) UpdateQuantity(ctx context.Context, userID, key string, req cart.UpdateQuantityRequest) (cart.CartResponse, error) {
	if err := req.Validate(); err != nil {
		return cart.CartResponse{}, err
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return cart.CartResponse{}, err
	}
	if !c.SetQuantity(key, req.Quantity) {
		return cart.CartResponse{}, cart.ErrLineNotFound
	}
	return s.save(ctx, c)
}

// RemoveItem implements cart.CartService.
func (s *CartServiceImpl) RemoveItem(ctx context.Context, userID, key string) (cart.CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return cart.CartResponse{}, err
	}
	if !c.Remove(key) {
		return cart.CartResponse{}, cart.ErrLineNotFound
	}
	return s.save(ctx, c)
}

// Clear implements cart.CartService.
func (s *CartServiceImpl) Clear(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, keyPrefix+userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
