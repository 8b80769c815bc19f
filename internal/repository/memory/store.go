package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/cart"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is a process-local expiring key/value map. It satisfies the same ports as the Redis stores.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: make(map[string]entry), now: time.Now}
}

// SetClock overrides the time source
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.data, key)
		return nil, false
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

func (s *Store) put(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
}

// Get implements cart.KV.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := s.get(key)
	if !ok {
		return nil, cart.ErrKeyNotFound
	}
	return b, nil
}

// Put implements cart.KV.
func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.put(key, value, ttl)
	return nil
}

// Delete implements cart.KV.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// SetNX stores value only when key is absent or expired
func (s *Store) SetNX(key string, value []byte, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data[key]; ok && (e.expiresAt.IsZero() || s.now().Before(e.expiresAt)) {
		return false
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return true
}

type menuCache struct {
	store *Store
}

func NewMenuCache(store *Store) menu.Cache {
	return &menuCache{store: store}
}

// Get implements menu.Cache.
func (c *menuCache) Get(_ context.Context, placeID string) (*menu.Document, error) {
	b, ok := c.store.get("menu:" + placeID)
	if !ok {
		return nil, nil
	}
	var doc menu.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, nil
	}
	return &doc, nil
}

// Set implements menu.Cache.
func (c *menuCache) Set(_ context.Context, placeID string, doc *menu.Document, ttl time.Duration) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.store.put("menu:"+placeID, b, ttl)
	return nil
}

type deliveryStatusCache struct {
	store *Store
	ttl   time.Duration
}

func NewDeliveryStatusCache(store *Store, ttl time.Duration) delivery.StatusCache {
	return &deliveryStatusCache{store: store, ttl: ttl}
}

// Get implements delivery.StatusCache.
func (c *deliveryStatusCache) Get(_ context.Context, orderID string) (delivery.CachedStatus, bool, error) {
	b, ok := c.store.get("delivery:status:" + orderID)
	if !ok {
		return delivery.CachedStatus{}, false, nil
	}
	var st delivery.CachedStatus
	if err := json.Unmarshal(b, &st); err != nil {
		return delivery.CachedStatus{}, false, nil
	}
	return st, true, nil
}

// Set implements delivery.StatusCache.
func (c *deliveryStatusCache) Set(_ context.Context, orderID string, status delivery.CachedStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return err
	}
	c.store.put("delivery:status:"+orderID, b, c.ttl)
	return nil
}

type eventDeduper struct {
	store *Store
	ttl   time.Duration
}

func NewEventDeduper(store *Store, ttl time.Duration) payment.EventDeduper {
	return &eventDeduper{store: store, ttl: ttl}
}

// FirstSeen implements payment.EventDeduper.
func (d *eventDeduper) FirstSeen(_ context.Context, eventID string) (bool, error) {
	return d.store.SetNX("payment:event:"+eventID, []byte{1}, d.ttl), nil
}

// Forget implements payment.EventDeduper.
func (d *eventDeduper) Forget(ctx context.Context, eventID string) error {
	return d.store.Delete(ctx, "payment:event:"+eventID)
}
