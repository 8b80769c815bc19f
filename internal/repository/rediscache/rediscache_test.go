package rediscache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/cart"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/ids"
	"github.com/groupmeal/groupmeal-backend/internal/repository/rediscache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := database.NewRedisClient(addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestKV(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	kv := rediscache.NewKV(client)
	key := "test:kv:" + ids.New()

	_, err := kv.Get(ctx, key)
	assert.ErrorIs(t, err, cart.ErrKeyNotFound)

	require.NoError(t, kv.Put(ctx, key, []byte("v"), time.Minute))
	got, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, kv.Delete(ctx, key))
	_, err = kv.Get(ctx, key)
	assert.ErrorIs(t, err, cart.ErrKeyNotFound)
}

func TestMenuCache(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	cache := rediscache.NewMenuCache(client)
	placeID := "ChIJ" + ids.New()

	doc, err := cache.Get(ctx, placeID)
	require.NoError(t, err)
	assert.Nil(t, doc)

	in := &menu.Document{RestaurantName: "Taqueria", Items: []menu.Item{{ID: "taco", Name: "Taco"}}, Source: menu.SourcePartner}
	in.Normalize()
	require.NoError(t, cache.Set(ctx, placeID, in, time.Minute))

	doc, err = cache.Get(ctx, placeID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Taqueria", doc.RestaurantName)
	assert.Len(t, doc.Items, 1)
}

func TestDeliveryStatusCache(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	cache := rediscache.NewDeliveryStatusCache(client)
	orderID := ids.New()

	_, ok, err := cache.Get(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, orderID, delivery.CachedStatus{Status: order.DeliveryPickedUp, UpdatedAt: time.Now()}))
	st, ok, err := cache.Get(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, order.DeliveryPickedUp, st.Status)
}

func TestEventDeduper(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	d := rediscache.NewEventDeduper(client)
	id := "evt_" + ids.New()

	first, err := d.FirstSeen(ctx, id)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, id)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, d.Forget(ctx, id))
	retried, err := d.FirstSeen(ctx, id)
	require.NoError(t, err)
	assert.True(t, retried)
}
