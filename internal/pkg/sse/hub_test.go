package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishIsCompanyScoped(t *testing.T) {
	hub := NewHub()

	a, cleanupA := hub.Subscribe("company-a", "u1")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("company-b", "u2")
	defer cleanupB()

	hub.Publish("company-a", Event{Event: "session.created", Data: "x"})

	select {
	case ev := <-a:
		assert.Equal(t, "session.created", ev.Event)
		assert.Equal(t, "company-a", ev.CompanyID)
	default:
		t.Fatal("expected event for company-a subscriber")
	}

	select {
	case <-b:
		t.Fatal("company-b subscriber must not receive company-a events")
	default:
	}
}

func TestHubPublishToUser(t *testing.T) {
	hub := NewHub()

	u1, c1 := hub.Subscribe("c", "u1")
	defer c1()
	u2, c2 := hub.Subscribe("c", "u2")
	defer c2()

	hub.PublishToUser("c", "u2", Event{Event: "participant.updated"})

	assert.Len(t, u1, 0)
	require.Len(t, u2, 1)
}

func TestHubCleanup(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe("c", "u1")
	assert.Equal(t, 1, hub.SubscriberCount("c"))

	cleanup()
	cleanup()

	assert.Equal(t, 0, hub.SubscriberCount("c"))
	assert.Equal(t, 0, hub.TotalSubscribers())
	_, open := <-ch
	assert.False(t, open)
}

func TestHubDropsWhenFull(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("c", "u1")
	defer cleanup()

	for i := 0; i < 20; i++ {
		hub.Publish("c", Event{Event: "tick"})
	}

	assert.Equal(t, int64(4), hub.Dropped())
}
