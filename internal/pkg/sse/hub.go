package sse

import (
	"sync"
	"sync/atomic"
)

// Event is one message pushed to subscribers of a company stream
type Event struct {
	CompanyID string
	Event     string
	Data      interface{}
}

type subscriber struct {
	userID string
	ch     chan Event
}

// Hub fans session events out to every connected member of a company
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	dropped     atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers userID on companyID's stream and returns the event channel and a cleanup func
func (h *Hub) Subscribe(companyID, userID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{userID: userID, ch: make(chan Event, 16)}
	if h.subscribers[companyID] == nil {
		h.subscribers[companyID] = make(map[*subscriber]struct{})
	}
	h.subscribers[companyID][sub] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[companyID], sub)
			close(sub.ch)
			if len(h.subscribers[companyID]) == 0 {
				delete(h.subscribers, companyID)
			}
		})
	}

	return sub.ch, cleanup
}

// Publish sends event to every subscriber of companyID. Slow consumers miss events rather than block.
func (h *Hub) Publish(companyID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.CompanyID = companyID
	for sub := range h.subscribers[companyID] {
		select {
		case sub.ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
}

// PublishToUser sends event only to one member's connections
func (h *Hub) PublishToUser(companyID, userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.CompanyID = companyID
	for sub := range h.subscribers[companyID] {
		if sub.userID != userID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of open connections for a company
func (h *Hub) SubscriberCount(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[companyID])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// Dropped counts events skipped because a subscriber buffer was full
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
