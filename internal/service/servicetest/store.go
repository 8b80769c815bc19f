// Package servicetest provides an in-memory implementation of every repository port,
// used by the service unit tests in place of PostgreSQL.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
)

type state struct {
	users           map[string]user.User
	companies       map[string]company.Company
	invitations     map[string]invitation.Invitation
	sessions        map[string]session.Session
	participants    map[string]session.Participant
	orders          map[string]order.Order
	intents         map[string]payment.Intent
	disputes        map[string]payment.Dispute
	deliveryIntents map[string]delivery.Intent
	restaurants     map[string]menu.Restaurant
	codeSeq         int64
}

func newState() state {
	return state{
		users:           map[string]user.User{},
		companies:       map[string]company.Company{},
		invitations:     map[string]invitation.Invitation{},
		sessions:        map[string]session.Session{},
		participants:    map[string]session.Participant{},
		orders:          map[string]order.Order{},
		intents:         map[string]payment.Intent{},
		disputes:        map[string]payment.Dispute{},
		deliveryIntents: map[string]delivery.Intent{},
		restaurants:     map[string]menu.Restaurant{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.invitations {
		v.UsedBy = append([]string(nil), v.UsedBy...)
		c.invitations[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.participants {
		c.participants[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.intents {
		c.intents[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.deliveryIntents {
		c.deliveryIntents[k] = v
	}
	for k, v := range s.restaurants {
		c.restaurants[k] = v
	}
	c.codeSeq = s.codeSeq
	return c
}

// Store holds every table in memory. Repositories returned by its accessors share it.
type Store struct {
	mu    sync.Mutex
	st    state
	clock time.Time
	// Fail injects an error for an operation, keyed like "participants.BulkCreate"
	Fail map[string]error
}

func NewStore() *Store {
	return &Store{
		st:    newState(),
		clock: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		Fail:  map[string]error{},
	}
}

// tick returns a strictly increasing timestamp so created_at ordering is deterministic
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *Store) fail(op string) error {
	return s.Fail[op]
}

// WithinTx implements database.TxRunner. State is restored when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

var _ database.TxRunner = (*Store)(nil)

// SeedUser inserts u, assigning an id when empty
func (s *Store) SeedUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.ExternalID == "" {
		u.ExternalID = "ext_" + u.ID
	}
	if u.Role == "" {
		u.Role = user.RoleEmployee
	}
	u.CreatedAt = s.tick()
	u.UpdatedAt = u.CreatedAt
	s.st.users[u.ID] = u
	return u
}

// SeedCompany inserts a company and returns it
func (s *Store) SeedCompany(name string) company.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := company.Company{ID: uuid.NewString(), Name: name, CreatedAt: s.tick()}
	c.UpdatedAt = c.CreatedAt
	s.st.companies[c.ID] = c
	return c
}

// SeedOrder inserts o as-is, assigning an id when empty
func (s *Store) SeedOrder(o order.Order) order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = s.tick()
	o.UpdatedAt = o.CreatedAt
	s.st.orders[o.ID] = o
	return o
}

// SeedRestaurant inserts r as-is
func (s *Store) SeedRestaurant(r menu.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.CreatedAt = s.tick()
	r.UpdatedAt = r.CreatedAt
	s.st.restaurants[r.ID] = r
}

// Order returns the stored order by id
func (s *Store) Order(id string) (order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	return o, ok
}

// Participants returns all participant rows of a session
func (s *Store) Participants(sessionID string) []session.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []session.Participant
	for _, p := range s.st.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out
}

// SessionCount returns the number of stored sessions
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.sessions)
}

// Disputes returns every recorded dispute
func (s *Store) Disputes() []payment.Dispute {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]payment.Dispute, 0, len(s.st.disputes))
	for _, d := range s.st.disputes {
		out = append(out, d)
	}
	return out
}

// DeliveryIntents returns every outbox row
func (s *Store) DeliveryIntents() []delivery.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]delivery.Intent, 0, len(s.st.deliveryIntents))
	for _, in := range s.st.deliveryIntents {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// PaymentIntent returns the stored intent record
func (s *Store) PaymentIntent(id string) (payment.Intent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.st.intents[id]
	return in, ok
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
