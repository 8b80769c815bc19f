package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/sse"
	"github.com/groupmeal/groupmeal-backend/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *servicetest.Store
	hub      *sse.Hub
	svc      *SessionServiceImpl
	manager  user.User
	employee user.User
	company  string
	now      time.Time
}

func newFixture(t *testing.T, extraMembers int) *fixture {
	t.Helper()
	store := servicetest.NewStore()
	c := store.SeedCompany("Acme")
	manager := store.SeedUser(user.User{Email: "manager@acme.test", DisplayName: "Mona", Role: user.RoleManager, CompanyID: &c.ID})
	employee := store.SeedUser(user.User{Email: "emp@acme.test", DisplayName: "Eli", Role: user.RoleEmployee, CompanyID: &c.ID})
	for i := 0; i < extraMembers; i++ {
		store.SeedUser(user.User{Role: user.RoleEmployee, CompanyID: &c.ID})
	}

	hub := sse.NewHub()
	f := &fixture{
		store:    store,
		hub:      hub,
		manager:  manager,
		employee: employee,
		company:  c.ID,
		now:      time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC),
	}
	f.svc = NewSessionService(store, store.Sessions(), store.SessionParticipants(), store.Users(), hub)
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) create(t *testing.T, start, end time.Time, startNow bool) session.SessionResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.manager, session.CreateRequest{
		RestaurantName: "Noodle Bar",
		StartTime:      start.Format(time.RFC3339),
		EndTime:        end.Format(time.RFC3339),
		StartNow:       startNow,
	})
	require.NoError(t, err)
	return resp
}

func TestCreate_FansOutOneParticipantPerMember(t *testing.T) {
	f := newFixture(t, 3)

	events, cleanup := f.hub.Subscribe(f.company, f.employee.ID)
	defer cleanup()

	resp := f.create(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), false)

	assert.Equal(t, "upcoming", resp.Status)
	assert.Len(t, resp.Participants, 5)
	for _, p := range resp.Participants {
		assert.Equal(t, "pending", p.Status)
		assert.Nil(t, p.RespondedAt)
	}
	assert.Len(t, f.store.Participants(resp.ID), 5)

	select {
	case ev := <-events:
		assert.Equal(t, EventSessionCreated, ev.Event)
	default:
		t.Fatal("expected a session.created event")
	}
}

func TestCreate_StartNow(t *testing.T) {
	f := newFixture(t, 0)

	resp := f.create(t, f.now.Add(-time.Minute), f.now.Add(time.Hour), true)
	assert.Equal(t, "active", resp.Status)

	// start in the future stays upcoming even with start_now
	resp = f.create(t, f.now.Add(time.Minute), f.now.Add(time.Hour), true)
	assert.Equal(t, "upcoming", resp.Status)
}

func TestCreate_Forbidden(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	req := session.CreateRequest{
		RestaurantName: "Noodle Bar",
		StartTime:      f.now.Format(time.RFC3339),
		EndTime:        f.now.Add(time.Hour).Format(time.RFC3339),
	}

	_, err := f.svc.Create(ctx, f.employee, req)
	assert.ErrorIs(t, err, session.ErrCreateForbidden)

	admin := f.store.SeedUser(user.User{Role: user.RoleAdmin, CompanyID: &f.company})
	_, err = f.svc.Create(ctx, admin, req)
	assert.ErrorIs(t, err, session.ErrCreateForbidden)

	orphan := f.store.SeedUser(user.User{Role: user.RoleManager})
	_, err = f.svc.Create(ctx, orphan, req)
	assert.ErrorIs(t, err, user.ErrCompanyIDRequired)

	assert.Zero(t, f.store.SessionCount())
}

func TestCreate_InvalidTimeRange(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.Create(context.Background(), f.manager, session.CreateRequest{
		RestaurantName: "Noodle Bar",
		StartTime:      f.now.Add(time.Hour).Format(time.RFC3339),
		EndTime:        f.now.Format(time.RFC3339),
	})
	require.Error(t, err)
	assert.Zero(t, f.store.SessionCount())
}

func TestCreate_RollsBackWhenFanOutFails(t *testing.T) {
	f := newFixture(t, 2)
	f.store.Fail["participants.BulkCreate"] = errors.New("insert failed")

	_, err := f.svc.Create(context.Background(), f.manager, session.CreateRequest{
		RestaurantName: "Noodle Bar",
		StartTime:      f.now.Format(time.RFC3339),
		EndTime:        f.now.Add(time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err)
	assert.Zero(t, f.store.SessionCount())
}

func TestGetCurrent(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	cur, err := f.svc.GetCurrent(ctx, f.employee)
	require.NoError(t, err)
	assert.Nil(t, cur.Session)

	created := f.create(t, f.now.Add(-time.Minute), f.now.Add(30*time.Minute), true)

	cur, err = f.svc.GetCurrent(ctx, f.employee)
	require.NoError(t, err)
	require.NotNil(t, cur.Session)
	assert.Equal(t, created.ID, cur.Session.ID)
	assert.Len(t, cur.Session.Participants, 2)

	// after end_time nothing is current even before the clock job closes it
	f.now = f.now.Add(31 * time.Minute)
	cur, err = f.svc.GetCurrent(ctx, f.employee)
	require.NoError(t, err)
	assert.Nil(t, cur.Session)
}

func TestGetCurrent_FollowsTimeWindow(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	start := f.now.Add(time.Hour)
	created := f.create(t, start, start.Add(time.Hour), false)

	active := "active"
	_, err := f.svc.Update(ctx, f.manager, created.ID, session.UpdateRequest{Status: &active})
	require.NoError(t, err)

	cur, err := f.svc.GetCurrent(ctx, f.employee)
	require.NoError(t, err)
	assert.Nil(t, cur.Session, "active but not started yet")

	for _, at := range []time.Time{start, start.Add(30 * time.Minute), start.Add(time.Hour)} {
		f.now = at
		cur, err = f.svc.GetCurrent(ctx, f.employee)
		require.NoError(t, err)
		require.NotNil(t, cur.Session, "at %s", at)
		assert.Equal(t, created.ID, cur.Session.ID)
	}

	f.now = start.Add(time.Hour + time.Second)
	cur, err = f.svc.GetCurrent(ctx, f.employee)
	require.NoError(t, err)
	assert.Nil(t, cur.Session)
}

func TestGetCurrent_NewestWins(t *testing.T) {
	f := newFixture(t, 0)

	f.create(t, f.now.Add(-time.Minute), f.now.Add(time.Hour), true)
	newer := f.create(t, f.now.Add(-time.Minute), f.now.Add(time.Hour), true)

	cur, err := f.svc.GetCurrent(context.Background(), f.employee)
	require.NoError(t, err)
	require.NotNil(t, cur.Session)
	assert.Equal(t, newer.ID, cur.Session.ID)
}

func TestGetByID_OtherCompanyIsNotFound(t *testing.T) {
	f := newFixture(t, 0)
	created := f.create(t, f.now, f.now.Add(time.Hour), false)

	other := f.store.SeedCompany("Other")
	outsider := f.store.SeedUser(user.User{Role: user.RoleManager, CompanyID: &other.ID})

	_, err := f.svc.GetByID(context.Background(), outsider, created.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	err = f.svc.Delete(context.Background(), outsider, created.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	got, err := f.svc.GetByID(context.Background(), f.employee, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)
}

func TestUpdateAndDelete_OtherCompanyCannotTouchSession(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	created := f.create(t, f.now, f.now.Add(time.Hour), false)

	other := f.store.SeedCompany("Other")
	outsiders := []user.User{
		f.store.SeedUser(user.User{Role: user.RoleManager, CompanyID: &other.ID}),
		f.store.SeedUser(user.User{Role: user.RoleAdmin, CompanyID: &other.ID}),
	}

	active := "active"
	link := "https://order.example.com/group/hijack"
	for _, outsider := range outsiders {
		_, err := f.svc.Update(ctx, outsider, created.ID, session.UpdateRequest{Status: &active, GroupOrderLink: &link})
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		err = f.svc.Delete(ctx, outsider, created.ID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	}

	got, err := f.svc.GetByID(ctx, f.manager, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "upcoming", got.Status)
	assert.Nil(t, got.GroupOrderLink)
	assert.Len(t, got.Participants, 3)
	assert.Len(t, f.store.Participants(created.ID), 3)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	created := f.create(t, f.now, f.now.Add(time.Hour), false)

	active := "active"
	_, err := f.svc.Update(ctx, f.employee, created.ID, session.UpdateRequest{Status: &active})
	assert.ErrorIs(t, err, session.ErrManageForbidden)

	updated, err := f.svc.Update(ctx, f.manager, created.ID, session.UpdateRequest{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, "active", updated.Status)

	upcoming := "upcoming"
	_, err = f.svc.Update(ctx, f.manager, created.ID, session.UpdateRequest{Status: &upcoming})
	assert.ErrorIs(t, err, session.ErrInvalidTransition)

	earlyEnd := f.now.Add(-time.Hour).Format(time.RFC3339)
	_, err = f.svc.Update(ctx, f.manager, created.ID, session.UpdateRequest{EndTime: &earlyEnd})
	assert.ErrorIs(t, err, session.ErrInvalidTimeRange)

	admin := f.store.SeedUser(user.User{Role: user.RoleAdmin, CompanyID: &f.company})
	link := "https://order.example.com/group/abc"
	updated, err = f.svc.Update(ctx, admin, created.ID, session.UpdateRequest{GroupOrderLink: &link})
	require.NoError(t, err)
	require.NotNil(t, updated.GroupOrderLink)
	assert.Equal(t, link, *updated.GroupOrderLink)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	created := f.create(t, f.now, f.now.Add(time.Hour), false)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.employee, created.ID), session.ErrManageForbidden)
	require.NoError(t, f.svc.Delete(ctx, f.manager, created.ID))
	assert.Empty(t, f.store.Participants(created.ID))

	_, err := f.svc.GetByID(ctx, f.manager, created.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRespond(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	created := f.create(t, f.now.Add(-time.Minute), f.now.Add(time.Hour), true)

	preset := json.RawMessage(`{"item":"pad thai"}`)
	p, err := f.svc.Respond(ctx, f.employee, created.ID, session.RespondRequest{Status: "preset", PresetOrder: preset})
	require.NoError(t, err)
	assert.Equal(t, "preset", p.Status)
	assert.Equal(t, f.employee.ID, p.UserID)
	assert.JSONEq(t, string(preset), string(p.PresetOrder))
	require.NotNil(t, p.RespondedAt)

	p, err = f.svc.Respond(ctx, f.employee, created.ID, session.RespondRequest{Status: "passed"})
	require.NoError(t, err)
	assert.Equal(t, "passed", p.Status)
	assert.Empty(t, p.PresetOrder)

	_, err = f.svc.Respond(ctx, f.employee, created.ID, session.RespondRequest{Status: "preset"})
	require.Error(t, err)

	// members who joined after the session was created have no row
	late := f.store.SeedUser(user.User{Role: user.RoleEmployee, CompanyID: &f.company})
	_, err = f.svc.Respond(ctx, late, created.ID, session.RespondRequest{Status: "ordered"})
	assert.ErrorIs(t, err, session.ErrParticipantNotFound)

	closed := "closed"
	_, err = f.svc.Update(ctx, f.manager, created.ID, session.UpdateRequest{Status: &closed})
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, f.employee, created.ID, session.RespondRequest{Status: "ordered"})
	assert.ErrorIs(t, err, session.ErrSessionClosed)
}

func TestAdvanceByClock(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	soon := f.create(t, f.now.Add(10*time.Minute), f.now.Add(time.Hour), false)
	brief := f.create(t, f.now.Add(5*time.Minute), f.now.Add(20*time.Minute), false)
	f.create(t, f.now.Add(24*time.Hour), f.now.Add(25*time.Hour), false)

	activated, closed, err := f.svc.AdvanceByClock(ctx, f.now.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, activated)
	assert.Equal(t, 0, closed)

	// brief has ended
	activated, closed, err = f.svc.AdvanceByClock(ctx, f.now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, activated)
	assert.Equal(t, 1, closed)

	got, err := f.svc.GetByID(ctx, f.manager, brief.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", got.Status)
	got, err = f.svc.GetByID(ctx, f.manager, soon.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", got.Status)

	// idempotent at a fixed instant
	activated, closed, err = f.svc.AdvanceByClock(ctx, f.now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, activated)
	assert.Zero(t, closed)
}
