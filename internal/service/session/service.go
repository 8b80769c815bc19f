package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/sse"
	"golang.org/x/sync/errgroup"
)

// Event names pushed on the company stream
const (
	EventSessionCreated       = "session.created"
	EventSessionUpdated       = "session.updated"
	EventSessionDeleted       = "session.deleted"
	EventParticipantResponded = "participant.responded"
)

var _ session.SessionService = (*SessionServiceImpl)(nil)

type SessionServiceImpl struct {
	tx              database.TxRunner
	sessionRepo     session.SessionRepository
	participantRepo session.ParticipantRepository
	userRepo        user.UserRepository
	hub             *sse.Hub
	now             func() time.Time
}

func NewSessionService(
	tx database.TxRunner,
	sessionRepo session.SessionRepository,
	participantRepo session.ParticipantRepository,
	userRepo user.UserRepository,
	hub *sse.Hub,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		tx:              tx,
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		hub:             hub,
		now:             time.Now,
	}
}

// SetClock overrides the time source
func (s *SessionServiceImpl) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SessionServiceImpl) publish(companyID, name string, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(companyID, sse.Event{CompanyID: companyID, Event: name, Data: data})
}

func companyOf(u user.User) (string, error) {
	if !u.HasCompany() {
		return "", user.ErrCompanyIDRequired
	}
	return *u.CompanyID, nil
}

// Create implements session.SessionService.
// The session row and one pending participant per company member are written in one transaction.
func (s *SessionServiceImpl) Create(ctx context.Context, creator user.User, req session.CreateRequest) (session.SessionResponse, error) {
	if !creator.IsManager() {
		return session.SessionResponse{}, session.ErrCreateForbidden
	}
	companyID, err := companyOf(creator)
	if err != nil {
		return session.SessionResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return session.SessionResponse{}, err
	}

	status := session.StatusUpcoming
	if req.StartNow && !req.Start.After(s.now()) {
		status = session.StatusActive
	}

	var (
		created      session.Session
		participants []session.Participant
	)
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.sessionRepo.Create(txCtx, session.Session{
			CompanyID:         companyID,
			RestaurantName:    req.RestaurantName,
			RestaurantOptions: req.RestaurantOptions,
			StartTime:         req.Start,
			EndTime:           req.End,
			Status:            status,
			GroupOrderLink:    req.GroupOrderLink,
			CreatedBy:         creator.ID,
		})
		if err != nil {
			return err
		}

		members, err := s.userRepo.ListByCompanyID(txCtx, companyID)
		if err != nil {
			return fmt.Errorf("failed to list company members: %w", err)
		}
		if len(members) == 0 {
			return session.ErrNoParticipants
		}

		rows := make([]session.Participant, 0, len(members))
		for _, m := range members {
			rows = append(rows, session.Participant{
				SessionID:   created.ID,
				UserID:      m.ID,
				DisplayName: m.Name(),
				Status:      session.ParticipantPending,
			})
		}
		if err := s.participantRepo.BulkCreate(txCtx, rows); err != nil {
			return err
		}

		participants, err = s.participantRepo.ListBySessionID(txCtx, created.ID)
		return err
	})
	if err != nil {
		return session.SessionResponse{}, err
	}

	resp := session.ToResponse(created, participants)
	slog.Info("order session created", "session_id", created.ID, "company_id", companyID, "participants", len(participants), "status", created.Status)
	s.publish(companyID, EventSessionCreated, resp)
	return resp, nil
}

// GetByID implements session.SessionService.
func (s *SessionServiceImpl) GetByID(ctx context.Context, caller user.User, id string) (session.SessionResponse, error) {
	companyID, err := companyOf(caller)
	if err != nil {
		return session.SessionResponse{}, err
	}

	var (
		sess         session.Session
		participants []session.Participant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sess, err = s.sessionRepo.GetByID(gctx, id, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListBySessionID(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return session.SessionResponse{}, err
	}

	return session.ToResponse(sess, participants), nil
}

// List implements session.SessionService.
func (s *SessionServiceImpl) List(ctx context.Context, caller user.User, filter session.ListFilter) ([]session.SessionResponse, error) {
	companyID, err := companyOf(caller)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.List(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]session.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, session.ToResponse(sess, nil))
	}
	return resp, nil
}

// GetCurrent implements session.SessionService.
func (s *SessionServiceImpl) GetCurrent(ctx context.Context, caller user.User) (session.CurrentResponse, error) {
	companyID, err := companyOf(caller)
	if err != nil {
		return session.CurrentResponse{}, err
	}

	sess, err := s.sessionRepo.GetCurrent(ctx, companyID, s.now())
	if errors.Is(err, session.ErrSessionNotFound) {
		return session.CurrentResponse{}, nil
	}
	if err != nil {
		return session.CurrentResponse{}, err
	}

	participants, err := s.participantRepo.ListBySessionID(ctx, sess.ID)
	if err != nil {
		return session.CurrentResponse{}, err
	}
	resp := session.ToResponse(sess, participants)
	return session.CurrentResponse{Session: &resp}, nil
}

// Update implements session.SessionService.
func (s *SessionServiceImpl) Update(ctx context.Context, caller user.User, id string, req session.UpdateRequest) (session.SessionResponse, error) {
	if !caller.CanManageSessions() {
		return session.SessionResponse{}, session.ErrManageForbidden
	}
	companyID, err := companyOf(caller)
	if err != nil {
		return session.SessionResponse{}, err
	}
	patch, err := req.ToPatch()
	if err != nil {
		return session.SessionResponse{}, err
	}

	existing, err := s.sessionRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return session.SessionResponse{}, err
	}

	if patch.Status != nil && !session.CanTransition(existing.Status, *patch.Status) {
		return session.SessionResponse{}, fmt.Errorf("%w: %s to %s", session.ErrInvalidTransition, existing.Status, *patch.Status)
	}

	start, end := existing.StartTime, existing.EndTime
	if patch.StartTime != nil {
		start = *patch.StartTime
	}
	if patch.EndTime != nil {
		end = *patch.EndTime
	}
	if end.Before(start) {
		return session.SessionResponse{}, session.ErrInvalidTimeRange
	}

	updated, err := s.sessionRepo.Update(ctx, id, companyID, patch)
	if err != nil {
		return session.SessionResponse{}, err
	}

	resp := session.ToResponse(updated, nil)
	slog.Info("order session updated", "session_id", id, "company_id", companyID, "status", updated.Status, "by", caller.ID)
	s.publish(companyID, EventSessionUpdated, resp)
	return resp, nil
}

// Delete implements session.SessionService.
func (s *SessionServiceImpl) Delete(ctx context.Context, caller user.User, id string) error {
	if !caller.CanManageSessions() {
		return session.ErrManageForbidden
	}
	companyID, err := companyOf(caller)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.Delete(ctx, id, companyID); err != nil {
		return err
	}

	slog.Info("order session deleted", "session_id", id, "company_id", companyID, "by", caller.ID)
	s.publish(companyID, EventSessionDeleted, map[string]string{"id": id})
	return nil
}

// Respond implements session.SessionService.
func (s *SessionServiceImpl) Respond(ctx context.Context, caller user.User, id string, req session.RespondRequest) (session.ParticipantResponse, error) {
	if err := req.Validate(); err != nil {
		return session.ParticipantResponse{}, err
	}
	companyID, err := companyOf(caller)
	if err != nil {
		return session.ParticipantResponse{}, err
	}

	sess, err := s.sessionRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return session.ParticipantResponse{}, err
	}
	if sess.Status == session.StatusClosed {
		return session.ParticipantResponse{}, session.ErrSessionClosed
	}

	p, err := s.participantRepo.GetBySessionAndUser(ctx, id, caller.ID)
	if err != nil {
		return session.ParticipantResponse{}, err
	}

	status, _ := session.ParseParticipantStatus(req.Status)
	now := s.now()
	p.Status = status
	p.PresetOrder = nil
	if status == session.ParticipantPreset {
		p.PresetOrder = req.PresetOrder
	}
	p.RespondedAt = &now

	updated, err := s.participantRepo.UpdateResponse(ctx, p)
	if err != nil {
		return session.ParticipantResponse{}, err
	}

	resp := session.ToParticipantResponse(updated)
	s.publish(companyID, EventParticipantResponded, map[string]interface{}{
		"session_id":  id,
		"participant": resp,
	})
	return resp, nil
}

// AdvanceByClock implements session.SessionService.
// Rows are flipped with a compare-and-set on status, so concurrent runs never double count.
func (s *SessionServiceImpl) AdvanceByClock(ctx context.Context, now time.Time) (int, int, error) {
	var activated, closed int

	due, err := s.sessionRepo.ListDueForActivation(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	for _, sess := range due {
		ok, err := s.sessionRepo.SetStatus(ctx, sess.ID, session.StatusUpcoming, session.StatusActive)
		if err != nil {
			return activated, closed, err
		}
		if ok {
			activated++
			sess.Status = session.StatusActive
			s.publish(sess.CompanyID, EventSessionUpdated, session.ToResponse(sess, nil))
		}
	}

	ending, err := s.sessionRepo.ListDueForClose(ctx, now)
	if err != nil {
		return activated, closed, err
	}
	for _, sess := range ending {
		ok, err := s.sessionRepo.SetStatus(ctx, sess.ID, session.StatusActive, session.StatusClosed)
		if err != nil {
			return activated, closed, err
		}
		if ok {
			closed++
			sess.Status = session.StatusClosed
			s.publish(sess.CompanyID, EventSessionUpdated, session.ToResponse(sess, nil))
		}
	}

	return activated, closed, nil
}
