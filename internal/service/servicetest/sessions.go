package servicetest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
)

type sessionRepo struct{ s *Store }

func (s *Store) Sessions() session.SessionRepository { return &sessionRepo{s} }

func (r *sessionRepo) Create(_ context.Context, in session.Session) (session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.Create"); err != nil {
		return session.Session{}, err
	}
	in.ID = uuid.NewString()
	in.CreatedAt = r.s.tick()
	in.UpdatedAt = in.CreatedAt
	r.s.st.sessions[in.ID] = in
	return in, nil
}

func (r *sessionRepo) GetByID(_ context.Context, id, companyID string) (session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.st.sessions[id]
	if !ok || s.CompanyID != companyID {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s, nil
}

func (r *sessionRepo) List(_ context.Context, companyID string, filter session.ListFilter) ([]session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]session.Session, 0)
	for _, s := range r.s.st.sessions {
		if s.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *sessionRepo) GetCurrent(_ context.Context, companyID string, now time.Time) (session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *session.Session
	for _, s := range r.s.st.sessions {
		if s.CompanyID != companyID || !s.IsCurrent(now) {
			continue
		}
		if best == nil || s.CreatedAt.After(best.CreatedAt) {
			best = &s
		}
	}
	if best == nil {
		return session.Session{}, session.ErrSessionNotFound
	}
	return *best, nil
}

func (r *sessionRepo) Update(_ context.Context, id, companyID string, p session.Patch) (session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.st.sessions[id]
	if !ok || s.CompanyID != companyID {
		return session.Session{}, session.ErrSessionNotFound
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.GroupOrderLink != nil {
		if *p.GroupOrderLink == "" {
			s.GroupOrderLink = nil
		} else {
			link := *p.GroupOrderLink
			s.GroupOrderLink = &link
		}
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.RestaurantName != nil {
		s.RestaurantName = *p.RestaurantName
	}
	s.UpdatedAt = r.s.tick()
	r.s.st.sessions[id] = s
	return s, nil
}

func (r *sessionRepo) Delete(_ context.Context, id, companyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.st.sessions[id]
	if !ok || s.CompanyID != companyID {
		return session.ErrSessionNotFound
	}
	delete(r.s.st.sessions, id)
	for pid, p := range r.s.st.participants {
		if p.SessionID == id {
			delete(r.s.st.participants, pid)
		}
	}
	return nil
}

func (r *sessionRepo) ListDueForActivation(_ context.Context, now time.Time) ([]session.Session, error) {
	return r.due(func(s session.Session) bool {
		return s.Status == session.StatusUpcoming && !s.StartTime.After(now)
	}), nil
}

func (r *sessionRepo) ListDueForClose(_ context.Context, now time.Time) ([]session.Session, error) {
	return r.due(func(s session.Session) bool {
		return s.Status == session.StatusActive && s.EndTime.Before(now)
	}), nil
}

func (r *sessionRepo) due(match func(session.Session) bool) []session.Session {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]session.Session, 0)
	for _, s := range r.s.st.sessions {
		if match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *sessionRepo) SetStatus(_ context.Context, id string, from, to session.Status) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.st.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = r.s.tick()
	r.s.st.sessions[id] = s
	return true, nil
}

type participantRepo struct{ s *Store }

func (s *Store) SessionParticipants() session.ParticipantRepository { return &participantRepo{s} }

func (r *participantRepo) BulkCreate(_ context.Context, ps []session.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("participants.BulkCreate"); err != nil {
		return err
	}
	for _, p := range ps {
		for _, existing := range r.s.st.participants {
			if existing.SessionID == p.SessionID && existing.UserID == p.UserID {
				return fmt.Errorf("duplicate participant %s", p.UserID)
			}
		}
		p.ID = uuid.NewString()
		p.CreatedAt = r.s.tick()
		p.UpdatedAt = p.CreatedAt
		r.s.st.participants[p.ID] = p
	}
	return nil
}

func (r *participantRepo) ListBySessionID(_ context.Context, sessionID string) ([]session.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]session.Participant, 0)
	for _, p := range r.s.st.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (r *participantRepo) GetBySessionAndUser(_ context.Context, sessionID, userID string) (session.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.st.participants {
		if p.SessionID == sessionID && p.UserID == userID {
			return p, nil
		}
	}
	return session.Participant{}, session.ErrParticipantNotFound
}

func (r *participantRepo) UpdateResponse(_ context.Context, p session.Participant) (session.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.st.participants[p.ID]
	if !ok {
		return session.Participant{}, session.ErrParticipantNotFound
	}
	stored.Status = p.Status
	stored.PresetOrder = p.PresetOrder
	stored.RespondedAt = p.RespondedAt
	stored.UpdatedAt = r.s.tick()
	r.s.st.participants[p.ID] = stored
	return stored, nil
}
