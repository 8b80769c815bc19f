package session

import (
	"context"
	"time"
)

type SessionRepository interface {
	Create(ctx context.Context, s Session) (Session, error)
	// GetByID is scoped by company; a session of another company is reported as not found
	GetByID(ctx context.Context, id, companyID string) (Session, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]Session, error)
	// GetCurrent returns the newest active session covering now, or ErrSessionNotFound
	GetCurrent(ctx context.Context, companyID string, now time.Time) (Session, error)
	Update(ctx context.Context, id, companyID string, patch Patch) (Session, error)
	Delete(ctx context.Context, id, companyID string) error

	// ListDueForActivation returns upcoming sessions whose start_time has passed
	ListDueForActivation(ctx context.Context, now time.Time) ([]Session, error)
	// ListDueForClose returns active sessions whose end_time has passed
	ListDueForClose(ctx context.Context, now time.Time) ([]Session, error)
	// SetStatus changes status only if the row still has status from
	SetStatus(ctx context.Context, id string, from, to Status) (bool, error)
}

type ParticipantRepository interface {
	// BulkCreate inserts one row per participant
	BulkCreate(ctx context.Context, participants []Participant) error
	ListBySessionID(ctx context.Context, sessionID string) ([]Participant, error)
	GetBySessionAndUser(ctx context.Context, sessionID, userID string) (Participant, error)
	UpdateResponse(ctx context.Context, p Participant) (Participant, error)
}
