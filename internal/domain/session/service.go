package session

import (
	"context"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

type SessionService interface {
	Create(ctx context.Context, creator user.User, req CreateRequest) (SessionResponse, error)
	GetByID(ctx context.Context, caller user.User, id string) (SessionResponse, error)
	List(ctx context.Context, caller user.User, filter ListFilter) ([]SessionResponse, error)
	// GetCurrent never errors for "no live session"; it returns a nil Session instead
	GetCurrent(ctx context.Context, caller user.User) (CurrentResponse, error)
	Update(ctx context.Context, caller user.User, id string, req UpdateRequest) (SessionResponse, error)
	Delete(ctx context.Context, caller user.User, id string) error
	Respond(ctx context.Context, caller user.User, id string, req RespondRequest) (ParticipantResponse, error)

	// AdvanceByClock activates and closes sessions whose times have passed
	AdvanceByClock(ctx context.Context, now time.Time) (activated, closed int, err error)
}
