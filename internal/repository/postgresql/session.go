package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/session"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `
	id, company_id, restaurant_name, restaurant_options, start_time, end_time,
	status, group_order_link, created_by, created_at, updated_at`

type sessionRepositoryImpl struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) session.SessionRepository {
	return &sessionRepositoryImpl{db: db}
}

func scanSession(row pgx.Row) (session.Session, error) {
	var s session.Session
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.RestaurantName, &s.RestaurantOptions, &s.StartTime, &s.EndTime,
		&s.Status, &s.GroupOrderLink, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func collectSessions(rows pgx.Rows) ([]session.Session, error) {
	defer rows.Close()

	sessions := make([]session.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Create implements session.SessionRepository.
func (r *sessionRepositoryImpl) Create(ctx context.Context, s session.Session) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	opts := s.RestaurantOptions
	if opts == nil {
		opts = []session.RestaurantOption{}
	}

	query := `
		INSERT INTO order_sessions (
			company_id, restaurant_name, restaurant_options, start_time, end_time,
			status, group_order_link, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + sessionColumns

	created, err := scanSession(q.QueryRow(ctx, query,
		s.CompanyID, s.RestaurantName, opts, s.StartTime, s.EndTime,
		string(s.Status), s.GroupOrderLink, s.CreatedBy,
	))
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return created, nil
}

// GetByID implements session.SessionRepository.
func (r *sessionRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanSession(q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM order_sessions WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// List implements session.SessionRepository.
func (r *sessionRepositoryImpl) List(ctx context.Context, companyID string, filter session.ListFilter) ([]session.Session, error) {
	q := GetQuerier(ctx, r.db)

	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := q.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM order_sessions
		WHERE company_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY start_time DESC, created_at DESC
		LIMIT $3
	`, companyID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return collectSessions(rows)
}

// GetCurrent implements session.SessionRepository.
func (r *sessionRepositoryImpl) GetCurrent(ctx context.Context, companyID string, now time.Time) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanSession(q.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM order_sessions
		WHERE company_id = $1 AND status = 'active' AND start_time <= $2 AND end_time >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, companyID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to get current session: %w", err)
	}
	return s, nil
}

// Update implements session.SessionRepository. Only non-nil patch fields are written;
// an empty group_order_link clears the link.
func (r *sessionRepositoryImpl) Update(ctx context.Context, id, companyID string, patch session.Patch) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE order_sessions SET
			status = COALESCE($1, status),
			group_order_link = CASE WHEN $2::text IS NULL THEN group_order_link ELSE NULLIF($2, '') END,
			start_time = COALESCE($3, start_time),
			end_time = COALESCE($4, end_time),
			restaurant_name = COALESCE($5, restaurant_name),
			updated_at = NOW()
		WHERE id = $6 AND company_id = $7
		RETURNING ` + sessionColumns

	s, err := scanSession(q.QueryRow(ctx, query,
		status, patch.GroupOrderLink, patch.StartTime, patch.EndTime, patch.RestaurantName, id, companyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to update session: %w", err)
	}
	return s, nil
}

// Delete implements session.SessionRepository. Participants go with it through ON DELETE CASCADE.
func (r *sessionRepositoryImpl) Delete(ctx context.Context, id, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM order_sessions WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// ListDueForActivation implements session.SessionRepository.
func (r *sessionRepositoryImpl) ListDueForActivation(ctx context.Context, now time.Time) ([]session.Session, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM order_sessions
		WHERE status = 'upcoming' AND start_time <= $1
		ORDER BY start_time
		LIMIT 500
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions due for activation: %w", err)
	}
	return collectSessions(rows)
}

// ListDueForClose implements session.SessionRepository.
func (r *sessionRepositoryImpl) ListDueForClose(ctx context.Context, now time.Time) ([]session.Session, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM order_sessions
		WHERE status = 'active' AND end_time < $1
		ORDER BY end_time
		LIMIT 500
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions due for close: %w", err)
	}
	return collectSessions(rows)
}

// SetStatus implements session.SessionRepository.
func (r *sessionRepositoryImpl) SetStatus(ctx context.Context, id string, from, to session.Status) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE order_sessions SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to set session status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type participantRepositoryImpl struct {
	db *database.DB
}

func NewParticipantRepository(db *database.DB) session.ParticipantRepository {
	return &participantRepositoryImpl{db: db}
}

const participantColumns = `id, session_id, user_id, display_name, status, preset_order, responded_at, created_at, updated_at`

func scanParticipant(row pgx.Row) (session.Participant, error) {
	var p session.Participant
	err := row.Scan(
		&p.ID, &p.SessionID, &p.UserID, &p.DisplayName, &p.Status,
		&p.PresetOrder, &p.RespondedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// BulkCreate implements session.ParticipantRepository.
func (r *participantRepositoryImpl) BulkCreate(ctx context.Context, participants []session.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	sessionIDs := make([]string, len(participants))
	userIDs := make([]string, len(participants))
	names := make([]string, len(participants))
	statuses := make([]string, len(participants))
	for i, p := range participants {
		sessionIDs[i] = p.SessionID
		userIDs[i] = p.UserID
		names[i] = p.DisplayName
		statuses[i] = string(p.Status)
	}

	tag, err := q.Exec(ctx, `
		INSERT INTO order_session_participants (session_id, user_id, display_name, status)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::text[], $4::text[])
	`, sessionIDs, userIDs, names, statuses)
	if err != nil {
		return fmt.Errorf("failed to create participants: %w", err)
	}
	if int(tag.RowsAffected()) != len(participants) {
		return fmt.Errorf("failed to create participants: inserted %d of %d", tag.RowsAffected(), len(participants))
	}
	return nil
}

// ListBySessionID implements session.ParticipantRepository.
func (r *participantRepositoryImpl) ListBySessionID(ctx context.Context, sessionID string) ([]session.Participant, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+participantColumns+`
		FROM order_session_participants
		WHERE session_id = $1
		ORDER BY display_name, created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]session.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// GetBySessionAndUser implements session.ParticipantRepository.
func (r *participantRepositoryImpl) GetBySessionAndUser(ctx context.Context, sessionID, userID string) (session.Participant, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanParticipant(q.QueryRow(ctx, `
		SELECT `+participantColumns+`
		FROM order_session_participants
		WHERE session_id = $1 AND user_id = $2
	`, sessionID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Participant{}, session.ErrParticipantNotFound
		}
		return session.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// UpdateResponse implements session.ParticipantRepository.
func (r *participantRepositoryImpl) UpdateResponse(ctx context.Context, p session.Participant) (session.Participant, error) {
	q := GetQuerier(ctx, r.db)

	updated, err := scanParticipant(q.QueryRow(ctx, `
		UPDATE order_session_participants
		SET status = $1, preset_order = $2, responded_at = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+participantColumns,
		string(p.Status), p.PresetOrder, p.RespondedAt, p.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Participant{}, session.ErrParticipantNotFound
		}
		return session.Participant{}, fmt.Errorf("failed to update participant: %w", err)
	}
	return updated, nil
}
