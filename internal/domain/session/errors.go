package session

import "errors"

var (
	ErrSessionNotFound     = errors.New("order session not found")
	ErrParticipantNotFound = errors.New("you are not a participant of this session")
	ErrCreateForbidden     = errors.New("only managers can create order sessions")
	ErrManageForbidden     = errors.New("only managers or admins can modify order sessions")
	ErrInvalidTransition   = errors.New("invalid session status transition")
	ErrInvalidTimeRange    = errors.New("end_time must not be before start_time")
	ErrSessionClosed       = errors.New("order session is closed")
	ErrPresetOrderRequired = errors.New("preset_order is required when status is preset")
	ErrNoParticipants      = errors.New("company has no members to invite")
)
