package session

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of an order session
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
)

// ParticipantStatus is a participant's response within a session
type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "pending"
	ParticipantOrdered ParticipantStatus = "ordered"
	ParticipantPassed  ParticipantStatus = "passed"
	ParticipantPreset  ParticipantStatus = "preset"
)

// RestaurantOption is one restaurant offered for a session
type RestaurantOption struct {
	PlaceID string `json:"place_id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Session is a time-boxed group food order tied to one company
type Session struct {
	ID                string
	CompanyID         string
	RestaurantName    string
	RestaurantOptions []RestaurantOption
	StartTime         time.Time
	EndTime           time.Time
	Status            Status
	GroupOrderLink    *string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Participant is a company user's response record within a session
type Participant struct {
	ID          string
	SessionID   string
	UserID      string
	DisplayName string
	Status      ParticipantStatus
	PresetOrder json.RawMessage
	RespondedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCurrent reports whether the session is the live one at now
func (s *Session) IsCurrent(now time.Time) bool {
	return s.Status == StatusActive && !now.Before(s.StartTime) && !now.After(s.EndTime)
}

// CanTransition reports whether from -> to is a forward move in the lifecycle.
// Setting the same status again is allowed and a no-op.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusUpcoming:
		return to == StatusActive || to == StatusClosed
	case StatusActive:
		return to == StatusClosed
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusUpcoming, StatusActive, StatusClosed:
		return Status(s), true
	}
	return "", false
}

func ParseParticipantStatus(s string) (ParticipantStatus, bool) {
	switch ParticipantStatus(s) {
	case ParticipantPending, ParticipantOrdered, ParticipantPassed, ParticipantPreset:
		return ParticipantStatus(s), true
	}
	return "", false
}
