package session

import (
	"encoding/json"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
)

// CreateRequest for POST /sessions
type CreateRequest struct {
	RestaurantName    string             `json:"restaurant_name"`
	RestaurantOptions []RestaurantOption `json:"restaurant_options"`
	StartTime         string             `json:"start_time"`
	EndTime           string             `json:"end_time"`
	GroupOrderLink    *string            `json:"group_order_link,omitempty"`
	// StartNow marks the session active immediately when start_time has already passed
	StartNow bool `json:"start_now,omitempty"`

	// Parsed by Validate
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *CreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RestaurantName) {
		errs.Add("restaurant_name", "restaurant_name is required")
	}

	for _, opt := range r.RestaurantOptions {
		if validator.IsEmpty(opt.Name) {
			errs.Add("restaurant_options", "every restaurant option needs a name")
			break
		}
	}

	var startOK, endOK bool
	if validator.IsEmpty(r.StartTime) {
		errs.Add("start_time", "start_time is required")
	} else if r.Start, startOK = validator.IsValidDateTime(r.StartTime); !startOK {
		errs.Add("start_time", "start_time must be an RFC3339 timestamp")
	}

	if validator.IsEmpty(r.EndTime) {
		errs.Add("end_time", "end_time is required")
	} else if r.End, endOK = validator.IsValidDateTime(r.EndTime); !endOK {
		errs.Add("end_time", "end_time must be an RFC3339 timestamp")
	}

	if startOK && endOK && r.End.Before(r.Start) {
		errs.Add("end_time", ErrInvalidTimeRange.Error())
	}

	if r.GroupOrderLink != nil && !validator.IsEmpty(*r.GroupOrderLink) && !validator.IsValidURL(*r.GroupOrderLink) {
		errs.Add("group_order_link", "group_order_link must be an http(s) URL")
	}

	return errs.Err()
}

// UpdateRequest for PATCH /sessions/{id}; every field is optional
type UpdateRequest struct {
	Status         *string `json:"status,omitempty"`
	GroupOrderLink *string `json:"group_order_link,omitempty"`
	StartTime      *string `json:"start_time,omitempty"`
	EndTime        *string `json:"end_time,omitempty"`
	RestaurantName *string `json:"restaurant_name,omitempty"`
}

// Patch is the validated form of UpdateRequest
type Patch struct {
	Status         *Status
	GroupOrderLink *string
	StartTime      *time.Time
	EndTime        *time.Time
	RestaurantName *string
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.GroupOrderLink == nil && p.StartTime == nil && p.EndTime == nil && p.RestaurantName == nil
}

func (r *UpdateRequest) ToPatch() (Patch, error) {
	var errs validator.ValidationErrors
	var p Patch

	if r.Status != nil {
		st, ok := ParseStatus(*r.Status)
		if !ok {
			errs.Add("status", "status must be one of upcoming, active, closed")
		} else {
			p.Status = &st
		}
	}

	if r.GroupOrderLink != nil {
		if !validator.IsEmpty(*r.GroupOrderLink) && !validator.IsValidURL(*r.GroupOrderLink) {
			errs.Add("group_order_link", "group_order_link must be an http(s) URL")
		} else {
			p.GroupOrderLink = r.GroupOrderLink
		}
	}

	if r.StartTime != nil {
		t, ok := validator.IsValidDateTime(*r.StartTime)
		if !ok {
			errs.Add("start_time", "start_time must be an RFC3339 timestamp")
		} else {
			p.StartTime = &t
		}
	}

	if r.EndTime != nil {
		t, ok := validator.IsValidDateTime(*r.EndTime)
		if !ok {
			errs.Add("end_time", "end_time must be an RFC3339 timestamp")
		} else {
			p.EndTime = &t
		}
	}

	if r.RestaurantName != nil {
		if validator.IsEmpty(*r.RestaurantName) {
			errs.Add("restaurant_name", "restaurant_name must not be empty")
		} else {
			p.RestaurantName = r.RestaurantName
		}
	}

	if err := errs.Err(); err != nil {
		return Patch{}, err
	}
	if p.IsEmpty() {
		return Patch{}, validator.ValidationErrors{{Field: "body", Message: "no updatable fields provided"}}
	}
	return p, nil
}

// RespondRequest for POST /sessions/{id}/respond
type RespondRequest struct {
	Status      string          `json:"status"`
	PresetOrder json.RawMessage `json:"preset_order,omitempty"`
}

func (r *RespondRequest) Validate() error {
	var errs validator.ValidationErrors

	st, ok := ParseParticipantStatus(r.Status)
	if !ok || st == ParticipantPending {
		errs.Add("status", "status must be one of ordered, passed, preset")
	}
	if st == ParticipantPreset && (len(r.PresetOrder) == 0 || string(r.PresetOrder) == "null") {
		errs.Add("preset_order", ErrPresetOrderRequired.Error())
	}
	if len(r.PresetOrder) > 0 && !json.Valid(r.PresetOrder) {
		errs.Add("preset_order", "preset_order must be valid JSON")
	}

	return errs.Err()
}

// ListFilter narrows GET /sessions
type ListFilter struct {
	Status *Status
	Limit  int
}

type ParticipantResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Status      string          `json:"status"`
	PresetOrder json.RawMessage `json:"preset_order,omitempty"`
	RespondedAt *string         `json:"responded_at,omitempty"`
}

type SessionResponse struct {
	ID                string                `json:"id"`
	CompanyID         string                `json:"company_id"`
	RestaurantName    string                `json:"restaurant_name"`
	RestaurantOptions []RestaurantOption    `json:"restaurant_options"`
	StartTime         string                `json:"start_time"`
	EndTime           string                `json:"end_time"`
	Status            string                `json:"status"`
	GroupOrderLink    *string               `json:"group_order_link,omitempty"`
	CreatedBy         string                `json:"created_by"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
	Participants      []ParticipantResponse `json:"participants,omitempty"`
}

// CurrentResponse - GET /sessions/current; Session is nil when nothing is live
type CurrentResponse struct {
	Session *SessionResponse `json:"session"`
}

func ToParticipantResponse(p Participant) ParticipantResponse {
	resp := ParticipantResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Status:      string(p.Status),
		PresetOrder: p.PresetOrder,
	}
	if p.RespondedAt != nil {
		s := p.RespondedAt.Format(time.RFC3339)
		resp.RespondedAt = &s
	}
	return resp
}

func ToResponse(s Session, participants []Participant) SessionResponse {
	opts := s.RestaurantOptions
	if opts == nil {
		opts = []RestaurantOption{}
	}
	resp := SessionResponse{
		ID:                s.ID,
		CompanyID:         s.CompanyID,
		RestaurantName:    s.RestaurantName,
		RestaurantOptions: opts,
		StartTime:         s.StartTime.Format(time.RFC3339),
		EndTime:           s.EndTime.Format(time.RFC3339),
		Status:            string(s.Status),
		GroupOrderLink:    s.GroupOrderLink,
		CreatedBy:         s.CreatedBy,
		CreatedAt:         s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
	}
	for _, p := range participants {
		resp.Participants = append(resp.Participants, ToParticipantResponse(p))
	}
	return resp
}

// StreamTokenResponse carries a short-lived token for GET /sessions/events?token=
type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
