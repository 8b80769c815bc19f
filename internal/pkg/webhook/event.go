package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

var ErrMissingUserID = errors.New("identity event has no user id")

// Event is the envelope of an identity-provider webhook
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// UserData is the user object carried by user.* events
type UserData struct {
	ID                    string                 `json:"id"`
	FirstName             *string                `json:"first_name"`
	LastName              *string                `json:"last_name"`
	Username              *string                `json:"username"`
	PrimaryEmailAddressID *string                `json:"primary_email_address_id"`
	EmailAddresses        []emailAddress         `json:"email_addresses"`
	PublicMetadata        map[string]interface{} `json:"public_metadata"`
}

func ParseEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode identity event: %w", err)
	}
	return e, nil
}

func (e Event) User() (UserData, error) {
	var d UserData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return UserData{}, fmt.Errorf("decode identity user: %w", err)
	}
	if strings.TrimSpace(d.ID) == "" {
		return UserData{}, ErrMissingUserID
	}
	return d, nil
}

// PrimaryEmail falls back to the first address when no primary is marked
func (d UserData) PrimaryEmail() string {
	if d.PrimaryEmailAddressID != nil {
		for _, e := range d.EmailAddresses {
			if e.ID == *d.PrimaryEmailAddressID {
				return e.EmailAddress
			}
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (d UserData) DisplayName() string {
	var parts []string
	for _, p := range []*string{d.FirstName, d.LastName} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if d.Username != nil {
		return *d.Username
	}
	return ""
}

func (d UserData) Profile() user.IdentityProfile {
	profile := user.IdentityProfile{
		ExternalID:  d.ID,
		Email:       d.PrimaryEmail(),
		DisplayName: d.DisplayName(),
	}
	if r, ok := d.PublicMetadata["role"].(string); ok {
		if role, ok := user.ParseRole(r); ok {
			profile.Role = &role
		}
	}
	return profile
}
