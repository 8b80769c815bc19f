package user

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
)

// UserResponse represents user data in API responses
type UserResponse struct {
	ID          string  `json:"id"`
	ExternalID  string  `json:"external_id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	Role        string  `json:"role"`
	CompanyID   *string `json:"company_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// MeResponse is returned by GET /users/me
type MeResponse struct {
	User        UserResponse `json:"user"`
	CompanyName *string      `json:"company_name,omitempty"`
	// Orphaned is true when the user's company reference does not resolve
	Orphaned bool `json:"orphaned"`
}

// UpdateRoleRequest represents an admin role change
type UpdateRoleRequest struct {
	UserID string `json:"-"`
	Role   string `json:"role"`
}

func (r *UpdateRoleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs.Add("id", "id is required")
	} else if !validator.IsValidUUID(r.UserID) {
		errs.Add("id", "id must be a valid UUID")
	}

	if validator.IsEmpty(r.Role) {
		errs.Add("role", "role is required")
	} else if _, ok := ParseRole(r.Role); !ok {
		errs.Add("role", "role must be one of employee, manager, admin")
	}

	return errs.Err()
}

// IdentityProfile is the subset of identity-provider user data mirrored locally
type IdentityProfile struct {
	ExternalID  string
	Email       string
	DisplayName string
	// Role is only applied when the provider metadata carries one
	Role *Role
}

func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CompanyID:   u.CompanyID,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}
