package invitation

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
)

// CreateRequest for issuing a new invitation code
type CreateRequest struct {
	CompanyID     string `json:"company_id"`
	CompanyName   string `json:"company_name"`
	Role          string `json:"role,omitempty"`
	MaxUses       int    `json:"max_uses,omitempty"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

// ApplyDefaults fills optional fields with their defaults
func (r *CreateRequest) ApplyDefaults() {
	if r.MaxUses == 0 {
		r.MaxUses = DefaultMaxUses
	}
	if r.ExpiresInDays == 0 {
		r.ExpiresInDays = DefaultExpiresInDays
	}
	if validator.IsEmpty(r.Role) {
		r.Role = string(user.RoleEmployee)
	}
}

func (r *CreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CompanyID) {
		errs.Add("company_id", "company_id is required")
	} else if !validator.IsValidUUID(r.CompanyID) {
		errs.Add("company_id", "company_id must be a valid UUID")
	}

	if validator.IsEmpty(r.CompanyName) {
		errs.Add("company_name", "company_name is required")
	}

	if r.MaxUses < 1 || r.MaxUses > MaxUsesLimit {
		errs.Add("max_uses", "max_uses must be between 1 and 1000")
	}

	if r.ExpiresInDays < 1 || r.ExpiresInDays > MaxExpiresInDays {
		errs.Add("expires_in_days", "expires_in_days must be between 1 and 90")
	}

	role, ok := user.ParseRole(r.Role)
	if !ok || role == user.RoleAdmin {
		errs.Add("role", "role must be employee or manager")
	}

	return errs.Err()
}

// RedeemRequest for redeeming a code
type RedeemRequest struct {
	Code string `json:"code"`
}

func (r *RedeemRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Code) {
		errs.Add("code", "code is required")
	} else if !validator.IsValidInvitationCode(r.Code) {
		errs.Add("code", "code format is invalid")
	}

	return errs.Err()
}

// InvitationResponse - issued invitation as seen by its company
type InvitationResponse struct {
	ID          string   `json:"id"`
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name"`
	Code        string   `json:"code"`
	Role        string   `json:"role"`
	CreatedBy   string   `json:"created_by"`
	ExpiresAt   string   `json:"expires_at"`
	MaxUses     int      `json:"max_uses"`
	UsedCount   int      `json:"used_count"`
	UsedBy      []string `json:"used_by"`
	IsActive    bool     `json:"is_active"`
	IsExpired   bool     `json:"is_expired"`
	CreatedAt   string   `json:"created_at"`
}

// PreviewResponse - GET /invitations/{code}, visible to anyone holding the code
type PreviewResponse struct {
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
	IsUsable    bool   `json:"is_usable"`
}

// RedeemResponse for invitation redemption result
type RedeemResponse struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
}

func ToResponse(inv Invitation, now time.Time) InvitationResponse {
	usedBy := inv.UsedBy
	if usedBy == nil {
		usedBy = []string{}
	}
	return InvitationResponse{
		ID:          inv.ID,
		CompanyID:   inv.CompanyID,
		CompanyName: inv.CompanyName,
		Code:        inv.Code,
		Role:        string(inv.Role),
		CreatedBy:   inv.CreatedBy,
		ExpiresAt:   inv.ExpiresAt.Format(time.RFC3339),
		MaxUses:     inv.MaxUses,
		UsedCount:   inv.UsedCount,
		UsedBy:      usedBy,
		IsActive:    inv.IsUsable(now),
		IsExpired:   inv.IsExpired(now),
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
	}
}
