package company

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/pkg/validator"
)

type CreateCompanyRequest struct {
	Name string `json:"name"`
}

func (r *CreateCompanyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 120 {
		errs.Add("name", "name must be at most 120 characters")
	}

	return errs.Err()
}

type UpdateCompanyRequest struct {
	Name *string `json:"name,omitempty"`
}

func (r *UpdateCompanyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name == nil {
		errs.Add("name", "nothing to update")
	} else if validator.IsEmpty(*r.Name) {
		errs.Add("name", "name must not be empty")
	} else if len(*r.Name) > 120 {
		errs.Add("name", "name must be at most 120 characters")
	}

	return errs.Err()
}

type CompanyResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CreatedBy   *string `json:"created_by,omitempty"`
	MemberCount int     `json:"member_count"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func ToResponse(c Company, members int) CompanyResponse {
	return CompanyResponse{
		ID:          c.ID,
		Name:        c.Name,
		CreatedBy:   c.CreatedBy,
		MemberCount: members,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}
