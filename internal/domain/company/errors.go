package company

import "errors"

var (
	ErrCompanyNotFound       = errors.New("company not found")
	ErrInvalidCompanyName    = errors.New("company name cannot be empty")
	ErrUserAlreadyHasCompany = errors.New("user already belongs to a company")
	ErrNotCompanyMember      = errors.New("user is not a member of this company")
	ErrCompanyManageDenied   = errors.New("only managers or admins can manage the company")
)
