package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleEmployee Role = "employee" // Regular employee
	RoleManager  Role = "manager"  // Runs order sessions and issues invitations
	RoleAdmin    Role = "admin"    // Platform administrator
)

// ParseRole normalizes a role string; comparison is case-insensitive
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleEmployee:
		return RoleEmployee, true
	case RoleManager:
		return RoleManager, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

type User struct {
	ID          string
	ExternalID  string
	Email       string
	DisplayName string
	Role        Role
	CompanyID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) normalizedRole() Role {
	r, _ := ParseRole(string(u.Role))
	return r
}

// IsAdmin checks if user is a platform admin
func (u *User) IsAdmin() bool {
	return u.normalizedRole() == RoleAdmin
}

// IsManager checks if user has exactly the manager role
func (u *User) IsManager() bool {
	return u.normalizedRole() == RoleManager
}

// CanManageSessions checks if user may update or delete sessions
func (u *User) CanManageSessions() bool {
	return u.IsManager() || u.IsAdmin()
}

// HasCompany reports whether the user has joined a company
func (u *User) HasCompany() bool {
	return u.CompanyID != nil && *u.CompanyID != ""
}

// BelongsTo reports whether the user is a member of companyID
func (u *User) BelongsTo(companyID string) bool {
	return u.HasCompany() && *u.CompanyID == companyID
}

// Name returns the display name, falling back to the email local part
func (u *User) Name() string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}
