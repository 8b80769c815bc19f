package invitation

import (
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

const (
	DefaultMaxUses       = 1
	DefaultExpiresInDays = 7
	MaxExpiresInDays     = 90
	MaxUsesLimit         = 1000
	// MaxCodeAttempts bounds the uniqueness check loop during code generation
	MaxCodeAttempts = 10
)

// Invitation is a redeemable code binding a user to a company and role
type Invitation struct {
	ID          string
	CompanyID   string
	CompanyName string
	Code        string
	Role        user.Role
	CreatedBy   string
	ExpiresAt   time.Time
	MaxUses     int
	UsedCount   int
	UsedBy      []string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsExpired checks if the invitation has expired (query-time check)
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsExhausted reports whether every use has been consumed
func (i *Invitation) IsExhausted() bool {
	return i.UsedCount >= i.MaxUses
}

// IsUsable reports whether the code can still be redeemed by someone
func (i *Invitation) IsUsable(now time.Time) bool {
	return i.IsActive && !i.IsExpired(now) && !i.IsExhausted()
}

// HasRedeemed reports whether userID already used this code
func (i *Invitation) HasRedeemed(userID string) bool {
	for _, id := range i.UsedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Redeem applies one redemption by userID. It does not validate; callers check first.
func (i *Invitation) Redeem(userID string) {
	i.UsedBy = append(i.UsedBy, userID)
	i.UsedCount++
	if i.UsedCount >= i.MaxUses {
		i.IsActive = false
	}
}
