package invitation

import "errors"

var (
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvalidCode             = errors.New("invalid or inactive invitation code")
	ErrInvitationExpired       = errors.New("invitation has expired")
	ErrMaxUsesReached          = errors.New("invitation has reached its maximum number of uses")
	ErrAlreadyRedeemed         = errors.New("you have already redeemed this invitation")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique invitation code")
	ErrNotInvitationOwner      = errors.New("only the creator can delete this invitation")
	ErrIssueForbidden          = errors.New("only managers or admins can issue invitations")
	ErrCompanyMismatch         = errors.New("managers can only issue invitations for their own company")
	ErrCompanyProvisionFailed  = errors.New("invitation accepted but company setup failed")
	ErrMembershipUpdateFailed  = errors.New("invitation accepted but joining the company failed")
)
