package user

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidRole            = errors.New("invalid role")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrManagerAccessRequired  = errors.New("manager access required")
	ErrCompanyIDRequired      = errors.New("user has not joined a company")
	ErrUnauthenticated        = errors.New("authentication required")
	ErrCannotChangeOwnRole    = errors.New("admins cannot change their own role")
)
