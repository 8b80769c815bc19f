package user

type Permission string

const (
	// Sessions
	PermissionSessionView    Permission = "session.view"
	PermissionSessionRespond Permission = "session.respond"
	PermissionSessionCreate  Permission = "session.create"
	PermissionSessionManage  Permission = "session.manage"

	// Invitations
	PermissionInvitationIssue Permission = "invitation.issue"
	PermissionInvitationView  Permission = "invitation.view"

	// Orders
	PermissionOrderCreate  Permission = "order.create"
	PermissionOrderViewAll Permission = "order.view_all"
	PermissionOrderClear   Permission = "order.clear"

	// Company
	PermissionCompanyManage Permission = "company.manage"

	// Users
	PermissionUserManage Permission = "user.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionSessionView,
		PermissionSessionRespond,
		PermissionSessionManage,
		PermissionInvitationIssue,
		PermissionInvitationView,
		PermissionOrderCreate,
		PermissionOrderViewAll,
		PermissionOrderClear,
		PermissionCompanyManage,
		PermissionUserManage,
	},
	RoleManager: {
		PermissionSessionView,
		PermissionSessionRespond,
		PermissionSessionCreate,
		PermissionSessionManage,
		PermissionInvitationIssue,
		PermissionInvitationView,
		PermissionOrderCreate,
		PermissionOrderViewAll,
		PermissionCompanyManage,
	},
	RoleEmployee: {
		PermissionSessionView,
		PermissionSessionRespond,
		PermissionOrderCreate,
	},
}

// HasPermission checks if a role has a specific permission.
// Role comparison is case-insensitive.
func HasPermission(role Role, permission Permission) bool {
	normalized, ok := ParseRole(string(role))
	if !ok {
		return false
	}

	for _, p := range RolePermissions[normalized] {
		if p == permission {
			return true
		}
	}

	return false
}
