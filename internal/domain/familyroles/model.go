package familyroles

import "time"

// Role es el rol de un usuario sobre un familiar (tabla user_roles).
// @Enum admin, member, viewer
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Action es lo que un handler necesita hacer sobre un familiar.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionManage Action = "manage" // administrar roles
)

// Allows: viewer lee, member lee y escribe, admin además administra roles.
func (r Role) Allows(a Action) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleMember:
		return a == ActionRead || a == ActionWrite
	case RoleViewer:
		return a == ActionRead
	}
	return false
}

type UserRole struct {
	ID string

	FamilyMemberID string
	UserID         string
	Role           Role

	GrantedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}
