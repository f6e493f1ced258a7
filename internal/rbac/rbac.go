package rbac

import "strings"

type Role string
type Action string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

const (
	ActionRead          Action = "read"
	ActionWriteOutlines Action = "write_outlines"
	ActionManageMembers Action = "manage_members"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleMember:
		return action == ActionRead || action == ActionWriteOutlines
	default:
		return false
	}
}

// Normalize folds the storage representation of a role (historically written
// in either case) onto the canonical lowercase form. Unknown roles degrade to
// member.
func Normalize(role string) Role {
	switch Role(strings.ToLower(role)) {
	case RoleOwner:
		return RoleOwner
	case RoleMember:
		return RoleMember
	default:
		return RoleMember
	}
}

// IsOwner reports whether the stored role string denotes an owner,
// case-insensitively.
func IsOwner(role string) bool {
	return Normalize(role) == RoleOwner
}

// Display returns the uppercase form used by clients.
func Display(role string) string {
	return strings.ToUpper(string(Normalize(role)))
}
