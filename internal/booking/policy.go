package booking

import "strings"

// Role is a user's capability level.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleSubdirector Role = "subdirector"
	RoleFuncionario Role = "funcionario"
	// RoleUnknown is assigned to any unrecognised role value and has no capabilities.
	RoleUnknown Role = ""
)

// ParseRole normalises value to a known Role, or RoleUnknown.
func ParseRole(value string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(value))); r {
	case RoleSuperAdmin, RoleAdmin, RoleSubdirector, RoleFuncionario:
		return r
	default:
		return RoleUnknown
	}
}

// Known reports whether r is one of the four defined roles.
func (r Role) Known() bool {
	return ParseRole(string(r)) != RoleUnknown
}

func (r Role) isAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanCreate reports whether role may book rooms.
func CanCreate(role Role) bool {
	return role.isAdmin() || role == RoleSubdirector
}

// CanEditGrouped reports whether role may remove individual blocks from a grouped reservation.
func CanEditGrouped(role Role) bool {
	return role.isAdmin() || role == RoleSubdirector
}

// CanCancel reports whether role may cancel a reservation in the shared day view.
func CanCancel(role Role, isOwn bool) bool {
	switch {
	case role.isAdmin():
		return true
	case role == RoleSubdirector:
		return isOwn
	default:
		return false
	}
}

// CanCancelOwn reports whether role may cancel from the personal view, where
// every known role manages its own bookings.
func CanCancelOwn(role Role, isOwn bool) bool {
	if role.isAdmin() {
		return true
	}
	return isOwn && role.Known()
}

// CanViewStatistics reports whether role may read usage statistics.
func CanViewStatistics(role Role) bool { return role.isAdmin() }

// CanManageRooms reports whether role may activate or deactivate rooms.
func CanManageRooms(role Role) bool { return role.isAdmin() }

// CanManageUsers reports whether role may change other users' roles.
func CanManageUsers(role Role) bool { return role == RoleSuperAdmin }

// Permissions is the set of actions exposed for one entry to one requester.
type Permissions struct {
	CanCancel bool
	CanEdit   bool
}
