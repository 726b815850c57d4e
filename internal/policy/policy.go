// AngelaMos | 2026
// policy.go

// Package policy holds the role hierarchy and the account-management
// permission matrix. Every handler that acts on another account asks
// Evaluate before it writes.
package policy

import (
	"fmt"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

const (
	RoleGuest      = "guest"
	RoleStudent    = "student"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

var Roles = []string{RoleGuest, RoleStudent, RoleAdmin, RoleSuperadmin}

// Staff are the roles allowed to moderate content and applications.
var Staff = []string{RoleAdmin, RoleSuperadmin}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func IsStaff(role string) bool {
	return role == RoleAdmin || role == RoleSuperadmin
}

type Action string

const (
	ActionEditUser   Action = "edit_user"
	ActionChangeRole Action = "change_role"
	ActionBan        Action = "ban"
	ActionUnban      Action = "unban"
	ActionDeleteUser Action = "delete_user"
)

type rule struct {
	action Action
	caller string
	target string
}

// matrix lists every allowed (action, caller role, target role). Anything
// absent is denied.
var matrix = map[rule]struct{}{
	{ActionEditUser, RoleAdmin, RoleGuest}:        {},
	{ActionEditUser, RoleAdmin, RoleStudent}:      {},
	{ActionEditUser, RoleSuperadmin, RoleGuest}:   {},
	{ActionEditUser, RoleSuperadmin, RoleStudent}: {},
	{ActionEditUser, RoleSuperadmin, RoleAdmin}:   {},
	// Superadmin profile fields stay editable; the role check below
	// still refuses to move a superadmin off the role.
	{ActionEditUser, RoleSuperadmin, RoleSuperadmin}: {},

	{ActionChangeRole, RoleSuperadmin, RoleGuest}:   {},
	{ActionChangeRole, RoleSuperadmin, RoleStudent}: {},
	{ActionChangeRole, RoleSuperadmin, RoleAdmin}:   {},

	{ActionBan, RoleAdmin, RoleGuest}:        {},
	{ActionBan, RoleAdmin, RoleStudent}:      {},
	{ActionBan, RoleSuperadmin, RoleGuest}:   {},
	{ActionBan, RoleSuperadmin, RoleStudent}: {},

	{ActionUnban, RoleAdmin, RoleGuest}:        {},
	{ActionUnban, RoleAdmin, RoleStudent}:      {},
	{ActionUnban, RoleSuperadmin, RoleGuest}:   {},
	{ActionUnban, RoleSuperadmin, RoleStudent}: {},

	{ActionDeleteUser, RoleSuperadmin, RoleGuest}:   {},
	{ActionDeleteUser, RoleSuperadmin, RoleStudent}: {},
	{ActionDeleteUser, RoleSuperadmin, RoleAdmin}:   {},
}

// assignable lists the roles each caller role may hand out.
var assignable = map[string]map[string]struct{}{
	RoleAdmin: {
		RoleGuest:   {},
		RoleStudent: {},
	},
	RoleSuperadmin: {
		RoleGuest:      {},
		RoleStudent:    {},
		RoleAdmin:      {},
		RoleSuperadmin: {},
	},
}

func Allowed(action Action, callerRole, targetRole string) bool {
	_, ok := matrix[rule{action, callerRole, targetRole}]
	return ok
}

// Evaluate returns a wrapped core.ErrForbidden when the matrix denies the
// action.
func Evaluate(action Action, callerRole, targetRole string) error {
	if Allowed(action, callerRole, targetRole) {
		return nil
	}
	return fmt.Errorf(
		"%s: %s may not act on %s: %w",
		action, callerRole, targetRole, core.ErrForbidden,
	)
}

// CanAssign checks a role transition of target from currentRole to newRole
// by a caller. A superadmin's role never changes once granted.
func CanAssign(callerRole, currentRole, newRole string) error {
	if !IsValidRole(newRole) {
		return core.InvalidInputf("invalid role %q", newRole)
	}

	if currentRole == newRole {
		return nil
	}

	if currentRole == RoleSuperadmin {
		return fmt.Errorf("assign role: superadmin role is fixed: %w", core.ErrForbidden)
	}

	if _, ok := assignable[callerRole][newRole]; !ok {
		return fmt.Errorf(
			"assign role: %s may not assign %s: %w",
			callerRole, newRole, core.ErrForbidden,
		)
	}

	return nil
}
