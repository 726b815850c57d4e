// AngelaMos | 2026
// policy_test.go

package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

func TestEvaluate_Matrix(t *testing.T) {
	tests := []struct {
		action Action
		caller string
		target string
		allow  bool
	}{
		{ActionBan, RoleAdmin, RoleGuest, true},
		{ActionBan, RoleAdmin, RoleStudent, true},
		{ActionBan, RoleAdmin, RoleAdmin, false},
		{ActionBan, RoleAdmin, RoleSuperadmin, false},
		{ActionBan, RoleSuperadmin, RoleAdmin, false},
		{ActionBan, RoleSuperadmin, RoleSuperadmin, false},
		{ActionBan, RoleStudent, RoleGuest, false},

		{ActionUnban, RoleAdmin, RoleStudent, true},
		{ActionUnban, RoleAdmin, RoleAdmin, false},

		{ActionEditUser, RoleAdmin, RoleStudent, true},
		{ActionEditUser, RoleAdmin, RoleAdmin, false},
		{ActionEditUser, RoleAdmin, RoleSuperadmin, false},
		{ActionEditUser, RoleSuperadmin, RoleAdmin, true},

		{ActionChangeRole, RoleAdmin, RoleGuest, false},
		{ActionChangeRole, RoleSuperadmin, RoleGuest, true},
		{ActionChangeRole, RoleSuperadmin, RoleSuperadmin, false},

		{ActionDeleteUser, RoleAdmin, RoleGuest, false},
		{ActionDeleteUser, RoleSuperadmin, RoleAdmin, true},
		{ActionDeleteUser, RoleSuperadmin, RoleSuperadmin, false},
	}

	for _, tt := range tests {
		name := string(tt.action) + "/" + tt.caller + "->" + tt.target
		t.Run(name, func(t *testing.T) {
			err := Evaluate(tt.action, tt.caller, tt.target)
			if tt.allow {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrForbidden))
		})
	}
}

func TestSuperadminIsNeverActionableByAnyone(t *testing.T) {
	for _, caller := range Roles {
		for _, action := range []Action{ActionBan, ActionDeleteUser, ActionChangeRole} {
			assert.False(t, Allowed(action, caller, RoleSuperadmin),
				"%s must not %s a superadmin", caller, action)
		}
	}
}

func TestCanAssign(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		current string
		next    string
		wantErr error
	}{
		{"admin promotes guest to student", RoleAdmin, RoleGuest, RoleStudent, nil},
		{"admin cannot grant admin", RoleAdmin, RoleStudent, RoleAdmin, core.ErrForbidden},
		{"admin cannot grant superadmin", RoleAdmin, RoleGuest, RoleSuperadmin, core.ErrForbidden},
		{"superadmin grants admin", RoleSuperadmin, RoleStudent, RoleAdmin, nil},
		{"superadmin role is fixed", RoleSuperadmin, RoleSuperadmin, RoleAdmin, core.ErrForbidden},
		{"unchanged role is a no-op", RoleAdmin, RoleStudent, RoleStudent, nil},
		{"unknown role", RoleSuperadmin, RoleGuest, "teacher", core.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanAssign(tt.caller, tt.current, tt.next)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, IsValidRole(r))
	}
	assert.False(t, IsValidRole("owner"))
	assert.False(t, IsValidRole(""))
}
