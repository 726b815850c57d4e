// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/thesis-archive/internal/audit"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/middleware"
	"github.com/carterperez-dev/thesis-archive/internal/policy"
)

type stubRepo struct {
	users  map[string]*User
	writes []string
}

func newStubRepo(users ...*User) *stubRepo {
	r := &stubRepo{users: map[string]*User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubRepo) get(id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *stubRepo) Create(_ context.Context, u *User) error {
	r.writes = append(r.writes, "create")
	r.users[u.ID] = u
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*User, error) { return r.get(id) }

func (r *stubRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return r.get(u.ID)
		}
	}
	return nil, core.ErrNotFound
}

func (r *stubRepo) Update(_ context.Context, u *User) error {
	r.writes = append(r.writes, "update")
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubRepo) UpdatePassword(context.Context, string, string) error {
	r.writes = append(r.writes, "password")
	return nil
}

func (r *stubRepo) SetBan(_ context.Context, id, reason string) (*User, error) {
	r.writes = append(r.writes, "ban")
	u := r.users[id]
	u.IsBanned, u.BanReason = true, reason
	return r.get(id)
}

func (r *stubRepo) ClearBan(_ context.Context, id string) (*User, error) {
	r.writes = append(r.writes, "unban")
	u := r.users[id]
	u.IsBanned, u.BanReason = false, ""
	return r.get(id)
}

func (r *stubRepo) PromoteToStudent(context.Context, string, StudentProfile) error {
	r.writes = append(r.writes, "promote")
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id string) error {
	r.writes = append(r.writes, "delete")
	delete(r.users, id)
	return nil
}

func (r *stubRepo) List(context.Context, ListUsersParams) ([]User, int, error) {
	return nil, 0, nil
}

func (r *stubRepo) CountByRole(context.Context, string) (int, error) { return 0, nil }

type recorder struct {
	entries []audit.Details
}

func (r *recorder) Record(_ context.Context, _ string, d audit.Details) {
	r.entries = append(r.entries, d)
}

func (r *recorder) actions() []audit.Action {
	out := make([]audit.Action, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action())
	}
	return out
}

func accounts() []*User {
	return []*User{
		{ID: "guest", Email: "g@x.test", Role: policy.RoleGuest},
		{ID: "student", Email: "s@x.test", Role: policy.RoleStudent},
		{ID: "admin", Email: "a@x.test", Role: policy.RoleAdmin},
		{ID: "admin2", Email: "a2@x.test", Role: policy.RoleAdmin},
		{ID: "root", Email: "r@x.test", Role: policy.RoleSuperadmin},
	}
}

func as(role string) *middleware.Caller {
	return &middleware.Caller{ID: "caller-" + role, Role: role}
}

func TestBan_AdminCannotBanPeer(t *testing.T) {
	repo := newStubRepo(accounts()...)
	rec := &recorder{}
	svc := NewService(repo, rec)

	_, err := svc.Ban(context.Background(), as(policy.RoleAdmin), "admin2", "rude")

	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Empty(t, repo.writes, "no write may happen before the policy check")
	assert.Empty(t, rec.entries)
}

func TestBan_GuestByAdmin(t *testing.T) {
	repo := newStubRepo(accounts()...)
	rec := &recorder{}
	svc := NewService(repo, rec)

	u, err := svc.Ban(context.Background(), as(policy.RoleAdmin), "guest", " spam ")
	require.NoError(t, err)
	assert.True(t, u.IsBanned)
	assert.Equal(t, "spam", u.BanReason)
	assert.Equal(t, []audit.Action{audit.ActionUserBan}, rec.actions())

	_, err = svc.Unban(context.Background(), as(policy.RoleAdmin), "guest")
	require.NoError(t, err)
	assert.Equal(t, []audit.Action{audit.ActionUserBan, audit.ActionUserUnban}, rec.actions())
}

func TestSuperadminIsUntouchable(t *testing.T) {
	ctx := context.Background()

	for _, caller := range []string{policy.RoleAdmin, policy.RoleSuperadmin} {
		t.Run(caller, func(t *testing.T) {
			repo := newStubRepo(accounts()...)
			svc := NewService(repo, &recorder{})

			_, err := svc.Ban(ctx, as(caller), "root", "x")
			assert.ErrorIs(t, err, core.ErrForbidden)

			err = svc.DeleteUser(ctx, as(caller), "root")
			assert.ErrorIs(t, err, core.ErrForbidden)

			_, err = svc.ChangeRole(ctx, as(caller), "root", policy.RoleAdmin)
			assert.ErrorIs(t, err, core.ErrForbidden)

			role := policy.RoleGuest
			_, err = svc.UpdateUser(ctx, as(caller), "root", AdminUpdateUserRequest{Role: &role})
			assert.ErrorIs(t, err, core.ErrForbidden)

			assert.Empty(t, repo.writes)
			assert.Equal(t, policy.RoleSuperadmin, repo.users["root"].Role)
		})
	}
}

func TestChangeRole(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		role    string
		wantErr error
	}{
		{"promote student to admin", "student", policy.RoleAdmin, nil},
		{"invalid role", "student", "dean", core.ErrInvalidInput},
		{"missing user", "nobody", policy.RoleStudent, core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo(accounts()...)
			rec := &recorder{}
			svc := NewService(repo, rec)

			u, err := svc.ChangeRole(context.Background(), as(policy.RoleSuperadmin), tt.target, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, rec.entries)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, u.Role)

			require.Len(t, rec.entries, 1)
			ru, ok := rec.entries[0].(audit.UserRoleUpdate)
			require.True(t, ok)
			assert.Equal(t, policy.RoleStudent, ru.From)
			assert.Equal(t, tt.role, ru.To)
		})
	}
}

func TestUpdateUser_AdminScope(t *testing.T) {
	ctx := context.Background()
	admin := policy.RoleAdmin
	name := "New Name"

	repo := newStubRepo(accounts()...)
	svc := NewService(repo, &recorder{})

	_, err := svc.UpdateUser(ctx, as(policy.RoleAdmin), "student", AdminUpdateUserRequest{Role: &admin})
	assert.ErrorIs(t, err, core.ErrForbidden, "admin may not grant admin")

	_, err = svc.UpdateUser(ctx, as(policy.RoleAdmin), "admin2", AdminUpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, core.ErrForbidden, "admin may not edit a peer")

	assert.Empty(t, repo.writes)
}

func TestUpdateUser_AuditsProfileSeparately(t *testing.T) {
	repo := newStubRepo(accounts()...)
	rec := &recorder{}
	svc := NewService(repo, rec)

	name := "Ada L."
	section := "4B"
	course := "CS"
	u, err := svc.UpdateUser(context.Background(), as(policy.RoleAdmin), "student", AdminUpdateUserRequest{
		Name:    &name,
		Section: &section,
		Course:  &course,
	})
	require.NoError(t, err)
	assert.Equal(t, "4B", u.Section)

	assert.Equal(t, []audit.Action{audit.ActionUserUpdate, audit.ActionStudentProfile}, rec.actions())

	full := rec.entries[0].(audit.UserUpdate)
	assert.Len(t, full.Changes, 3)
	profile := rec.entries[1].(audit.StudentProfileUpdate)
	assert.Len(t, profile.Changes, 2)
	assert.NotContains(t, profile.Changes, "name")
}

func TestUpdateUser_NoChangesNoAudit(t *testing.T) {
	repo := newStubRepo(accounts()...)
	rec := &recorder{}
	svc := NewService(repo, rec)

	_, err := svc.UpdateUser(context.Background(), as(policy.RoleAdmin), "guest", AdminUpdateUserRequest{})
	require.NoError(t, err)
	assert.Empty(t, repo.writes)
	assert.Empty(t, rec.entries)
}

func TestDeleteUser_Superadmin(t *testing.T) {
	repo := newStubRepo(accounts()...)
	rec := &recorder{}
	svc := NewService(repo, rec)

	require.NoError(t, svc.DeleteUser(context.Background(), as(policy.RoleSuperadmin), "admin"))
	assert.NotContains(t, repo.users, "admin")
	assert.Equal(t, []audit.Action{audit.ActionUserDelete}, rec.actions())
}

func TestCreate_IsUnverifiedGuest(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)

	info, err := svc.Create(context.Background(), "  Ada@Example.COM ", "hash", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", info.Email)
	assert.Equal(t, policy.RoleGuest, info.Role)
	assert.False(t, info.IsVerified)
}

func TestResolveCaller(t *testing.T) {
	repo := newStubRepo(&User{ID: "u", Role: policy.RoleGuest, IsBanned: true, BanReason: "spam"})
	svc := NewService(repo, nil)

	c, err := svc.ResolveCaller(context.Background(), "u")
	require.NoError(t, err)
	assert.True(t, c.IsBanned)
	assert.Equal(t, "spam", c.BanReason)

	_, err = svc.ResolveCaller(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestHandler_AdminBansAdminIsForbidden(t *testing.T) {
	repo := newStubRepo(accounts()...)
	h := NewHandler(NewService(repo, &recorder{}))

	router := chi.NewRouter()
	inject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithCaller(r.Context(), as(policy.RoleAdmin))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	h.RegisterAdminRoutes(router, inject,
		middleware.RequireRole(policy.Staff...),
		middleware.RequireRole(policy.RoleSuperadmin),
	)

	req := httptest.NewRequest(http.MethodPatch, "/superadmin/users/admin2/ban",
		strings.NewReader(`{"reason":"peer conflict"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
	assert.False(t, repo.users["admin2"].IsBanned)

	req = httptest.NewRequest(http.MethodDelete, "/superadmin/users/guest", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, "delete is superadmin only")
}

func TestHandler_InvalidRoleIs400(t *testing.T) {
	repo := newStubRepo(accounts()...)
	h := NewHandler(NewService(repo, &recorder{}))

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithCaller(r.Context(), as(policy.RoleSuperadmin))))
		})
	})
	router.Patch("/superadmin/users/{userID}/role", h.UpdateUserRole)

	req := httptest.NewRequest(http.MethodPatch, "/superadmin/users/student/role",
		strings.NewReader(`{"role":"dean"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid role")
}
