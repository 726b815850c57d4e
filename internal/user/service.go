// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/thesis-archive/internal/audit"
	"github.com/carterperez-dev/thesis-archive/internal/auth"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/middleware"
	"github.com/carterperez-dev/thesis-archive/internal/policy"
)

type Service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Service{repo: repo, audit: recorder}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// Create registers a new unverified guest.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         policy.RoleGuest,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// ResolveCaller loads the live account for the authorization gate, so role
// and ban changes apply to tokens that are already issued.
func (s *Service) ResolveCaller(
	ctx context.Context,
	userID string,
) (*middleware.Caller, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &middleware.Caller{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		IsBanned:   user.IsBanned,
		BanReason:  user.BanReason,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	if params.Role != "" && !policy.IsValidRole(params.Role) {
		return nil, 0, core.InvalidInputf("invalid role %q", params.Role)
	}
	return s.repo.List(ctx, params)
}

func (s *Service) CountByRole(ctx context.Context, role string) (int, error) {
	return s.repo.CountByRole(ctx, role)
}

// UpdateUser applies the combined profile and role edit. Every permission
// check runs before the single write.
func (s *Service) UpdateUser(
	ctx context.Context,
	caller *middleware.Caller,
	id string,
	req AdminUpdateUserRequest,
) (*User, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Evaluate(policy.ActionEditUser, caller.Role, target.Role); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if req.Role != nil {
		if err := policy.CanAssign(caller.Role, target.Role, *req.Role); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	changes := map[string]audit.Change{}
	profileChanges := map[string]audit.Change{}

	apply := func(field string, dst *string, val *string, profile bool) {
		if val == nil || *val == *dst {
			return
		}
		c := audit.Change{From: *dst, To: *val}
		changes[field] = c
		if profile {
			profileChanges[field] = c
		}
		*dst = *val
	}

	apply("name", &target.Name, req.Name, false)
	apply("role", &target.Role, req.Role, false)
	apply("first_name", &target.FirstName, req.FirstName, true)
	apply("middle_name", &target.MiddleName, req.MiddleName, true)
	apply("last_name", &target.LastName, req.LastName, true)
	apply("section", &target.Section, req.Section, true)
	apply("course", &target.Course, req.Course, true)
	apply("school_year", &target.SchoolYear, req.SchoolYear, true)

	if len(changes) == 0 {
		return target, nil
	}

	if err := s.repo.Update(ctx, target); err != nil {
		return nil, err
	}

	ref := audit.UserRef{UserID: target.ID, Email: target.Email}
	s.audit.Record(ctx, caller.ID, audit.UserUpdate{UserRef: ref, Changes: changes})
	if len(profileChanges) > 0 {
		s.audit.Record(ctx, caller.ID, audit.StudentProfileUpdate{
			UserRef: ref,
			Changes: profileChanges,
		})
	}

	return target, nil
}

func (s *Service) ChangeRole(
	ctx context.Context,
	caller *middleware.Caller,
	id, role string,
) (*User, error) {
	if !policy.IsValidRole(role) {
		return nil, core.InvalidInputf("invalid role %q", role)
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Evaluate(policy.ActionChangeRole, caller.Role, target.Role); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	if err := policy.CanAssign(caller.Role, target.Role, role); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	if target.Role == role {
		return target, nil
	}

	from := target.Role
	target.Role = role
	if err := s.repo.Update(ctx, target); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, caller.ID, audit.UserRoleUpdate{
		UserRef: audit.UserRef{UserID: target.ID, Email: target.Email},
		From:    from,
		To:      role,
	})

	return target, nil
}

func (s *Service) Ban(
	ctx context.Context,
	caller *middleware.Caller,
	id, reason string,
) (*User, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Evaluate(policy.ActionBan, caller.Role, target.Role); err != nil {
		return nil, fmt.Errorf("ban user: %w", err)
	}

	banned, err := s.repo.SetBan(ctx, id, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, caller.ID, audit.UserBan{
		UserRef: audit.UserRef{UserID: banned.ID, Email: banned.Email},
		Reason:  banned.BanReason,
	})

	return banned, nil
}

func (s *Service) Unban(
	ctx context.Context,
	caller *middleware.Caller,
	id string,
) (*User, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Evaluate(policy.ActionUnban, caller.Role, target.Role); err != nil {
		return nil, fmt.Errorf("unban user: %w", err)
	}

	unbanned, err := s.repo.ClearBan(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, caller.ID, audit.UserUnban{
		UserRef: audit.UserRef{UserID: unbanned.ID, Email: unbanned.Email},
	})

	return unbanned, nil
}

func (s *Service) DeleteUser(
	ctx context.Context,
	caller *middleware.Caller,
	id string,
) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Evaluate(policy.ActionDeleteUser, caller.Role, target.Role); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, caller.ID, audit.UserDelete{
		UserRef: audit.UserRef{UserID: target.ID, Email: target.Email},
		Role:    target.Role,
	})

	return nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

// UpdateMe lets an account rename itself. Role and the student profile are
// staff-managed.
func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateMeRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name == nil || *req.Name == user.Name {
		return user, nil
	}

	user.Name = strings.TrimSpace(*req.Name)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsVerified:   u.IsVerified,
		IsBanned:     u.IsBanned,
		BanReason:    u.BanReason,
		CreatedAt:    u.CreatedAt,
	}
}

var (
	_ auth.UserProvider         = (*Service)(nil)
	_ middleware.CallerResolver = (*Service)(nil)
)
