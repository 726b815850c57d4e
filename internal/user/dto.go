// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

type UpdateMeRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

// AdminUpdateUserRequest is the combined profile and role edit. Nil fields
// are left untouched.
type AdminUpdateUserRequest struct {
	Name       *string `json:"name,omitempty"        validate:"omitempty,min=1,max=100"`
	Role       *string `json:"role,omitempty"        validate:"omitempty,max=32"`
	FirstName  *string `json:"first_name,omitempty"  validate:"omitempty,max=100"`
	MiddleName *string `json:"middle_name,omitempty" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name,omitempty"   validate:"omitempty,max=100"`
	Section    *string `json:"section,omitempty"     validate:"omitempty,max=50"`
	Course     *string `json:"course,omitempty"      validate:"omitempty,max=20"`
	SchoolYear *string `json:"school_year,omitempty" validate:"omitempty,max=20"`
}

// Role validity is decided by the service so an unknown role reads as a
// domain error rather than a tag failure.
type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,max=32"`
}

type BanUserRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

type UserResponse struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	IsVerified  bool           `json:"is_verified"`
	IsBanned    bool           `json:"is_banned"`
	BanReason   string         `json:"ban_reason,omitempty"`
	BannedAt    *time.Time     `json:"banned_at,omitempty"`
	Profile     StudentProfile `json:"profile"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ListUsersParams struct {
	core.PageParams
	Search string
	Role   string
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		IsBanned:    u.IsBanned,
		BanReason:   u.BanReason,
		BannedAt:    u.BannedAt,
		Profile:     u.StudentProfile,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
