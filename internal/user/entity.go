// AngelaMos | 2026
// entity.go

package user

import "time"

// StudentProfile is copied from an approved application and afterwards
// editable only by staff.
type StudentProfile struct {
	FirstName  string `db:"first_name"  json:"first_name"`
	MiddleName string `db:"middle_name" json:"middle_name"`
	LastName   string `db:"last_name"   json:"last_name"`
	Section    string `db:"section"     json:"section"`
	Course     string `db:"course"      json:"course"`
	SchoolYear string `db:"school_year" json:"school_year"`
}

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	IsVerified   bool       `db:"is_verified"`
	IsBanned     bool       `db:"is_banned"`
	BanReason    string     `db:"ban_reason"`
	BannedAt     *time.Time `db:"banned_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`

	StudentProfile
}
