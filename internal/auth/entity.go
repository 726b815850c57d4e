// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// IssuedToken is a freshly signed access token and the identifiers needed to
// revoke it later.
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

func (t IssuedToken) ExpiresIn() int {
	secs := int(time.Until(t.ExpiresAt) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// UserInfo is the slice of an account the credential flows need.
type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsVerified   bool
	IsBanned     bool
	BanReason    string
	CreatedAt    time.Time
}
