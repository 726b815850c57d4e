// AngelaMos | 2026
// entity.go

package application

import (
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application is a request to be verified as a student. The profile fields
// are copied onto the account when it is approved.
type Application struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
	user.StudentProfile
	Status      Status     `db:"status"`
	Reason      string     `db:"reason"`
	SubmittedAt time.Time  `db:"submitted_at"`
	DecidedAt   *time.Time `db:"decided_at"`
	DecidedBy   *string    `db:"decided_by"`
}
