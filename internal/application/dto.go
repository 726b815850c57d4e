// AngelaMos | 2026
// dto.go

package application

import (
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/user"
)

type SubmitRequest struct {
	FirstName  string `json:"first_name"  validate:"required,min=1,max=100"`
	MiddleName string `json:"middle_name" validate:"max=100"`
	LastName   string `json:"last_name"   validate:"required,min=1,max=100"`
	Section    string `json:"section"     validate:"required,min=1,max=50"`
	Course     string `json:"course"      validate:"required,min=1,max=32"`
	SchoolYear string `json:"school_year" validate:"required,min=1,max=20"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type ListParams struct {
	core.PageParams
	Status Status
	UserID string
}

type ApplicationResponse struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	user.StudentProfile
	Status      Status     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	DecidedBy   *string    `json:"decided_by,omitempty"`
}

func ToApplicationResponse(a *Application) ApplicationResponse {
	return ApplicationResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		StudentProfile: a.StudentProfile,
		Status:         a.Status,
		Reason:         a.Reason,
		SubmittedAt:    a.SubmittedAt,
		DecidedAt:      a.DecidedAt,
		DecidedBy:      a.DecidedBy,
	}
}

func ToApplicationResponseList(apps []Application) []ApplicationResponse {
	out := make([]ApplicationResponse, len(apps))
	for i := range apps {
		out[i] = ToApplicationResponse(&apps[i])
	}
	return out
}
