// AngelaMos | 2026
// entity.go

package thesis

import (
	"time"
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

type TrashReason string

const (
	TrashRejected TrashReason = "rejected"
	TrashDeleted  TrashReason = "deleted"
)

type Thesis struct {
	ID              string       `db:"id"`
	Title           string       `db:"title"`
	Description     string       `db:"description"`
	Author          string       `db:"author"`
	Course          string       `db:"course"`
	Year            int          `db:"year"`
	Department      string       `db:"department"`
	UploadedBy      *string      `db:"uploaded_by"`
	FileURL         string       `db:"file_url"`
	FileID          string       `db:"file_id"`
	Status          Status       `db:"status"`
	RejectionReason string       `db:"rejection_reason"`
	RejectedAt      *time.Time   `db:"rejected_at"`
	ApprovedAt      *time.Time   `db:"approved_at"`
	IsTrashed       bool         `db:"is_trashed"`
	TrashedAt       *time.Time   `db:"trashed_at"`
	TrashReason     *TrashReason `db:"trash_reason"`
	Upvotes         int          `db:"upvotes"`
	Downvotes       int          `db:"downvotes"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

// IsPublic reports whether anonymous readers may see the thesis.
func (t *Thesis) IsPublic() bool {
	return t.Status == StatusApproved && !t.IsTrashed
}

// Tally is the vote state of a thesis after a vote is applied.
type Tally struct {
	Upvotes   int `db:"upvotes"   json:"upvotes"`
	Downvotes int `db:"downvotes" json:"downvotes"`
}
