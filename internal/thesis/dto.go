// AngelaMos | 2026
// dto.go

package thesis

import (
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

// UploadRequest is the metadata part of a multipart upload.
type UploadRequest struct {
	Title       string `validate:"required,min=1,max=300"`
	Description string `validate:"max=5000"`
	Author      string `validate:"required,min=1,max=300"`
	Course      string `validate:"required,max=32"`
	Year        int    `validate:"required,min=1900,max=2100"`
	Department  string `validate:"required,max=32"`
}

// UpdateThesisRequest is the edit whitelist. Fields outside it are dropped
// by the decoder.
type UpdateThesisRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1,max=300"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Author      *string `json:"author"      validate:"omitempty,min=1,max=300"`
	Course      *string `json:"course"      validate:"omitempty,max=32"`
	Year        *int    `json:"year"        validate:"omitempty,min=1900,max=2100"`
	Department  *string `json:"department"  validate:"omitempty,max=32"`
	Status      *string `json:"status"      validate:"omitempty,oneof=pending approved rejected"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=1000"`
}

// VoteRequest sets the caller's vote: 1 up, -1 down, 0 clears it.
type VoteRequest struct {
	Value *int `json:"value" validate:"required,oneof=-1 0 1"`
}

type ListParams struct {
	core.PageParams
	Department string
	Course     string
	Year       int
	Query      string
	Status     Status
	UploadedBy string
	Trashed    bool
}

type ThesisResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Author          string     `json:"author"`
	Course          string     `json:"course"`
	Year            int        `json:"year"`
	Department      string     `json:"department"`
	UploadedBy      *string    `json:"uploaded_by,omitempty"`
	FileURL         string     `json:"file_url"`
	Status          Status     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	IsTrashed       bool       `json:"is_trashed"`
	TrashedAt       *time.Time `json:"trashed_at,omitempty"`
	TrashReason     *string    `json:"trash_reason,omitempty"`
	Upvotes         int        `json:"upvotes"`
	Downvotes       int        `json:"downvotes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type VoteResponse struct {
	Tally
	Value int `json:"value"`
}

type PurgeRejectedResponse struct {
	Count int `json:"count"`
}

func ToThesisResponse(t *Thesis) ThesisResponse {
	resp := ThesisResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Author:          t.Author,
		Course:          t.Course,
		Year:            t.Year,
		Department:      t.Department,
		UploadedBy:      t.UploadedBy,
		FileURL:         t.FileURL,
		Status:          t.Status,
		RejectionReason: t.RejectionReason,
		RejectedAt:      t.RejectedAt,
		ApprovedAt:      t.ApprovedAt,
		IsTrashed:       t.IsTrashed,
		TrashedAt:       t.TrashedAt,
		Upvotes:         t.Upvotes,
		Downvotes:       t.Downvotes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.TrashReason != nil {
		reason := string(*t.TrashReason)
		resp.TrashReason = &reason
	}
	return resp
}

func ToThesisResponseList(theses []Thesis) []ThesisResponse {
	out := make([]ThesisResponse, len(theses))
	for i := range theses {
		out[i] = ToThesisResponse(&theses[i])
	}
	return out
}
