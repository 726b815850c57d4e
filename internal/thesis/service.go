// AngelaMos | 2026
// service.go

package thesis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/thesis-archive/internal/audit"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/storage"
)

var (
	ErrNotPending = core.NewAppError(
		core.ErrInvalidState,
		"thesis is not pending",
		http.StatusBadRequest,
		"NOT_PENDING",
	)
	ErrNotTrashed = core.NewAppError(
		core.ErrInvalidState,
		"thesis is not in trash",
		http.StatusBadRequest,
		"NOT_TRASHED",
	)
	ErrAlreadyTrash = core.NewAppError(
		core.ErrInvalidState,
		"thesis is already in trash",
		http.StatusBadRequest,
		"ALREADY_TRASHED",
	)
)

type ServiceConfig struct {
	Repo    Repository
	Storage storage.Provider
	Audit   audit.Recorder
	Logger  *slog.Logger
}

type Service struct {
	repo    Repository
	storage storage.Provider
	audit   audit.Recorder
	logger  *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:    cfg.Repo,
		storage: cfg.Storage,
		audit:   cfg.Audit,
		logger:  cfg.Logger,
	}
	if s.audit == nil {
		s.audit = audit.Discard{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Upload stores the file and creates a pending thesis owned by uploaderID.
// The stored file is removed again if the record cannot be written.
func (s *Service) Upload(
	ctx context.Context,
	uploaderID string,
	req UploadRequest,
	filename string,
	file io.Reader,
) (_ *Thesis, err error) {
	ctx, span := core.StartSpan(ctx, "thesis.Upload")
	defer func() { core.EndSpan(span, err) }()

	obj, err := s.storage.Save(ctx, filename, file)
	if err != nil {
		if errors.Is(err, storage.ErrNotPDF) || errors.Is(err, storage.ErrTooLarge) {
			return nil, core.InvalidInputf("%s", storageMessage(err))
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}

	t := &Thesis{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Author:      strings.TrimSpace(req.Author),
		Course:      strings.ToUpper(strings.TrimSpace(req.Course)),
		Year:        req.Year,
		Department:  strings.ToUpper(strings.TrimSpace(req.Department)),
		UploadedBy:  &uploaderID,
		FileURL:     obj.URL,
		FileID:      obj.ID,
		Status:      StatusPending,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.deleteFile(ctx, obj.ID)
		return nil, err
	}

	return t, nil
}

func storageMessage(err error) string {
	if errors.Is(err, storage.ErrTooLarge) {
		return storage.ErrTooLarge.Error()
	}
	return storage.ErrNotPDF.Error()
}

// GetPublic hides anything not approved or in the trash behind NotFound.
func (s *Service) GetPublic(ctx context.Context, id string) (*Thesis, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsPublic() {
		return nil, fmt.Errorf("get thesis: %w", core.ErrNotFound)
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Thesis, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPublic(ctx context.Context, params ListParams) ([]Thesis, int, error) {
	params.Status = StatusApproved
	params.Trashed = false
	params.UploadedBy = ""
	return s.repo.List(ctx, params)
}

func (s *Service) ListMine(
	ctx context.Context,
	userID string,
	page core.PageParams,
) ([]Thesis, int, error) {
	return s.repo.List(ctx, ListParams{PageParams: page, UploadedBy: userID})
}

func (s *Service) ListAdmin(ctx context.Context, params ListParams) ([]Thesis, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, core.InvalidInputf("invalid status %q", params.Status)
	}
	params.Trashed = false
	return s.repo.List(ctx, params)
}

func (s *Service) ListTrash(ctx context.Context, params ListParams) ([]Thesis, int, error) {
	params.Trashed = true
	return s.repo.List(ctx, params)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Approve is only valid from pending. A repeated approve fails and records
// nothing.
func (s *Service) Approve(ctx context.Context, actorID, id string) (_ *Thesis, err error) {
	ctx, span := core.StartSpan(ctx, "thesis.Approve", attribute.String("thesis.id", id))
	defer func() { core.EndSpan(span, err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, ErrNotPending
	}

	t, err := s.repo.Approve(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNotPending
		}
		return nil, err
	}

	s.transitioned(ctx, actorID, audit.ApproveThesis{ThesisRef: ref(t)})
	return t, nil
}

// Reject is valid from any status and always leaves the thesis trashed.
func (s *Service) Reject(ctx context.Context, actorID, id, reason string) (_ *Thesis, err error) {
	ctx, span := core.StartSpan(ctx, "thesis.Reject", attribute.String("thesis.id", id))
	defer func() { core.EndSpan(span, err) }()

	t, err := s.repo.Reject(ctx, id, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, actorID, audit.RejectThesis{ThesisRef: ref(t), Reason: t.RejectionReason})
	return t, nil
}

// Update applies the metadata whitelist and records a diff of the fields
// that actually changed.
func (s *Service) Update(
	ctx context.Context,
	actorID, id string,
	req UpdateThesisRequest,
) (*Thesis, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]audit.Change{}
	str := func(field string, dst *string, val *string) {
		if val == nil {
			return
		}
		v := strings.TrimSpace(*val)
		if v == *dst {
			return
		}
		changes[field] = audit.Change{From: *dst, To: v}
		*dst = v
	}

	str("title", &t.Title, req.Title)
	str("description", &t.Description, req.Description)
	str("author", &t.Author, req.Author)
	str("course", &t.Course, req.Course)
	str("department", &t.Department, req.Department)

	if req.Year != nil && *req.Year != t.Year {
		changes["year"] = audit.Change{From: t.Year, To: *req.Year}
		t.Year = *req.Year
	}

	if req.Status != nil && Status(*req.Status) != t.Status {
		next := Status(*req.Status)
		if !next.Valid() {
			return nil, core.InvalidInputf("invalid status %q", *req.Status)
		}
		changes["status"] = audit.Change{From: t.Status, To: next}
		t.Status = next
	}

	if len(changes) == 0 {
		return t, nil
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.transitioned(ctx, actorID, audit.UpdateThesis{ThesisRef: ref(t), Changes: changes})
	return t, nil
}

// Trash soft-deletes without touching the moderation status.
func (s *Service) Trash(ctx context.Context, actorID, id string) (*Thesis, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	t, err := s.repo.Trash(ctx, id, TrashDeleted)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrAlreadyTrash
		}
		return nil, err
	}

	s.transitioned(ctx, actorID, audit.TrashThesis{ThesisRef: ref(t)})
	return t, nil
}

func (s *Service) Restore(ctx context.Context, actorID, id string) (*Thesis, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	t, err := s.repo.Restore(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNotTrashed
		}
		return nil, err
	}

	s.transitioned(ctx, actorID, audit.RestoreThesis{ThesisRef: ref(t)})
	return t, nil
}

// Purge removes the stored file best-effort and then the record, which is
// authoritative.
func (s *Service) Purge(ctx context.Context, actorID, id string) (err error) {
	ctx, span := core.StartSpan(ctx, "thesis.Purge", attribute.String("thesis.id", id))
	defer func() { core.EndSpan(span, err) }()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.deleteFile(ctx, t.FileID)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.transitioned(ctx, actorID, audit.PurgeThesis{ThesisRef: ref(t)})
	return nil
}

func (s *Service) PurgeRejected(ctx context.Context, actorID string) (_ int, err error) {
	ctx, span := core.StartSpan(ctx, "thesis.PurgeRejected")
	defer func() { core.EndSpan(span, err) }()

	removed, err := s.repo.DeleteRejected(ctx)
	if err != nil {
		return 0, err
	}

	for i := range removed {
		s.deleteFile(ctx, removed[i].FileID)
	}

	s.transitioned(ctx, actorID, audit.PurgeRejected{Count: len(removed)})
	return len(removed), nil
}

func (s *Service) Vote(ctx context.Context, userID, id string, value int) (Tally, error) {
	if value < -1 || value > 1 {
		return Tally{}, core.InvalidInputf("vote must be -1, 0 or 1")
	}
	return s.repo.Vote(ctx, id, userID, value)
}

func (s *Service) deleteFile(ctx context.Context, fileID string) {
	if fileID == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, fileID); err != nil && !errors.Is(err, core.ErrNotFound) {
		s.logger.WarnContext(ctx, "stored file delete failed",
			"file_id", fileID,
			"error", err,
		)
	}
}

func (s *Service) transitioned(ctx context.Context, actorID string, d audit.Details) {
	core.ModerationTransitions.WithLabelValues("thesis", string(d.Action())).Inc()
	s.audit.Record(ctx, actorID, d)
}

func ref(t *Thesis) audit.ThesisRef {
	return audit.ThesisRef{ThesisID: t.ID, Title: t.Title}
}
