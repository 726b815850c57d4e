// AngelaMos | 2026
// service.go

package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/thesis-archive/internal/audit"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/user"
)

var (
	ErrDuplicatePending = core.NewAppError(
		core.ErrInvalidInput,
		"you already have a pending application",
		http.StatusBadRequest,
		"DUPLICATE_PENDING",
	)
	ErrNotPending = core.NewAppError(
		core.ErrInvalidState,
		"application is not pending",
		http.StatusBadRequest,
		"NOT_PENDING",
	)
)

// CourseValidator reports whether a course code names a known department.
type CourseValidator interface {
	IsValidCode(ctx context.Context, code string) (bool, error)
}

// DB is the connection the service reads through and opens transactions on.
type DB interface {
	core.DBTX
	core.TxRunner
}

type ServiceConfig struct {
	DB      DB
	Courses CourseValidator
	Audit   audit.Recorder
}

type Service struct {
	db      DB
	repo    Repository
	courses CourseValidator
	audit   audit.Recorder
}

func NewService(cfg ServiceConfig) *Service {
	recorder := cfg.Audit
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Service{
		db:      cfg.DB,
		repo:    NewRepository(cfg.DB),
		courses: cfg.Courses,
		audit:   recorder,
	}
}

// Submit files a pending application. The pre-check gives the common case a
// clean error; the partial unique index settles concurrent submissions.
func (s *Service) Submit(
	ctx context.Context,
	userID string,
	req SubmitRequest,
) (*Application, error) {
	course := strings.ToUpper(strings.TrimSpace(req.Course))

	ok, err := s.courses.IsValidCode(ctx, course)
	if err != nil {
		return nil, fmt.Errorf("submit application: %w", err)
	}
	if !ok {
		return nil, core.InvalidInputf("invalid course")
	}

	pending, err := s.repo.HasPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	app := &Application{
		ID:     uuid.New().String(),
		UserID: userID,
		StudentProfile: user.StudentProfile{
			FirstName:  strings.TrimSpace(req.FirstName),
			MiddleName: strings.TrimSpace(req.MiddleName),
			LastName:   strings.TrimSpace(req.LastName),
			Section:    strings.TrimSpace(req.Section),
			Course:     course,
			SchoolYear: strings.TrimSpace(req.SchoolYear),
		},
	}

	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, ErrDuplicatePending) {
			return nil, ErrDuplicatePending
		}
		return nil, err
	}

	s.audit.Record(ctx, userID, audit.AppSubmit{
		ApplicationRef: ref(app),
		Course:         app.Course,
	})
	return app, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Application, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}

func (s *Service) ListMine(
	ctx context.Context,
	userID string,
	page core.PageParams,
) ([]Application, int, error) {
	return s.repo.List(ctx, ListParams{PageParams: page, UserID: userID})
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Application, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, core.InvalidInputf("invalid status %q", params.Status)
	}
	return s.repo.List(ctx, params)
}

// Approve decides the application and promotes its owner in one
// transaction, so an approved application always has an upgraded account.
func (s *Service) Approve(ctx context.Context, actorID, id string) (_ *Application, err error) {
	ctx, span := core.StartSpan(ctx, "application.Approve", attribute.String("application.id", id))
	defer func() { core.EndSpan(span, err) }()

	var app *Application
	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		decided, err := NewRepository(tx).Decide(ctx, id, StatusApproved, "", actorID)
		if err != nil {
			return err
		}

		err = user.NewRepository(tx).PromoteToStudent(ctx, decided.UserID, decided.StudentProfile)
		if errors.Is(err, core.ErrNotFound) {
			return core.InvalidInputf("applicant account no longer exists")
		}
		if err != nil {
			return fmt.Errorf("promote applicant: %w", err)
		}

		app = decided
		return nil
	})
	if err != nil {
		return nil, s.decisionError(ctx, id, err)
	}

	core.ModerationTransitions.WithLabelValues("application", string(audit.ActionAppApprove)).Inc()
	s.audit.Record(ctx, actorID, audit.AppApprove{ApplicationRef: ref(app)})
	return app, nil
}

func (s *Service) Reject(ctx context.Context, actorID, id, reason string) (*Application, error) {
	app, err := s.repo.Decide(ctx, id, StatusRejected, strings.TrimSpace(reason), actorID)
	if err != nil {
		return nil, s.decisionError(ctx, id, err)
	}

	core.ModerationTransitions.WithLabelValues("application", string(audit.ActionAppReject)).Inc()
	s.audit.Record(ctx, actorID, audit.AppReject{ApplicationRef: ref(app), Reason: app.Reason})
	return app, nil
}

// decisionError separates a missing application from one that was already
// decided; Decide reports both as zero rows.
func (s *Service) decisionError(ctx context.Context, id string, err error) error {
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	if _, getErr := s.repo.GetByID(ctx, id); getErr != nil {
		return getErr
	}
	return ErrNotPending
}

func ref(a *Application) audit.ApplicationRef {
	return audit.ApplicationRef{ApplicationID: a.ID, UserID: a.UserID}
}
