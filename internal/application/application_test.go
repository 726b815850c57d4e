// AngelaMos | 2026
// application_test.go

package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/thesis-archive/internal/audit"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/middleware"
)

type courses map[string]bool

func (c courses) IsValidCode(_ context.Context, code string) (bool, error) {
	return c[code], nil
}

type recorder struct {
	entries []audit.Details
}

func (r *recorder) Record(_ context.Context, _ string, d audit.Details) {
	r.entries = append(r.entries, d)
}

var appCols = []string{
	"id", "user_id", "first_name", "middle_name", "last_name", "section",
	"course", "school_year", "status", "reason", "submitted_at",
	"decided_at", "decided_by",
}

type fixture struct {
	svc   *Service
	mock  sqlmock.Sqlmock
	audit *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := &recorder{}
	return &fixture{
		svc: NewService(ServiceConfig{
			DB:      sqlx.NewDb(db, "sqlmock"),
			Courses: courses{"BSIT": true},
			Audit:   rec,
		}),
		mock:  mock,
		audit: rec,
	}
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		FirstName: "Ada", LastName: "Lovelace", Section: "4B",
		Course: "bsit", SchoolYear: "2025-2026",
	}
}

func TestSubmit_UnknownCourse(t *testing.T) {
	f := newFixture(t)
	req := validSubmit()
	req.Course = "ZZZZ"

	_, err := f.svc.Submit(context.Background(), "u1", req)
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Contains(t, err.Error(), "invalid course")
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Empty(t, f.audit.entries)
}

func TestSubmit_DuplicatePending(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta(`user_id = $1 AND status = 'pending'`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := f.svc.Submit(context.Background(), "u1", validSubmit())
	assert.ErrorIs(t, err, ErrDuplicatePending)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSubmit_ConcurrentDuplicateHitsIndex(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO applications`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: onePendingIndex})

	_, err := f.svc.Submit(context.Background(), "u1", validSubmit())
	assert.ErrorIs(t, err, ErrDuplicatePending)
	assert.Empty(t, f.audit.entries)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSubmit_OK(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO applications`)).
		WithArgs(sqlmock.AnyArg(), "u1", "Ada", "", "Lovelace", "4B", "BSIT", "2025-2026").
		WillReturnRows(sqlmock.NewRows([]string{"status", "submitted_at"}).AddRow("pending", time.Now()))

	app, err := f.svc.Submit(context.Background(), "u1", validSubmit())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, app.Status)
	assert.Equal(t, "BSIT", app.Course)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, audit.ActionAppSubmit, f.audit.entries[0].Action())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApprove_PromotesInOneTransaction(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE applications`)).
		WithArgs("a1", "approved", "", "admin").
		WillReturnRows(sqlmock.NewRows(appCols).AddRow(
			"a1", "u1", "Ada", "", "Lovelace", "4B", "BSIT", "2025-2026",
			"approved", "", now, now, "admin",
		))
	f.mock.ExpectExec(regexp.QuoteMeta(`SET role = CASE WHEN role = 'guest' THEN 'student' ELSE role END`)).
		WithArgs("u1", "Ada", "", "Lovelace", "4B", "BSIT", "2025-2026").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	app, err := f.svc.Approve(context.Background(), "admin", "a1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, app.Status)
	require.NotNil(t, app.DecidedBy)
	assert.Equal(t, "admin", *app.DecidedBy)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, audit.ActionAppApprove, f.audit.entries[0].Action())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApprove_PromoteFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE applications`)).
		WillReturnRows(sqlmock.NewRows(appCols).AddRow(
			"a1", "u1", "Ada", "", "Lovelace", "4B", "BSIT", "2025-2026",
			"approved", "", now, now, "admin",
		))
	f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectRollback()

	_, err := f.svc.Approve(context.Background(), "admin", "a1")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, f.audit.entries)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApprove_AlreadyDecided(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND status = 'pending'`)).
		WillReturnRows(sqlmock.NewRows(appCols))
	f.mock.ExpectRollback()
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM applications WHERE id = $1`)).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(appCols).AddRow(
			"a1", "u1", "Ada", "", "Lovelace", "4B", "BSIT", "2025-2026",
			"approved", "", now, now, "admin",
		))

	_, err := f.svc.Approve(context.Background(), "admin", "a1")
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Empty(t, f.audit.entries)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestReject_Missing(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE applications`)).
		WithArgs("nope", "rejected", "", "admin").
		WillReturnRows(sqlmock.NewRows(appCols))
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM applications WHERE id = $1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(appCols))

	_, err := f.svc.Reject(context.Background(), "admin", "nope", " ")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_SubmitInvalidCourse(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	asGuest := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithCaller(r.Context(), &middleware.Caller{ID: "u1", Role: "guest"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r, asGuest)

	body := `{"first_name":"Ada","last_name":"L","section":"4B","course":"ZZZZ","school_year":"2025"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/applications/", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid course")
}

func TestHandler_RejectAcceptsEmptyBody(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	h := NewHandler(f.svc)
	pass := func(next http.Handler) http.Handler { return next }

	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE applications`)).
		WithArgs("a1", "rejected", "", "").
		WillReturnRows(sqlmock.NewRows(appCols).AddRow(
			"a1", "u1", "Ada", "", "Lovelace", "4B", "BSIT", "2025-2026",
			"rejected", "", now, now, nil,
		))

	r := chi.NewRouter()
	h.RegisterAdminRoutes(r, pass, pass)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/applications/a1/reject", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
