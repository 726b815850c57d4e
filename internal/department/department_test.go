// AngelaMos | 2026
// department_test.go

package department

import (
	"context"
	"fmt"
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
)

type stubRepo struct {
	depts map[string]*Department
}

func newStubRepo(depts ...*Department) *stubRepo {
	r := &stubRepo{depts: map[string]*Department{}}
	for _, d := range depts {
		r.depts[d.ID] = d
	}
	return r
}

func (r *stubRepo) Create(_ context.Context, d *Department) error {
	for _, existing := range r.depts {
		if existing.Code == d.Code {
			return fmt.Errorf("create department: %w", core.ErrDuplicateKey)
		}
	}
	r.depts[d.ID] = d
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*Department, error) {
	d, ok := r.depts[id]
	if !ok {
		return nil, fmt.Errorf("get department: %w", core.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (r *stubRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, d := range r.depts {
		if d.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) Update(_ context.Context, d *Department) error {
	cp := *d
	r.depts[d.ID] = &cp
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id string) error {
	delete(r.depts, id)
	return nil
}

func (r *stubRepo) List(context.Context) ([]Department, error) {
	out := make([]Department, 0, len(r.depts))
	for _, d := range r.depts {
		out = append(out, *d)
	}
	return out, nil
}

func (r *stubRepo) Count(context.Context) (int, error) { return len(r.depts), nil }

type recorder struct {
	entries []audit.Details
}

func (r *recorder) Record(_ context.Context, _ string, d audit.Details) {
	r.entries = append(r.entries, d)
}

func TestCreate_NormalizesCode(t *testing.T) {
	rec := &recorder{}
	svc := NewService(newStubRepo(), rec)

	dept, err := svc.Create(context.Background(), "sa", CreateDepartmentRequest{
		Name: " Computer Science ", Code: " bscs ",
	})
	require.NoError(t, err)
	assert.Equal(t, "BSCS", dept.Code)
	assert.Equal(t, "Computer Science", dept.Name)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, audit.ActionDepartmentAdd, rec.entries[0].Action())

	_, err = svc.Create(context.Background(), "sa", CreateDepartmentRequest{Name: "Dup", Code: "BsCs"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.Len(t, rec.entries, 1)
}

func TestIsValidCode(t *testing.T) {
	svc := NewService(newStubRepo(&Department{ID: "d1", Code: "BSIT"}), nil)

	ok, err := svc.IsValidCode(context.Background(), "bsit")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsValidCode(context.Background(), "BSXX")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsValidCode(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_RecordsDiffOnly(t *testing.T) {
	rec := &recorder{}
	svc := NewService(newStubRepo(&Department{ID: "d1", Name: "IT", Code: "BSIT"}), rec)

	same := "bsit"
	_, err := svc.Update(context.Background(), "sa", "d1", UpdateDepartmentRequest{Code: &same})
	require.NoError(t, err)
	assert.Empty(t, rec.entries, "no-op edits are not audited")

	name := "Information Technology"
	dept, err := svc.Update(context.Background(), "sa", "d1", UpdateDepartmentRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, dept.Name)

	require.Len(t, rec.entries, 1)
	upd, ok := rec.entries[0].(audit.DepartmentUpdate)
	require.True(t, ok)
	assert.Equal(t, audit.Change{From: "IT", To: name}, upd.Changes["name"])
	assert.NotContains(t, upd.Changes, "code")
}

func TestDelete_Missing(t *testing.T) {
	rec := &recorder{}
	svc := NewService(newStubRepo(), rec)

	err := svc.Delete(context.Background(), "sa", "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, rec.entries)
}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO departments (id, name, code)`)).
		WithArgs("d1", "IT", "BSIT").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "departments_code_key"})

	err := repo.Create(context.Background(), &Department{ID: "d1", Name: "IT", Code: "BSIT"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListOrdersByCode(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM departments ORDER BY code`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "created_at", "updated_at"}).
			AddRow("d1", "Education", "BSED", now, now).
			AddRow("d2", "IT", "BSIT", now, now))

	depts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, "BSED", depts[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_CreateConflict(t *testing.T) {
	h := NewHandler(NewService(newStubRepo(&Department{ID: "d1", Code: "BSIT"}), nil))
	pass := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	h.RegisterAdminRoutes(r, pass, pass)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"created", `{"name":"Nursing","code":"bsn"}`, http.StatusCreated},
		{"duplicate code", `{"name":"IT again","code":"bsit"}`, http.StatusConflict},
		{"missing name", `{"code":"abc"}`, http.StatusBadRequest},
		{"code with spaces", `{"name":"X","code":"a b"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost,
				"/superadmin/departments/",
				strings.NewReader(tt.body),
			)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
