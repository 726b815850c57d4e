// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestRepository_PromoteToStudent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`SET role = CASE WHEN role = 'guest' THEN 'student' ELSE role END`)).
		WithArgs("u1", "Ada", "", "Lovelace", "4B", "CS", "2026").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.PromoteToStudent(context.Background(), "u1", StudentProfile{
		FirstName: "Ada", LastName: "Lovelace", Section: "4B", Course: "CS", SchoolYear: "2026",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteMissingOrSuperadmin(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1 AND role <> 'superadmin'`)).
		WithArgs("root").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "root")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetBanOnlyGuestsAndStudents(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND role IN ('guest', 'student')`)).
		WithArgs("admin", "spam").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.SetBan(context.Background(), "admin", "spam")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListFilters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	count := `SELECT COUNT(*) FROM users WHERE TRUE ` +
		`AND (email ILIKE $1 OR name ILIKE $1) AND role = $2`
	mock.ExpectQuery(regexp.QuoteMeta(count)).
		WithArgs(`%50\%%`, "student").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs(`%50\%%`, "student", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, total, err := repo.List(context.Background(), ListUsersParams{Search: "50%", Role: "student"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
