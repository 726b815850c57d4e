// AngelaMos | 2026
// repository_test.go

package thesis

import (
	"context"
	"regexp"
	"testing"
	"time"

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

var thesisCols = []string{
	"id", "title", "description", "author", "course", "year", "department",
	"uploaded_by", "file_url", "file_id", "status", "rejection_reason",
	"rejected_at", "approved_at", "is_trashed", "trashed_at", "trash_reason",
	"upvotes", "downvotes", "created_at", "updated_at",
}

func TestRepository_RejectIsSingleUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`trash_reason = 'rejected'`)).
		WithArgs("t1", "off topic").
		WillReturnRows(sqlmock.NewRows(thesisCols).AddRow(
			"t1", "Title", "", "A", "BSIT", 2025, "CCS",
			nil, "/files/x.pdf", "x.pdf", "rejected", "off topic",
			now, nil, true, now, "rejected",
			0, 0, now, now,
		))

	got, err := repo.Reject(context.Background(), "t1", "off topic")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
	assert.True(t, got.IsTrashed)
	require.NotNil(t, got.TrashReason)
	assert.Equal(t, TrashRejected, *got.TrashReason)
	assert.Nil(t, got.UploadedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ApproveRequiresPending(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND status = 'pending'`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(thesisCols))

	_, err := repo.Approve(context.Background(), "t1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_VoteRecomputesInTx(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (thesis_id, user_id) DO UPDATE`)).
		WithArgs("t1", "u1", -1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`RETURNING upvotes, downvotes`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(3, 1))
	mock.ExpectCommit()

	tally, err := repo.Vote(context.Background(), "t1", "u1", -1)
	require.NoError(t, err)
	assert.Equal(t, Tally{Upvotes: 3, Downvotes: 1}, tally)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_VoteClearAndMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM thesis_votes WHERE thesis_id = $1 AND user_id = $2`)).
		WithArgs("t1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`RETURNING upvotes, downvotes`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(0, 0))
	mock.ExpectCommit()

	_, err := repo.Vote(context.Background(), "t1", "u1", 0)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = repo.Vote(context.Background(), "gone", "u1", 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListPublicFilters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	count := `SELECT COUNT(*) FROM theses WHERE is_trashed = $1 ` +
		`AND status = $2 AND department = $3 AND (title ILIKE $4`
	mock.ExpectQuery(regexp.QuoteMeta(count)).
		WithArgs(false, "approved", "CCS", `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $5 OFFSET $6`)).
		WithArgs(false, "approved", "CCS", `%50\%%`, 20, 0).
		WillReturnRows(sqlmock.NewRows(thesisCols))

	_, total, err := repo.List(context.Background(), ListParams{
		Status:     StatusApproved,
		Department: "CCS",
		Query:      "50%",
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ExpiredQueriesUseCutoff(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`status = 'rejected' AND NOT is_trashed AND rejected_at < $1`)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(thesisCols))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE is_trashed AND trashed_at < $1`)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(thesisCols))

	_, err := repo.ExpiredRejected(context.Background(), cutoff)
	require.NoError(t, err)
	_, err = repo.ExpiredTrash(context.Background(), cutoff)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
