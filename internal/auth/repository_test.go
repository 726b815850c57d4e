// AngelaMos | 2026
// repository_test.go

package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

const (
	consumeQuery = `AND verification_attempts < $3`
	missQuery    = `SET verification_attempts = verification_attempts + 1`
)

func TestRepository_SetVerificationCodeResetsAttempts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`verification_attempts = 0`)).
		WithArgs("u1", "123456", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetVerificationCode(context.Background(), "u1", "123456", exp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ConsumeVerificationCode(t *testing.T) {
	tests := []struct {
		name     string
		lookup   VerificationLookup
		matched  bool
		attempts *int
		wantErr  error
	}{
		{
			name:    "match",
			lookup:  VerificationLookup{UserID: "u1"},
			matched: true,
		},
		{
			name:     "miss under cap",
			lookup:   VerificationLookup{Email: "a@example.com"},
			attempts: ptr(2),
			wantErr:  ErrInvalidCode,
		},
		{
			name:     "last allowed miss",
			lookup:   VerificationLookup{UserID: "u1"},
			attempts: ptr(5),
			wantErr:  ErrInvalidCode,
		},
		{
			name:     "past cap",
			lookup:   VerificationLookup{UserID: "u1"},
			attempts: ptr(6),
			wantErr:  ErrTooManyAttempts,
		},
		{
			name:    "no pending code",
			lookup:  VerificationLookup{UserID: "u1"},
			wantErr: ErrInvalidCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewRepository(db)

			value := tt.lookup.UserID
			if value == "" {
				value = tt.lookup.Email
			}

			rows := sqlmock.NewRows([]string{"id"})
			if tt.matched {
				rows.AddRow("u1")
			}
			mock.ExpectQuery(regexp.QuoteMeta(consumeQuery)).
				WithArgs(value, "123456", 5).
				WillReturnRows(rows)

			if !tt.matched {
				counted := sqlmock.NewRows([]string{"verification_attempts"})
				if tt.attempts != nil {
					counted.AddRow(*tt.attempts)
				}
				mock.ExpectQuery(regexp.QuoteMeta(missQuery)).
					WithArgs(value).
					WillReturnRows(counted)
			}

			id, err := repo.ConsumeVerificationCode(context.Background(), tt.lookup, "123456", 5)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u1", id)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func ptr[T any](v T) *T { return &v }
