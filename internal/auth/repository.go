// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

// Repository holds the one-time credentials stored on the account row:
// the email verification code and the password reset token hash.
type Repository interface {
	SetVerificationCode(ctx context.Context, userID, code string, expiresAt time.Time) error
	ConsumeVerificationCode(
		ctx context.Context,
		lookup VerificationLookup,
		code string,
		maxAttempts int,
	) (string, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (string, error)
	TouchLastLogin(ctx context.Context, userID string) error
}

// VerificationLookup names the account a code is checked against. Exactly
// one field is set.
type VerificationLookup struct {
	UserID string
	Email  string
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) SetVerificationCode(
	ctx context.Context,
	userID, code string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET verification_code = $2,
		    verification_expires_at = $3,
		    verification_attempts = 0,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, code, expiresAt)
	if err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}

	return core.RequireAffected(result, "set verification code")
}

// ConsumeVerificationCode marks the account verified when the code matches,
// has not expired and fewer than maxAttempts wrong guesses were made against
// it. A miss bumps the counter; once it passes maxAttempts the code is dead
// even if later guessed, and ErrTooManyAttempts is returned. It returns the
// verified account id.
func (r *repository) ConsumeVerificationCode(
	ctx context.Context,
	lookup VerificationLookup,
	code string,
	maxAttempts int,
) (string, error) {
	column, value := "id", lookup.UserID
	if value == "" {
		column, value = "email", lookup.Email
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET is_verified = TRUE,
		    verification_code = NULL,
		    verification_expires_at = NULL,
		    verification_attempts = 0,
		    updated_at = NOW()
		WHERE %s = $1
		  AND verification_code = $2
		  AND verification_expires_at > NOW()
		  AND verification_attempts < $3
		RETURNING id`, column)

	var id string
	err := r.db.GetContext(ctx, &id, query, value, code, maxAttempts)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("verify email: %w", err)
	}

	miss := fmt.Sprintf(`
		UPDATE users
		SET verification_attempts = verification_attempts + 1
		WHERE %s = $1 AND verification_code IS NOT NULL
		RETURNING verification_attempts`, column)

	var attempts int
	err = r.db.GetContext(ctx, &attempts, miss, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("verify email: %w", ErrInvalidCode)
	case err != nil:
		return "", fmt.Errorf("verify email: count attempt: %w", err)
	case attempts > maxAttempts:
		return "", fmt.Errorf("verify email: %w", ErrTooManyAttempts)
	default:
		return "", fmt.Errorf("verify email: %w", ErrInvalidCode)
	}
}

func (r *repository) SetResetToken(
	ctx context.Context,
	userID, tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET reset_token_hash = $2, reset_expires_at = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	return core.RequireAffected(result, "set reset token")
}

// ConsumeResetToken swaps the password and burns the token atomically.
func (r *repository) ConsumeResetToken(
	ctx context.Context,
	tokenHash, passwordHash string,
) (string, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
		    reset_token_hash = NULL,
		    reset_expires_at = NULL,
		    updated_at = NOW()
		WHERE reset_token_hash = $1 AND reset_expires_at > NOW()
		RETURNING id`

	var id string
	err := r.db.GetContext(ctx, &id, query, tokenHash, passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("reset password: %w", ErrInvalidResetToken)
	}
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}

	return id, nil
}

func (r *repository) TouchLastLogin(ctx context.Context, userID string) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}

	return core.RequireAffected(result, "touch last login")
}
