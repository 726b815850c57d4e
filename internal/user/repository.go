// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetBan(ctx context.Context, id, reason string) (*User, error)
	ClearBan(ctx context.Context, id string) (*User, error)
	PromoteToStudent(ctx context.Context, id string, profile StudentProfile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

const userColumns = `
	id, email, password_hash, name, role, is_verified,
	is_banned, ban_reason, banned_at, last_login_at,
	first_name, middle_name, last_name, section, course, school_year,
	created_at, updated_at`

type repository struct {
	db core.DBTX
}

// NewRepository accepts a *sqlx.DB or a *sqlx.Tx.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

// Update writes name, role and the student profile. The superadmin role is
// never written away from at the SQL level either.
func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, role = $3,
		    first_name = $4, middle_name = $5, last_name = $6,
		    section = $7, course = $8, school_year = $9,
		    updated_at = NOW()
		WHERE id = $1 AND (role <> 'superadmin' OR $3 = 'superadmin')
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Role,
		user.FirstName,
		user.MiddleName,
		user.LastName,
		user.Section,
		user.Course,
		user.SchoolYear,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return core.RequireAffected(result, "update password")
}

func (r *repository) SetBan(
	ctx context.Context,
	id, reason string,
) (*User, error) {
	query := `
		UPDATE users
		SET is_banned = TRUE, ban_reason = $2, banned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND role IN ('guest', 'student')
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ban user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ban user: %w", err)
	}

	return &user, nil
}

func (r *repository) ClearBan(ctx context.Context, id string) (*User, error) {
	query := `
		UPDATE users
		SET is_banned = FALSE, ban_reason = '', banned_at = NULL, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unban user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unban user: %w", err)
	}

	return &user, nil
}

// PromoteToStudent copies the profile and moves a guest to student. Staff
// keep their role so approving a staff member's application never demotes
// them.
func (r *repository) PromoteToStudent(
	ctx context.Context,
	id string,
	profile StudentProfile,
) error {
	query := `
		UPDATE users
		SET role = CASE WHEN role = 'guest' THEN 'student' ELSE role END,
		    first_name = $2, middle_name = $3, last_name = $4,
		    section = $5, course = $6, school_year = $7,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		id,
		profile.FirstName,
		profile.MiddleName,
		profile.LastName,
		profile.Section,
		profile.Course,
		profile.SchoolYear,
	)
	if err != nil {
		return fmt.Errorf("promote user: %w", err)
	}

	return core.RequireAffected(result, "promote user")
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1 AND role <> 'superadmin'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return core.RequireAffected(result, "delete user")
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
