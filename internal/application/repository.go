// AngelaMos | 2026
// repository.go

package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

// onePendingIndex is the partial unique index allowing a single pending
// application per account.
const onePendingIndex = "idx_applications_one_pending"

type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context, params ListParams) ([]Application, int, error)
	Decide(
		ctx context.Context,
		id string,
		status Status,
		reason, decidedBy string,
	) (*Application, error)
	CountPending(ctx context.Context) (int, error)
}

const applicationColumns = `
	id, user_id, first_name, middle_name, last_name, section, course,
	school_year, status, reason, submitted_at, decided_at, decided_by`

type repository struct {
	db core.DBTX
}

// NewRepository accepts a *sqlx.DB or a *sqlx.Tx.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO applications (
			id, user_id, first_name, middle_name, last_name,
			section, course, school_year, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		RETURNING status, submitted_at`

	err := r.db.QueryRowxContext(ctx, query,
		app.ID,
		app.UserID,
		app.FirstName,
		app.MiddleName,
		app.LastName,
		app.Section,
		app.Course,
		app.SchoolYear,
	).Scan(&app.Status, &app.SubmittedAt)
	if err != nil {
		if core.UniqueConstraint(err) == onePendingIndex {
			return fmt.Errorf("create application: %w", ErrDuplicatePending)
		}
		return fmt.Errorf("create application: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	var app Application
	err := r.db.GetContext(ctx, &app, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get application: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	return &app, nil
}

func (r *repository) HasPending(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM applications WHERE user_id = $1 AND status = 'pending')`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("check pending application: %w", err)
	}

	return exists, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Application, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}
	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, params.UserID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM applications WHERE ` + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		WHERE %s
		ORDER BY submitted_at DESC
		LIMIT $%d OFFSET $%d`,
		applicationColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var apps []Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	return apps, total, nil
}

// Decide moves a pending application to its final status. Zero rows means
// it is missing or already decided.
func (r *repository) Decide(
	ctx context.Context,
	id string,
	status Status,
	reason, decidedBy string,
) (*Application, error) {
	query := `
		UPDATE applications
		SET status = $2, reason = $3, decided_at = NOW(), decided_by = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + applicationColumns

	var app Application
	err := r.db.GetContext(ctx, &app, query, id, status, reason, decidedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide application: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("decide application: %w", err)
	}

	return &app, nil
}

func (r *repository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM applications WHERE status = 'pending'`); err != nil {
		return 0, fmt.Errorf("count pending applications: %w", err)
	}
	return n, nil
}
