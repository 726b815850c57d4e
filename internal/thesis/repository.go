// AngelaMos | 2026
// repository.go

package thesis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Thesis) error
	GetByID(ctx context.Context, id string) (*Thesis, error)
	List(ctx context.Context, params ListParams) ([]Thesis, int, error)
	Approve(ctx context.Context, id string) (*Thesis, error)
	Reject(ctx context.Context, id, reason string) (*Thesis, error)
	Update(ctx context.Context, t *Thesis) error
	Trash(ctx context.Context, id string, reason TrashReason) (*Thesis, error)
	Restore(ctx context.Context, id string) (*Thesis, error)
	Delete(ctx context.Context, id string) error
	DeleteRejected(ctx context.Context) ([]Thesis, error)
	Vote(ctx context.Context, thesisID, userID string, value int) (Tally, error)
	Count(ctx context.Context) (int, error)

	ExpiredRejected(ctx context.Context, cutoff time.Time) ([]Thesis, error)
	TrashRejected(ctx context.Context, id string) error
	ExpiredTrash(ctx context.Context, cutoff time.Time) ([]Thesis, error)
}

const thesisColumns = `
	id, title, description, author, course, year, department,
	uploaded_by, file_url, file_id, status, rejection_reason,
	rejected_at, approved_at, is_trashed, trashed_at, trash_reason,
	upvotes, downvotes, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Thesis) error {
	query := `
		INSERT INTO theses (
			id, title, description, author, course, year, department,
			uploaded_by, file_url, file_id, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, t, query,
		t.ID,
		t.Title,
		t.Description,
		t.Author,
		t.Course,
		t.Year,
		t.Department,
		t.UploadedBy,
		t.FileURL,
		t.FileID,
		t.Status,
	)
	if err != nil {
		return fmt.Errorf("create thesis: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Thesis, error) {
	query := `SELECT ` + thesisColumns + ` FROM theses WHERE id = $1`

	var t Thesis
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get thesis: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get thesis: %w", err)
	}

	return &t, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Thesis, int, error) {
	params.Normalize()

	conditions := []string{"is_trashed = $1"}
	args := []any{params.Trashed}
	argIdx := 2

	add := func(cond string, arg any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIdx))
		args = append(args, arg)
		argIdx++
	}

	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.Department != "" {
		add("department = $%d", params.Department)
	}
	if params.Course != "" {
		add("course = $%d", params.Course)
	}
	if params.Year != 0 {
		add("year = $%d", params.Year)
	}
	if params.UploadedBy != "" {
		add("uploaded_by = $%d", params.UploadedBy)
	}
	if params.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR author ILIKE $%d OR description ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Query)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM theses WHERE ` + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count theses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM theses
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		thesisColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var theses []Thesis
	if err := r.db.SelectContext(ctx, &theses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list theses: %w", err)
	}

	return theses, total, nil
}

// Approve only moves a pending thesis. Zero rows means the thesis is gone or
// no longer pending; the caller tells the two apart.
func (r *repository) Approve(ctx context.Context, id string) (*Thesis, error) {
	query := `
		UPDATE theses
		SET status = 'approved', approved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + thesisColumns

	return r.returning(ctx, "approve thesis", query, id)
}

// Reject sets the rejection and the trash flag in one statement so a
// rejected thesis is never visible untrashed.
func (r *repository) Reject(ctx context.Context, id, reason string) (*Thesis, error) {
	query := `
		UPDATE theses
		SET status = 'rejected',
		    rejection_reason = $2,
		    rejected_at = NOW(),
		    is_trashed = TRUE,
		    trashed_at = NOW(),
		    trash_reason = 'rejected',
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + thesisColumns

	return r.returning(ctx, "reject thesis", query, id, reason)
}

// Update writes the editable metadata. A status edit stamps the matching
// decision time so the janitor window applies to it.
func (r *repository) Update(ctx context.Context, t *Thesis) error {
	query := `
		UPDATE theses
		SET title = $2, description = $3, author = $4, course = $5,
		    year = $6, department = $7, status = $8,
		    rejected_at = CASE WHEN $8 = 'rejected' AND status <> 'rejected'
		                       THEN NOW() ELSE rejected_at END,
		    approved_at = CASE WHEN $8 = 'approved' AND status <> 'approved'
		                       THEN NOW() ELSE approved_at END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING rejected_at, approved_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Author,
		t.Course,
		t.Year,
		t.Department,
		t.Status,
	).Scan(&t.RejectedAt, &t.ApprovedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update thesis: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update thesis: %w", err)
	}

	return nil
}

func (r *repository) Trash(ctx context.Context, id string, reason TrashReason) (*Thesis, error) {
	query := `
		UPDATE theses
		SET is_trashed = TRUE, trashed_at = NOW(), trash_reason = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_trashed
		RETURNING ` + thesisColumns

	return r.returning(ctx, "trash thesis", query, id, reason)
}

func (r *repository) Restore(ctx context.Context, id string) (*Thesis, error) {
	query := `
		UPDATE theses
		SET is_trashed = FALSE, trashed_at = NULL, trash_reason = NULL, updated_at = NOW()
		WHERE id = $1 AND is_trashed
		RETURNING ` + thesisColumns

	return r.returning(ctx, "restore thesis", query, id)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM theses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete thesis: %w", err)
	}

	return core.RequireAffected(result, "delete thesis")
}

// DeleteRejected removes every rejected thesis and returns what was removed
// so the stored files can be cleaned up.
func (r *repository) DeleteRejected(ctx context.Context) ([]Thesis, error) {
	query := `DELETE FROM theses WHERE status = 'rejected' RETURNING ` + thesisColumns

	var removed []Thesis
	if err := r.db.SelectContext(ctx, &removed, query); err != nil {
		return nil, fmt.Errorf("delete rejected theses: %w", err)
	}

	return removed, nil
}

// Vote upserts or clears one voter's vote and recomputes both tallies from
// the vote rows inside the same transaction. Only public theses take votes.
func (r *repository) Vote(ctx context.Context, thesisID, userID string, value int) (Tally, error) {
	var tally Tally

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id, `
			SELECT id FROM theses
			WHERE id = $1 AND status = 'approved' AND NOT is_trashed
			FOR UPDATE`, thesisID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("vote: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("vote: lock thesis: %w", err)
		}

		if value == 0 {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM thesis_votes WHERE thesis_id = $1 AND user_id = $2`,
				thesisID, userID)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO thesis_votes (thesis_id, user_id, value)
				VALUES ($1, $2, $3)
				ON CONFLICT (thesis_id, user_id) DO UPDATE SET value = EXCLUDED.value`,
				thesisID, userID, value)
		}
		if err != nil {
			return fmt.Errorf("vote: write vote: %w", err)
		}

		err = tx.GetContext(ctx, &tally, `
			UPDATE theses
			SET upvotes = (SELECT COUNT(*) FROM thesis_votes WHERE thesis_id = $1 AND value = 1),
			    downvotes = (SELECT COUNT(*) FROM thesis_votes WHERE thesis_id = $1 AND value = -1)
			WHERE id = $1
			RETURNING upvotes, downvotes`, thesisID)
		if err != nil {
			return fmt.Errorf("vote: recompute tally: %w", err)
		}

		return nil
	})

	return tally, err
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM theses WHERE NOT is_trashed`); err != nil {
		return 0, fmt.Errorf("count theses: %w", err)
	}
	return n, nil
}

func (r *repository) ExpiredRejected(ctx context.Context, cutoff time.Time) ([]Thesis, error) {
	query := `
		SELECT ` + thesisColumns + `
		FROM theses
		WHERE status = 'rejected' AND NOT is_trashed AND rejected_at < $1`

	var theses []Thesis
	if err := r.db.SelectContext(ctx, &theses, query, cutoff); err != nil {
		return nil, fmt.Errorf("list expired rejected: %w", err)
	}

	return theses, nil
}

// TrashRejected re-checks the rejected state so an item approved since the
// sweep listed it is left alone.
func (r *repository) TrashRejected(ctx context.Context, id string) error {
	query := `
		UPDATE theses
		SET is_trashed = TRUE, trashed_at = NOW(), trash_reason = 'rejected', updated_at = NOW()
		WHERE id = $1 AND status = 'rejected' AND NOT is_trashed`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("trash rejected thesis: %w", err)
	}

	return core.RequireAffected(result, "trash rejected thesis")
}

func (r *repository) ExpiredTrash(ctx context.Context, cutoff time.Time) ([]Thesis, error) {
	query := `
		SELECT ` + thesisColumns + `
		FROM theses
		WHERE is_trashed AND trashed_at < $1`

	var theses []Thesis
	if err := r.db.SelectContext(ctx, &theses, query, cutoff); err != nil {
		return nil, fmt.Errorf("list expired trash: %w", err)
	}

	return theses, nil
}

func (r *repository) returning(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Thesis, error) {
	var t Thesis
	err := r.db.GetContext(ctx, &t, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
