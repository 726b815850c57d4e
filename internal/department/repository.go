// AngelaMos | 2026
// repository.go

package department

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

type Repository interface {
	Create(ctx context.Context, dept *Department) error
	GetByID(ctx context.Context, id string) (*Department, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, dept *Department) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Department, error)
	Count(ctx context.Context) (int, error)
}

const departmentColumns = `id, name, code, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, dept *Department) error {
	query := `
		INSERT INTO departments (id, name, code)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, dept, query, dept.ID, dept.Name, dept.Code)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create department: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create department: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	var dept Department
	err := r.db.GetContext(ctx, &dept, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get department: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}

	return &dept, nil
}

func (r *repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM departments WHERE code = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("department exists: %w", err)
	}

	return exists, nil
}

func (r *repository) Update(ctx context.Context, dept *Department) error {
	query := `
		UPDATE departments
		SET name = $2, code = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &dept.UpdatedAt, query, dept.ID, dept.Name, dept.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update department: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update department: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update department: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}

	return core.RequireAffected(result, "delete department")
}

func (r *repository) List(ctx context.Context) ([]Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY code`

	var depts []Department
	if err := r.db.SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}

	return depts, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM departments`); err != nil {
		return 0, fmt.Errorf("count departments: %w", err)
	}
	return n, nil
}
