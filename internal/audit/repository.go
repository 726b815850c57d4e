// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, params ListParams) ([]Entry, int, error)
}

type ListParams struct {
	core.PageParams
	Action     Action
	ActorRoles []string
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, action, details)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &entry.CreatedAt, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		[]byte(entry.Details),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Entry, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if len(params.ActorRoles) > 0 {
		placeholders := make([]string, 0, len(params.ActorRoles))
		for _, role := range params.ActorRoles {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argIdx))
			args = append(args, role)
			argIdx++
		}
		conditions = append(conditions,
			"u.role IN ("+strings.Join(placeholders, ", ")+")")
	}

	if params.Action != "" {
		conditions = append(conditions, fmt.Sprintf("l.action = $%d", argIdx))
		args = append(args, params.Action)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM audit_logs l
		LEFT JOIN users u ON u.id = l.actor_id
		WHERE %s`, whereClause)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT l.id, l.actor_id, l.action, l.details, l.created_at,
		       u.name AS actor_name, u.email AS actor_email, u.role AS actor_role
		FROM audit_logs l
		LEFT JOIN users u ON u.id = l.actor_id
		WHERE %s
		ORDER BY l.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	return entries, total, nil
}
