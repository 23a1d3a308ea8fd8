package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed reads over permission_audit_logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TimelineWindow returns entries matching the filters, newest first.
func (r *Repository) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !filters.From.IsZero() {
		add("action_timestamp >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("action_timestamp <= $%d", filters.To)
	}
	if actor := strings.TrimSpace(filters.ActorID); actor != "" {
		add("admin_id = $%d", actor)
	}
	if role := strings.TrimSpace(filters.RoleID); role != "" {
		add("role_id = $%d", role)
	}
	if action := strings.TrimSpace(filters.Action); action != "" {
		add("action_type = $%d", strings.ToUpper(action))
	}

	query := `SELECT id, action_type, COALESCE(details, ''), action_timestamp, admin_id, COALESCE(role_id, ''), COALESCE(permission_id, '') FROM permission_audit_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY action_timestamp DESC, id DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &action, &e.Details, &e.At, &e.ActorID, &e.RoleID, &e.PermissionID); err != nil {
			return nil, err
		}
		e.ActionType = ActionType(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteOlderThan removes entries past the retention horizon and reports how
// many rows were swept.
func (r *Repository) DeleteOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permission_audit_logs WHERE action_timestamp < $1`, horizon)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
