package admins

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/return-lorry/lorry-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAdmins returns all admin accounts with the roles they hold.
func (r *Repository) ListAdmins(ctx context.Context) ([]AdminWithRoles, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.email, a.name, a.is_active, a.created_at, a.updated_at,
		       COALESCE(ARRAY_AGG(ro.name ORDER BY ro.name) FILTER (WHERE ro.name IS NOT NULL), '{}')
		FROM admins a
		LEFT JOIN user_roles ur ON ur.admin_id = a.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		GROUP BY a.id
		ORDER BY a.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AdminWithRoles
	for rows.Next() {
		var a AdminWithRoles
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.IsActive, &a.CreatedAt, &a.UpdatedAt, &a.Roles); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAdmin fetches a single admin account.
func (r *Repository) GetAdmin(ctx context.Context, id string) (Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, email, name, is_active, created_at, updated_at FROM admins WHERE id = $1`, id)
	var a Admin
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, shared.ErrNotFound
		}
		return Admin{}, err
	}
	return a, nil
}
