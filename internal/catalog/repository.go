package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the permission catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCategories returns all categories ordered for presentation.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(description, ''), COALESCE(icon, ''), display_order FROM permission_categories ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.DisplayOrder); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, code, COALESCE(description, ''), category_id FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.CategoryID); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// EnsureCategory upserts a category keyed by its unique name.
func (r *Repository) EnsureCategory(ctx context.Context, c Category) (Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permission_categories (id, name, description, icon, display_order)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, icon = EXCLUDED.icon, display_order = EXCLUDED.display_order
		RETURNING id`,
		c.ID, c.Name, c.Description, c.Icon, c.DisplayOrder)
	if err := row.Scan(&c.ID); err != nil {
		return Category{}, err
	}
	return c, nil
}

// EnsurePermission upserts a permission keyed by its unique code.
func (r *Repository) EnsurePermission(ctx context.Context, p Permission) (Permission, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (id, name, code, description, category_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, category_id = EXCLUDED.category_id
		RETURNING id`,
		p.ID, p.Name, p.Code, p.Description, p.CategoryID)
	if err := row.Scan(&p.ID); err != nil {
		return Permission{}, err
	}
	return p, nil
}

// KnownPermissionIDs filters the supplied ids down to those present in the catalog.
func (r *Repository) KnownPermissionIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM permissions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var known []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known = append(known, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return known, nil
}
