package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/return-lorry/lorry-admin/internal/audit"
	"github.com/return-lorry/lorry-admin/internal/platform/db"
)

const uniqueViolation = "23505"

// Repository defines data access for roles, joins and the permission graph.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRole(ctx context.Context, id string) (Role, error)
	ListRoles(ctx context.Context) ([]RoleSummary, error)
	RolePermissionIDs(ctx context.Context, roleID string) ([]string, error)
	RolePermissions(ctx context.Context, roleID string) ([]GrantedPermission, error)
	RoleAssignees(ctx context.Context, roleID string) ([]Assignee, error)
	AssignmentExists(ctx context.Context, adminID, roleID string) (bool, error)
	GrantedPermissions(ctx context.Context, adminID string) ([]GrantedPermission, error)
	AssignedAdminIDs(ctx context.Context, limit int) ([]string, error)
}

// TxRepository exposes the writes available inside one mutation transaction.
// Each mutating service operation commits its rows and audit entry atomically.
type TxRepository interface {
	InsertRole(ctx context.Context, role Role) error
	UpdateRoleDetails(ctx context.Context, id, name, description string) (int64, error)
	DeleteRole(ctx context.Context, id string) (int64, error)
	InsertRolePermission(ctx context.Context, id, roleID, permissionID string) error
	DeleteRolePermission(ctx context.Context, roleID, permissionID string) (int64, error)
	InsertAssignment(ctx context.Context, a Assignment) error
	DeleteAssignment(ctx context.Context, adminID, roleID string) (int64, error)
	InsertAuditEntry(ctx context.Context, e audit.Entry) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn inside one transaction exposing the write surface.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

// GetRole fetches a role by ID.
func (r *PGRepository) GetRole(ctx context.Context, id string) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), is_system_role, created_at, updated_at, COALESCE(created_by_id, '')
		FROM roles WHERE id = $1`, id)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt, &role.CreatedByID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns all roles with their permission counts, ordered by name.
func (r *PGRepository) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, COALESCE(r.description, ''), r.is_system_role, r.created_at, r.updated_at, COALESCE(r.created_by_id, ''),
		       COUNT(rp.id)
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		GROUP BY r.id
		ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []RoleSummary
	for rows.Next() {
		var s RoleSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.IsSystemRole, &s.CreatedAt, &s.UpdatedAt, &s.CreatedByID, &s.PermissionCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// RolePermissionIDs returns the permission ids currently granted to a role.
func (r *PGRepository) RolePermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission_id FROM role_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// RolePermissions returns the permissions granted to a role with category info.
func (r *PGRepository) RolePermissions(ctx context.Context, roleID string) ([]GrantedPermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.code, COALESCE(p.description, ''), c.name, c.display_order
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		JOIN permission_categories c ON c.id = p.category_id
		WHERE rp.role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrantedPermissions(rows)
}

// RoleAssignees returns the admin accounts currently holding a role.
func (r *PGRepository) RoleAssignees(ctx context.Context, roleID string) ([]Assignee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.email, a.name, ur.assigned_at
		FROM user_roles ur
		JOIN admins a ON a.id = ur.admin_id
		WHERE ur.role_id = $1
		ORDER BY a.email`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignees []Assignee
	for rows.Next() {
		var a Assignee
		if err := rows.Scan(&a.AdminID, &a.Email, &a.Name, &a.AssignedAt); err != nil {
			return nil, err
		}
		assignees = append(assignees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignees, nil
}

// AssignmentExists reports whether the admin already holds the role.
func (r *PGRepository) AssignmentExists(ctx context.Context, adminID, roleID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_roles WHERE admin_id = $1 AND role_id = $2)`, adminID, roleID).Scan(&exists)
	return exists, err
}

// GrantedPermissions performs the two-hop join from admin to roles to
// permissions. Duplicates across roles are returned as-is; the resolver
// deduplicates by permission identity.
func (r *PGRepository) GrantedPermissions(ctx context.Context, adminID string) ([]GrantedPermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.code, COALESCE(p.description, ''), c.name, c.display_order
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		JOIN permission_categories c ON c.id = p.category_id
		WHERE ur.admin_id = $1`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrantedPermissions(rows)
}

// AssignedAdminIDs returns ids of admins holding at least one role, most
// recently assigned first. Used by the cache warmup job.
func (r *PGRepository) AssignedAdminIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT admin_id FROM user_roles
		GROUP BY admin_id
		ORDER BY MAX(assigned_at) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanGrantedPermissions(rows pgx.Rows) ([]GrantedPermission, error) {
	var perms []GrantedPermission
	for rows.Next() {
		var p GrantedPermission
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.Category, &p.CategoryOrder); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (t *pgTxRepository) InsertRole(ctx context.Context, role Role) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO roles (id, name, description, is_system_role, created_at, updated_at, created_by_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''))`,
		role.ID, role.Name, role.Description, role.IsSystemRole, role.CreatedAt, role.UpdatedAt, role.CreatedByID)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (t *pgTxRepository) UpdateRoleDetails(ctx context.Context, id, name, description string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE roles SET name = $2, description = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1`, id, name, description)
	if isUniqueViolation(err) {
		return 0, ErrNameTaken
	}
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgTxRepository) DeleteRole(ctx context.Context, id string) (int64, error) {
	// role_permissions and user_roles cascade at the schema level.
	tag, err := t.tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgTxRepository) InsertRolePermission(ctx context.Context, id, roleID, permissionID string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO role_permissions (id, role_id, permission_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (role_id, permission_id) DO NOTHING`,
		id, roleID, permissionID)
	return err
}

func (t *pgTxRepository) DeleteRolePermission(ctx context.Context, roleID, permissionID string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgTxRepository) InsertAssignment(ctx context.Context, a Assignment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_roles (id, admin_id, role_id, assigned_at, assigned_by_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		ON CONFLICT (admin_id, role_id) DO NOTHING`,
		a.ID, a.AdminID, a.RoleID, a.AssignedAt, a.AssignedByID)
	return err
}

func (t *pgTxRepository) DeleteAssignment(ctx context.Context, adminID, roleID string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM user_roles WHERE admin_id = $1 AND role_id = $2`, adminID, roleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgTxRepository) InsertAuditEntry(ctx context.Context, e audit.Entry) error {
	return audit.Insert(ctx, t.tx, e)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ Repository = (*PGRepository)(nil)
