package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/return-lorry/lorry-admin/internal/audit"
)

// CatalogPort is the slice of the permission catalog the service relies on.
type CatalogPort interface {
	FilterKnownPermissionIDs(ctx context.Context, ids []string) ([]string, error)
}

// Service orchestrates RBAC operations. Every mutation writes its rows and its
// audit entry in one transaction and invalidates the permission cache on
// success.
type Service struct {
	repo    Repository
	catalog CatalogPort
	cache   *Cache
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService constructs a Service. The cache may be nil; resolution then always
// hits the database.
func NewService(repo Repository, catalog CatalogPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		cache:   cache,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// ListRoles returns all roles with permission counts.
func (s *Service) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	return s.repo.ListRoles(ctx)
}

// GetRoleDetail fetches a role together with its permissions and holders.
func (s *Service) GetRoleDetail(ctx context.Context, roleID string) (RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return RoleDetail{}, err
	}
	perms, err := s.repo.RolePermissions(ctx, roleID)
	if err != nil {
		return RoleDetail{}, err
	}
	assignees, err := s.repo.RoleAssignees(ctx, roleID)
	if err != nil {
		return RoleDetail{}, err
	}
	sortGranted(perms)
	return RoleDetail{Role: role, Permissions: perms, Assignees: assignees}, nil
}

// CreateRole creates a role with an initial permission set. Permission ids not
// present in the catalog are dropped rather than rejected, so role creation
// survives clients holding a stale permission list. The role, its permission
// rows and the ROLE_CREATE audit entry commit as one unit.
func (s *Service) CreateRole(ctx context.Context, in CreateRoleInput) (Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Role{}, ErrNameRequired
	}

	permissionIDs, err := s.catalog.FilterKnownPermissionIDs(ctx, in.PermissionIDs)
	if err != nil {
		return Role{}, fmt.Errorf("rbac: filter permissions: %w", err)
	}

	now := s.now()
	role := Role{
		ID:           s.newID(),
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		IsSystemRole: in.IsSystemRole,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedByID:  in.ActorID,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertRole(ctx, role); err != nil {
			return err
		}
		for _, permissionID := range permissionIDs {
			if err := tx.InsertRolePermission(ctx, s.newID(), role.ID, permissionID); err != nil {
				return err
			}
		}
		return tx.InsertAuditEntry(ctx, audit.Entry{
			ID:         s.newID(),
			ActionType: audit.ActionRoleCreate,
			Details:    "New role created: " + name,
			At:         now,
			ActorID:    in.ActorID,
			RoleID:     role.ID,
		})
	})
	if err != nil {
		return Role{}, err
	}

	s.invalidate(ctx)
	return role, nil
}

// UpdateRoleDetails updates a role's name and description. System role names
// are locked; only the description may change.
func (s *Service) UpdateRoleDetails(ctx context.Context, roleID, name, description, actorID string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystemRole && role.Name != name {
		return ErrSystemRoleRename
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		affected, err := tx.UpdateRoleDetails(ctx, roleID, name, strings.TrimSpace(description))
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return tx.InsertAuditEntry(ctx, audit.Entry{
			ID:         s.newID(),
			ActionType: audit.ActionRoleUpdate,
			Details:    "Role details updated: " + name,
			At:         s.now(),
			ActorID:    actorID,
			RoleID:     roleID,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// UpdateRolePermissions replaces a role's permission set by applying the
// symmetric difference against the desired set. The audit entry records the
// add/remove counts, not the full lists.
func (s *Service) UpdateRolePermissions(ctx context.Context, roleID string, desiredIDs []string, actorID string) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	desired, err := s.catalog.FilterKnownPermissionIDs(ctx, desiredIDs)
	if err != nil {
		return fmt.Errorf("rbac: filter permissions: %w", err)
	}
	current, err := s.repo.RolePermissionIDs(ctx, roleID)
	if err != nil {
		return err
	}

	toAdd, toRemove := diffPermissionSets(current, desired)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, permissionID := range toAdd {
			if err := tx.InsertRolePermission(ctx, s.newID(), roleID, permissionID); err != nil {
				return err
			}
		}
		for _, permissionID := range toRemove {
			if _, err := tx.DeleteRolePermission(ctx, roleID, permissionID); err != nil {
				return err
			}
		}
		return tx.InsertAuditEntry(ctx, audit.Entry{
			ID:         s.newID(),
			ActionType: audit.ActionRoleUpdate,
			Details:    fmt.Sprintf("Role updated: %d added, %d removed", len(toAdd), len(toRemove)),
			At:         s.now(),
			ActorID:    actorID,
			RoleID:     roleID,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// DeleteRole removes a non-system role. The audit entry captures the role name
// before the row and its joins disappear. System roles are rejected, never
// silently skipped.
func (s *Service) DeleteRole(ctx context.Context, roleID, actorID string) error {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return ErrSystemRoleDelete
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertAuditEntry(ctx, audit.Entry{
			ID:         s.newID(),
			ActionType: audit.ActionRoleDelete,
			Details:    "Role deleted: " + role.Name,
			At:         s.now(),
			ActorID:    actorID,
			RoleID:     roleID,
		}); err != nil {
			return err
		}
		affected, err := tx.DeleteRole(ctx, roleID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// AssignRole grants a role to an admin. Assignment is idempotent: when the
// admin already holds the role the call succeeds without a new join row or a
// new audit entry, so double submits from the UI stay silent.
func (s *Service) AssignRole(ctx context.Context, adminID, roleID, actorID string) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	exists, err := s.repo.AssignmentExists(ctx, adminID, roleID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertAssignment(ctx, Assignment{
			ID:           s.newID(),
			AdminID:      adminID,
			RoleID:       roleID,
			AssignedAt:   s.now(),
			AssignedByID: actorID,
		}); err != nil {
			return err
		}
		return tx.InsertAuditEntry(ctx, audit.Entry{
			ID:         s.newID(),
			ActionType: audit.ActionGrant,
			Details:    "Role assigned to admin ID: " + adminID,
			At:         s.now(),
			ActorID:    actorID,
			RoleID:     roleID,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// RemoveRole revokes a role from an admin. Removing an assignment that does
// not exist is an explicit ErrNotFound: unlike a duplicate assign, it means the
// caller's view of the admin's roles is stale in a way worth surfacing.
func (s *Service) RemoveRole(ctx context.Context, adminID, roleID, actorID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		affected, err := tx.DeleteAssignment(ctx, adminID, roleID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return tx.InsertAuditEntry(ctx, audit.Entry{
			ID:         s.newID(),
			ActionType: audit.ActionRevoke,
			Details:    "Role removed from admin ID: " + adminID,
			At:         s.now(),
			ActorID:    actorID,
			RoleID:     roleID,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// EffectivePermissions resolves the union of permissions across every role the
// admin holds, deduplicated by permission identity and ordered by category
// display order with names as tiebreak. Unknown or role-less admins resolve to
// an empty set; internal failures degrade the same way so permission checks
// fail closed instead of failing the request.
func (s *Service) EffectivePermissions(ctx context.Context, adminID string) []GrantedPermission {
	if strings.TrimSpace(adminID) == "" {
		return nil
	}
	granted, err := s.repo.GrantedPermissions(ctx, adminID)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("rbac resolve permissions", slog.String("admin_id", adminID), slog.Any("error", err))
		}
		return nil
	}
	seen := make(map[string]struct{}, len(granted))
	unique := granted[:0]
	for _, p := range granted {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}
	sortGranted(unique)
	return unique
}

// PermissionCodes returns the admin's effective permission codes, served from
// the cache when available.
func (s *Service) PermissionCodes(ctx context.Context, adminID string) []string {
	codes, err := s.cache.Codes(ctx, adminID, func(ctx context.Context) ([]string, error) {
		perms := s.EffectivePermissions(ctx, adminID)
		codes := make([]string, 0, len(perms))
		for _, p := range perms {
			codes = append(codes, p.Code)
		}
		return codes, nil
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("rbac permission codes", slog.String("admin_id", adminID), slog.Any("error", err))
		}
		return nil
	}
	return codes
}

// HasPermission reports whether the admin's effective set contains the code.
// It is the single predicate every route and UI guard composes with.
func (s *Service) HasPermission(ctx context.Context, adminID, code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, granted := range s.PermissionCodes(ctx, adminID) {
		if granted == code {
			return true
		}
	}
	return false
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
		s.logger.Warn("rbac cache invalidate", slog.Any("error", err))
	}
}

func diffPermissionSets(current, desired []string) (toAdd, toRemove []string) {
	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desiredSet := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
		if _, ok := currentSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if _, ok := desiredSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

func sortGranted(perms []GrantedPermission) {
	collator := collate.New(language.English)
	sort.SliceStable(perms, func(i, j int) bool {
		if perms[i].CategoryOrder != perms[j].CategoryOrder {
			return perms[i].CategoryOrder < perms[j].CategoryOrder
		}
		return collator.CompareString(perms[i].Name, perms[j].Name) < 0
	})
}
