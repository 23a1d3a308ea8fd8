package rbac

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by RBAC mutations.
var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrNameRequired indicates a missing role name.
	ErrNameRequired = errors.New("rbac: role name required")
	// ErrNameTaken indicates a role name collision.
	ErrNameTaken = errors.New("rbac: role name already in use")
	// ErrSystemRoleDelete indicates an attempt to delete a system role.
	ErrSystemRoleDelete = errors.New("rbac: system roles cannot be deleted")
	// ErrSystemRoleRename indicates an attempt to rename a system role.
	ErrSystemRoleRename = errors.New("rbac: system role names cannot be changed")
)

// Role represents a named, reusable bundle of permissions.
type Role struct {
	ID           string
	Name         string
	Description  string
	IsSystemRole bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedByID  string
}

// RoleSummary is a role with its permission count, for list views.
type RoleSummary struct {
	Role
	PermissionCount int
}

// RoleDetail is a role with its granted permissions and current holders.
type RoleDetail struct {
	Role
	Permissions []GrantedPermission
	Assignees   []Assignee
}

// Assignment links an admin account to a role.
type Assignment struct {
	ID           string
	AdminID      string
	RoleID       string
	AssignedAt   time.Time
	AssignedByID string
}

// GrantedPermission is a permission reachable through a role, carrying the
// category ordering used for stable presentation.
type GrantedPermission struct {
	ID            string
	Name          string
	Code          string
	Description   string
	Category      string
	CategoryOrder int
}

// Assignee describes an admin account holding a role.
type Assignee struct {
	AdminID    string
	Email      string
	Name       string
	AssignedAt time.Time
}

// CreateRoleInput carries the parameters for role creation.
type CreateRoleInput struct {
	Name          string
	Description   string
	ActorID       string
	IsSystemRole  bool
	PermissionIDs []string
}
