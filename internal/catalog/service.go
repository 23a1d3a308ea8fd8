package catalog

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for the permission catalog.
type RepositoryPort interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsureCategory(ctx context.Context, c Category) (Category, error)
	EnsurePermission(ctx context.Context, p Permission) (Permission, error)
	KnownPermissionIDs(ctx context.Context, ids []string) ([]string, error)
}

// Service handles permission catalog business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListGrouped returns all permissions grouped under their category, ordered by
// (display order, category name) with permissions sorted by name.
func (s *Service) ListGrouped(ctx context.Context) ([]CategoryPermissions, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]Permission, len(categories))
	for _, p := range perms {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	grouped := make([]CategoryPermissions, 0, len(categories))
	for _, c := range categories {
		grouped = append(grouped, CategoryPermissions{
			Category:    c,
			Permissions: byCategory[c.ID],
		})
	}
	return grouped, nil
}

// EnsureCategory validates and upserts a category.
func (s *Service) EnsureCategory(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Category{}, errors.New("catalog: category name required")
	}
	return s.repo.EnsureCategory(ctx, c)
}

// EnsurePermission validates and upserts a permission.
func (s *Service) EnsurePermission(ctx context.Context, p Permission) (Permission, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Code = strings.TrimSpace(p.Code)
	if p.Name == "" {
		return Permission{}, errors.New("catalog: permission name required")
	}
	if p.Code == "" {
		return Permission{}, errors.New("catalog: permission code required")
	}
	if p.CategoryID == "" {
		return Permission{}, errors.New("catalog: permission category required")
	}
	return s.repo.EnsurePermission(ctx, p)
}

// FilterKnownPermissionIDs drops ids that do not exist in the catalog.
// Stale ids arrive from clients holding an outdated permission list.
func (s *Service) FilterKnownPermissionIDs(ctx context.Context, ids []string) ([]string, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return s.repo.KnownPermissionIDs(ctx, unique)
}
