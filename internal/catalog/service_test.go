package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryCatalogRepo struct {
	categories  []Category
	permissions []Permission
}

func (r *memoryCatalogRepo) ListCategories(ctx context.Context) ([]Category, error) {
	return r.categories, nil
}

func (r *memoryCatalogRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.permissions, nil
}

func (r *memoryCatalogRepo) EnsureCategory(ctx context.Context, c Category) (Category, error) {
	if c.ID == "" {
		c.ID = "cat-" + c.Name
	}
	r.categories = append(r.categories, c)
	return c, nil
}

func (r *memoryCatalogRepo) EnsurePermission(ctx context.Context, p Permission) (Permission, error) {
	if p.ID == "" {
		p.ID = "perm-" + p.Code
	}
	r.permissions = append(r.permissions, p)
	return p, nil
}

func (r *memoryCatalogRepo) KnownPermissionIDs(ctx context.Context, ids []string) ([]string, error) {
	known := make(map[string]struct{}, len(r.permissions))
	for _, p := range r.permissions {
		known[p.ID] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func seededRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		categories: []Category{
			{ID: "cat-dash", Name: "Dashboard", DisplayOrder: 1},
			{ID: "cat-rides", Name: "Rides", DisplayOrder: 2},
			{ID: "cat-settings", Name: "Settings", DisplayOrder: 7},
		},
		permissions: []Permission{
			{ID: "p1", Name: "View Dashboard", Code: "dashboard:view", CategoryID: "cat-dash"},
			{ID: "p2", Name: "View Rides", Code: "rides:view", CategoryID: "cat-rides"},
			{ID: "p3", Name: "Manage Access Control", Code: "settings:access_control", CategoryID: "cat-settings"},
			{ID: "p4", Name: "View Settings", Code: "settings:view", CategoryID: "cat-settings"},
		},
	}
}

func TestListGrouped(t *testing.T) {
	svc := NewService(seededRepo())

	grouped, err := svc.ListGrouped(context.Background())
	require.NoError(t, err)
	require.Len(t, grouped, 3)

	require.Equal(t, "Dashboard", grouped[0].Category.Name)
	require.Len(t, grouped[0].Permissions, 1)
	require.Equal(t, "dashboard:view", grouped[0].Permissions[0].Code)

	require.Equal(t, "Settings", grouped[2].Category.Name)
	require.Len(t, grouped[2].Permissions, 2)
}

func TestListGroupedEmptyCategoryKept(t *testing.T) {
	repo := seededRepo()
	repo.categories = append(repo.categories, Category{ID: "cat-empty", Name: "Reports", DisplayOrder: 9})
	svc := NewService(repo)

	grouped, err := svc.ListGrouped(context.Background())
	require.NoError(t, err)
	require.Len(t, grouped, 4)
	require.Empty(t, grouped[3].Permissions)
}

func TestEnsureCategoryValidation(t *testing.T) {
	svc := NewService(&memoryCatalogRepo{})

	_, err := svc.EnsureCategory(context.Background(), Category{Name: "  "})
	require.Error(t, err)

	c, err := svc.EnsureCategory(context.Background(), Category{Name: " Drivers "})
	require.NoError(t, err)
	require.Equal(t, "Drivers", c.Name)
}

func TestEnsurePermissionValidation(t *testing.T) {
	svc := NewService(&memoryCatalogRepo{})

	_, err := svc.EnsurePermission(context.Background(), Permission{Code: "drivers:view", CategoryID: "c"})
	require.Error(t, err)

	_, err = svc.EnsurePermission(context.Background(), Permission{Name: "View Drivers", CategoryID: "c"})
	require.Error(t, err)

	_, err = svc.EnsurePermission(context.Background(), Permission{Name: "View Drivers", Code: "drivers:view"})
	require.Error(t, err)

	p, err := svc.EnsurePermission(context.Background(), Permission{Name: " View Drivers ", Code: " drivers:view ", CategoryID: "c"})
	require.NoError(t, err)
	require.Equal(t, "drivers:view", p.Code)
}

func TestFilterKnownPermissionIDs(t *testing.T) {
	svc := NewService(seededRepo())

	ids, err := svc.FilterKnownPermissionIDs(context.Background(), []string{"p1", "p1", " p2 ", "ghost", ""})
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, ids)
}
