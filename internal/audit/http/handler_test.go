package audithttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/return-lorry/lorry-admin/internal/audit"
	_ "github.com/return-lorry/lorry-admin/testing"
)

func TestParseFilters(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/audit?actor=admin-1&role=role-9&action=GRANT&from=2026-03-01T00:00:00Z&to=2026-03-31T00:00:00Z&page=2&pageSize=25", nil)

	filters := parseFilters(req)
	require.Equal(t, "admin-1", filters.ActorID)
	require.Equal(t, "role-9", filters.RoleID)
	require.Equal(t, "GRANT", filters.Action)
	require.Equal(t, 2, filters.Page)
	require.Equal(t, 25, filters.PageSize)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), filters.From)
	require.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), filters.To)
}

func TestParseFiltersIgnoresMalformedValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/audit?from=yesterday&page=two&pageSize=-", nil)

	filters := parseFilters(req)
	require.True(t, filters.From.IsZero())
	require.Zero(t, filters.Page)
	require.Zero(t, filters.PageSize)
}

func TestParseFiltersDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/audit", nil)

	filters := parseFilters(req)
	require.Equal(t, audit.TimelineFilters{}, filters)
}
