package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/return-lorry/lorry-admin/internal/shared"
)

func newSessionRequest(t *testing.T, adminID string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	if adminID != "" {
		sess.SetAdmin(adminID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func grantedService(t *testing.T, adminID string, codes ...string) *Service {
	t.Helper()
	repo := newMemoryRBACRepo()
	for i, code := range codes {
		repo.addPermission(GrantedPermission{
			ID:            code,
			Name:          code,
			Code:          code,
			CategoryOrder: i + 1,
		})
	}
	svc := newTestService(repo)
	role, err := svc.CreateRole(context.Background(), CreateRoleInput{
		Name:          "Guard Test",
		ActorID:       "actor",
		PermissionIDs: codes,
	})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRole(context.Background(), adminID, role.ID, "actor"))
	return svc
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireAnyAllowsMatchingPermission(t *testing.T) {
	svc := grantedService(t, "admin-1", PermRidesView)
	mw := Middleware{Service: svc}

	next, called := okHandler()
	res := httptest.NewRecorder()
	mw.RequireAny(PermRidesView, PermAccessControl)(next).ServeHTTP(res, newSessionRequest(t, "admin-1"))

	require.True(t, *called)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAnyDeniesMissingPermission(t *testing.T) {
	svc := grantedService(t, "admin-1", PermRidesView)
	mw := Middleware{Service: svc}

	next, called := okHandler()
	res := httptest.NewRecorder()
	mw.RequireAny(PermAccessControl)(next).ServeHTTP(res, newSessionRequest(t, "admin-1"))

	require.False(t, *called)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Contains(t, res.Header().Get("Content-Type"), "application/json")
}

func TestRequireAnyWithoutSession(t *testing.T) {
	svc := grantedService(t, "admin-1", PermRidesView)
	mw := Middleware{Service: svc}

	next, called := okHandler()
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	mw.RequireAny(PermRidesView)(next).ServeHTTP(res, req)

	require.False(t, *called)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	svc := grantedService(t, "admin-1", PermUsersView, PermAccessControl)
	mw := Middleware{Service: svc}

	next, called := okHandler()
	res := httptest.NewRecorder()
	mw.RequireAll(PermUsersView, PermAccessControl)(next).ServeHTTP(res, newSessionRequest(t, "admin-1"))
	require.True(t, *called)
	require.Equal(t, http.StatusOK, res.Code)

	partial := grantedService(t, "admin-2", PermUsersView)
	mwPartial := Middleware{Service: partial}
	nextPartial, calledPartial := okHandler()
	resPartial := httptest.NewRecorder()
	mwPartial.RequireAll(PermUsersView, PermAccessControl)(nextPartial).ServeHTTP(resPartial, newSessionRequest(t, "admin-2"))
	require.False(t, *calledPartial)
	require.Equal(t, http.StatusForbidden, resPartial.Code)
}

func TestRequireAnyNoCodesPassesThrough(t *testing.T) {
	mw := Middleware{}
	next, called := okHandler()
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	mw.RequireAny()(next).ServeHTTP(res, req)
	require.True(t, *called)
}
