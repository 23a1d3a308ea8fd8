package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetAdmin("admin-1")
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "test_session", cookies[0].Name)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	restored, err := sm.Load(ctx, next)
	require.NoError(t, err)
	require.Equal(t, "admin-1", restored.Admin())
	require.Equal(t, "dark", restored.Get("theme"))
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetAdmin("admin-1")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	cookie := res.Result().Cookies()[0]

	sm.Destroy(sess)
	out := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, out, req, sess))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	restored, err := sm.Load(ctx, next)
	require.NoError(t, err)
	require.Empty(t, restored.Admin())
}

func TestAdminIDFromContext(t *testing.T) {
	sm := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	ctx := ContextWithSession(context.Background(), sess)
	_, ok := AdminIDFromContext(ctx)
	require.False(t, ok)

	sess.SetAdmin("admin-1")
	id, ok := AdminIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "admin-1", id)

	_, ok = AdminIDFromContext(context.Background())
	require.False(t, ok)
}
