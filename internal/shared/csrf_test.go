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

func newTestSession(t *testing.T) *Session {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := NewSessionManager(client, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestEnsureTokenStable(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := newTestSession(t)

	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestVerifyToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := newTestSession(t)

	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	require.NoError(t, m.VerifyToken(context.Background(), sess, token))
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forged"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
	require.ErrorIs(t, m.VerifyToken(context.Background(), nil, token), ErrCSRFTokenMissing)
}

func TestVerifyTokenWithoutIssuedToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := newTestSession(t)

	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, "anything"), ErrCSRFTokenMissing)
}
