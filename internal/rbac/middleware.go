package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/return-lorry/lorry-admin/internal/platform/httpx"
	"github.com/return-lorry/lorry-admin/internal/shared"
)

// Middleware wires RBAC authorization guards for HTTP handlers. The route
// guard is the authoritative boundary; any client-side gating on top of it is
// a UX concern only.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAny ensures the current admin has at least one of the required
// permission codes.
func (m Middleware) RequireAny(codes ...string) func(http.Handler) http.Handler {
	required := normalizeCodes(codes)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			adminID, ok := m.currentAdminID(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			granted := toSet(m.Service.PermissionCodes(r.Context(), adminID))
			for _, code := range required {
				if _, ok := granted[code]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, r, adminID)
		})
	}
}

// RequireAll ensures the current admin has every required permission code.
func (m Middleware) RequireAll(codes ...string) func(http.Handler) http.Handler {
	required := normalizeCodes(codes)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			adminID, ok := m.currentAdminID(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			granted := toSet(m.Service.PermissionCodes(r.Context(), adminID))
			for _, code := range required {
				if _, ok := granted[code]; !ok {
					m.deny(w, r, adminID)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, adminID string) {
	if m.Logger != nil {
		m.Logger.Warn("access denied",
			slog.String("admin_id", adminID),
			slog.String("path", r.URL.Path))
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing required permission")
}

func (m Middleware) currentAdminID(r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return "", false
	}
	id := strings.TrimSpace(sess.Admin())
	return id, id != ""
}

func normalizeCodes(codes []string) []string {
	unique := make(map[string]struct{}, len(codes))
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := unique[code]; ok {
			continue
		}
		unique[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}
