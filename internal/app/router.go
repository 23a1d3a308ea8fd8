package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/return-lorry/lorry-admin/internal/admins"
	audithttp "github.com/return-lorry/lorry-admin/internal/audit/http"
	"github.com/return-lorry/lorry-admin/internal/auth"
	"github.com/return-lorry/lorry-admin/internal/catalog"
	"github.com/return-lorry/lorry-admin/internal/observability"
	"github.com/return-lorry/lorry-admin/internal/rbac"
	"github.com/return-lorry/lorry-admin/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	RBACHandler    *rbac.Handler
	CatalogHandler *catalog.Handler
	AdminsHandler  *admins.Handler
	AuditHandler   *audithttp.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router for the admin API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.RBACHandler != nil {
		r.Route("/roles", params.RBACHandler.MountRoleRoutes)
		r.Route("/me", params.RBACHandler.MountSelfRoutes)
	}
	if params.AdminsHandler != nil || params.RBACHandler != nil {
		r.Route("/admins", func(r chi.Router) {
			if params.AdminsHandler != nil {
				params.AdminsHandler.MountRoutes(r)
			}
			if params.RBACHandler != nil {
				params.RBACHandler.MountAdminRoutes(r)
			}
		})
	}
	if params.CatalogHandler != nil {
		r.Route("/permissions", params.CatalogHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
