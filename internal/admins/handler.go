package admins

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/return-lorry/lorry-admin/internal/platform/httpx"
	"github.com/return-lorry/lorry-admin/internal/rbac"
	"github.com/return-lorry/lorry-admin/internal/shared"
)

// Handler exposes admin account listing for the role assignment screens.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers admin account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermUsersView))
		r.Get("/", h.listAdmins)
		r.Get("/{adminID}", h.getAdmin)
	})
}

type adminResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAdmins(r.Context())
	if err != nil {
		h.logger.Error("list admins", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]adminResponse, 0, len(list))
	for _, a := range list {
		out = append(out, adminResponse{
			ID:        a.ID,
			Email:     a.Email,
			Name:      a.Name,
			IsActive:  a.IsActive,
			Roles:     a.Roles,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"admins": out})
}

func (h *Handler) getAdmin(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetAdmin(r.Context(), chi.URLParam(r, "adminID"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "admin not found")
			return
		}
		h.logger.Error("get admin", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, adminResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	})
}
