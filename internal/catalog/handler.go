package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/return-lorry/lorry-admin/internal/platform/httpx"
	"github.com/return-lorry/lorry-admin/internal/rbac"
)

// Handler exposes the permission catalog over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers permission catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermAccessControl))
		r.Get("/", h.listGrouped)
	})
}

type categoryResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Icon         string               `json:"icon,omitempty"`
	DisplayOrder int                  `json:"displayOrder"`
	Permissions  []permissionResponse `json:"permissions"`
}

type permissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) listGrouped(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.service.ListGrouped(r.Context())
	if err != nil {
		h.logger.Error("list permission catalog", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]categoryResponse, 0, len(grouped))
	for _, g := range grouped {
		c := categoryResponse{
			ID:           g.Category.ID,
			Name:         g.Category.Name,
			Description:  g.Category.Description,
			Icon:         g.Category.Icon,
			DisplayOrder: g.Category.DisplayOrder,
			Permissions:  make([]permissionResponse, 0, len(g.Permissions)),
		}
		for _, p := range g.Permissions {
			c.Permissions = append(c.Permissions, permissionResponse{
				ID:          p.ID,
				Name:        p.Name,
				Code:        p.Code,
				Description: p.Description,
			})
		}
		out = append(out, c)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": out})
}
