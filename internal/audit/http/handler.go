package audithttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/return-lorry/lorry-admin/internal/audit"
	"github.com/return-lorry/lorry-admin/internal/platform/httpx"
	"github.com/return-lorry/lorry-admin/internal/rbac"
)

// Handler exposes the audit timeline over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *audit.Service
	guard   rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *audit.Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers the audit timeline route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermAccessControl))
		r.Get("/", h.timeline)
	})
}

type entryResponse struct {
	ID           string    `json:"id"`
	ActionType   string    `json:"actionType"`
	Details      string    `json:"details,omitempty"`
	At           time.Time `json:"at"`
	ActorID      string    `json:"actorId"`
	RoleID       string    `json:"roleId,omitempty"`
	PermissionID string    `json:"permissionId,omitempty"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r)
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	entries := make([]entryResponse, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, entryResponse{
			ID:           e.ID,
			ActionType:   string(e.ActionType),
			Details:      e.Details,
			At:           e.At,
			ActorID:      e.ActorID,
			RoleID:       e.RoleID,
			PermissionID: e.PermissionID,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"paging": map[string]any{
			"page":     result.Paging.Page,
			"pageSize": result.Paging.PageSize,
			"hasNext":  result.Paging.HasNext,
		},
	})
}

func parseFilters(r *http.Request) audit.TimelineFilters {
	q := r.URL.Query()
	filters := audit.TimelineFilters{
		ActorID: q.Get("actor"),
		RoleID:  q.Get("role"),
		Action:  q.Get("action"),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.To = t
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.Page = n
		}
	}
	if v := q.Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.PageSize = n
		}
	}
	return filters
}
