package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/return-lorry/lorry-admin/internal/platform/httpx"
	"github.com/return-lorry/lorry-admin/internal/shared"
)

// Handler wires HTTP endpoints for role management and permission resolution.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	guard     Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		guard:     guard,
	}
}

// MountRoleRoutes registers role CRUD routes, guarded by the access-control
// permission.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(PermAccessControl))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
		r.Post("/", h.createRole)
		r.Put("/{roleID}", h.updateRoleDetails)
		r.Put("/{roleID}/permissions", h.updateRolePermissions)
		r.Delete("/{roleID}", h.deleteRole)
	})
}

// MountAdminRoutes registers role assignment and permission lookup routes for
// admin accounts.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(PermUsersView, PermAccessControl))
		r.Get("/{adminID}/permissions", h.adminPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(PermAccessControl))
		r.Post("/{adminID}/roles", h.assignRole)
		r.Delete("/{adminID}/roles/{roleID}", h.removeRole)
	})
}

// MountSelfRoutes registers the session admin's own permission feed, used by
// clients for conditional rendering.
func (h *Handler) MountSelfRoutes(r chi.Router) {
	r.Get("/permissions", h.ownPermissions)
}

type roleResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	IsSystemRole    bool      `json:"isSystemRole"`
	PermissionCount int       `json:"permissionCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type permissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
}

type assigneeResponse struct {
	AdminID    string    `json:"adminId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AssignedAt time.Time `json:"assignedAt"`
}

type roleDetailResponse struct {
	roleResponse
	Permissions []permissionResponse `json:"permissions"`
	Assignees   []assigneeResponse   `json:"assignees"`
}

type createRoleRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   string   `json:"description" validate:"max=500"`
	PermissionIDs []string `json:"permissionIds"`
}

type updateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type updateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds"`
}

type assignRoleRequest struct {
	RoleID string `json:"roleId" validate:"required"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]roleResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toRoleResponse(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetRoleDetail(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "role not found")
			return
		}
		h.logger.Error("get role", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := roleDetailResponse{
		roleResponse: toRoleResponse(RoleSummary{Role: detail.Role, PermissionCount: len(detail.Permissions)}),
		Permissions:  make([]permissionResponse, 0, len(detail.Permissions)),
		Assignees:    make([]assigneeResponse, 0, len(detail.Assignees)),
	}
	for _, p := range detail.Permissions {
		resp.Permissions = append(resp.Permissions, toPermissionResponse(p))
	}
	for _, a := range detail.Assignees {
		resp.Assignees = append(resp.Assignees, assigneeResponse{AdminID: a.AdminID, Email: a.Email, Name: a.Name, AssignedAt: a.AssignedAt})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := shared.AdminIDFromContext(r.Context())
	if !ok {
		httpx.Failure(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "role name is required")
		return
	}

	role, err := h.service.CreateRole(r.Context(), CreateRoleInput{
		Name:          req.Name,
		Description:   req.Description,
		ActorID:       actorID,
		PermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		h.respondMutationError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "roleId": role.ID})
}

func (h *Handler) updateRoleDetails(w http.ResponseWriter, r *http.Request) {
	actorID, ok := shared.AdminIDFromContext(r.Context())
	if !ok {
		httpx.Failure(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "role name is required")
		return
	}
	if err := h.service.UpdateRoleDetails(r.Context(), chi.URLParam(r, "roleID"), req.Name, req.Description, actorID); err != nil {
		h.respondMutationError(w, "update role", err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) updateRolePermissions(w http.ResponseWriter, r *http.Request) {
	actorID, ok := shared.AdminIDFromContext(r.Context())
	if !ok {
		httpx.Failure(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var req updateRolePermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.UpdateRolePermissions(r.Context(), chi.URLParam(r, "roleID"), req.PermissionIDs, actorID); err != nil {
		h.respondMutationError(w, "update role permissions", err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := shared.AdminIDFromContext(r.Context())
	if !ok {
		httpx.Failure(w, http.StatusUnauthorized, "sign in required")
		return
	}
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "roleID"), actorID); err != nil {
		h.respondMutationError(w, "delete role", err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := shared.AdminIDFromContext(r.Context())
	if !ok {
		httpx.Failure(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "role id is required")
		return
	}
	if err := h.service.AssignRole(r.Context(), chi.URLParam(r, "adminID"), req.RoleID, actorID); err != nil {
		h.respondMutationError(w, "assign role", err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := shared.AdminIDFromContext(r.Context())
	if !ok {
		httpx.Failure(w, http.StatusUnauthorized, "sign in required")
		return
	}
	if err := h.service.RemoveRole(r.Context(), chi.URLParam(r, "adminID"), chi.URLParam(r, "roleID"), actorID); err != nil {
		h.respondMutationError(w, "remove role", err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) adminPermissions(w http.ResponseWriter, r *http.Request) {
	h.respondPermissions(w, r, chi.URLParam(r, "adminID"))
}

func (h *Handler) ownPermissions(w http.ResponseWriter, r *http.Request) {
	adminID, ok := shared.AdminIDFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	h.respondPermissions(w, r, adminID)
}

func (h *Handler) respondPermissions(w http.ResponseWriter, r *http.Request, adminID string) {
	perms := h.service.EffectivePermissions(r.Context(), adminID)
	codes := make([]string, 0, len(perms))
	detailed := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, p.Code)
		detailed = append(detailed, toPermissionResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"permissions": codes,
		"detail":      detailed,
	})
}

func (h *Handler) respondMutationError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNameRequired):
		httpx.Failure(w, http.StatusBadRequest, "role name is required")
	case errors.Is(err, ErrNameTaken):
		httpx.Failure(w, http.StatusConflict, "a role with this name already exists")
	case errors.Is(err, ErrSystemRoleDelete):
		httpx.Failure(w, http.StatusForbidden, "System roles cannot be deleted")
	case errors.Is(err, ErrSystemRoleRename):
		httpx.Failure(w, http.StatusForbidden, "System role names cannot be changed")
	case errors.Is(err, ErrNotFound):
		httpx.Failure(w, http.StatusNotFound, "not found")
	default:
		// Persistence failures stay generic; detail goes to the log only.
		h.logger.Error(op, slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func toRoleResponse(s RoleSummary) roleResponse {
	return roleResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		IsSystemRole:    s.IsSystemRole,
		PermissionCount: s.PermissionCount,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toPermissionResponse(p GrantedPermission) permissionResponse {
	return permissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Code:        p.Code,
		Description: p.Description,
		Category:    p.Category,
	}
}
