package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/return-lorry/lorry-admin/internal/platform/httpx"
	"github.com/return-lorry/lorry-admin/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/session", h.session)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// session returns the current session state and a CSRF token for mutating
// calls.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no session")
		return
	}
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"authenticated": sess.Admin() != "",
		"adminId":       sess.Admin(),
		"csrfToken":     csrfToken,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Failure(w, http.StatusForbidden, "no session")
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Failure(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Failure(w, http.StatusBadRequest, "invalid email or password")
		return
	}

	sess.SetAdmin(account.ID)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, account.ID, expiresAt, clientIP(r), r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "adminId": account.ID})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Success(w)
		return
	}
	if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
		h.logger.Warn("remove session", slog.Any("error", err))
	}
	h.sessionManager.Destroy(sess)
	httpx.Success(w)
}

func clientIP(r *http.Request) string {
	// RealIP middleware rewrites RemoteAddr before handlers run.
	return r.RemoteAddr
}
