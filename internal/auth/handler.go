package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/burrow-admin/burrow/internal/platform/httpx"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Handler exposes login/logout endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPublicRoutes registers routes reachable without a token.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.login)
}

// MountRoutes registers routes that require an authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("malformed request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("username and password are required"))
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password, shared.ClientIP(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	raw := shared.BearerToken(r)
	if raw == "" {
		httpx.RespondError(w, shared.ErrAuthentication)
		return
	}
	if !h.service.Logout(r.Context(), raw) {
		httpx.RespondError(w, shared.ErrAuthentication)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
