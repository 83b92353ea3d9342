package menu

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/burrow-admin/burrow/internal/platform/httpx"
	"github.com/burrow-admin/burrow/internal/rbac"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Handler exposes menu management and navigation endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validator: validator.New()}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Navigation for the current user needs no dedicated permission.
	r.Get("/user/menu", h.userMenu)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("menu.list"))
		r.Get("/menus", h.tree)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("menu.create"))
		r.Post("/menus", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("menu.update"))
		r.Put("/menus/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("menu.delete"))
		r.Delete("/menus/{id}", h.delete)
	})
}

type menuRequest struct {
	ParentID   int64  `json:"parent_id" validate:"min=0"`
	Title      string `json:"title" validate:"required,max=64"`
	Path       string `json:"path" validate:"max=64"`
	Permission string `json:"permission" validate:"required,max=64"`
	Icon       string `json:"icon" validate:"max=64"`
	Link       string `json:"link" validate:"max=255"`
	Sort       int    `json:"sort"`
	Hidden     bool   `json:"hidden"`
}

func (h *Handler) userMenu(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrAuthentication)
		return
	}

	if r.URL.Query().Get("raw") == "1" {
		tree, err := h.service.UserMenus(r.Context(), userID)
		if err != nil {
			h.logger.Error("user menu", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"menus": emptyIfNilRaw(tree)})
		return
	}

	tree, err := h.service.UserRoutes(r.Context(), userID)
	if err != nil {
		h.logger.Error("user routes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": emptyIfNilRoutes(tree)})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("menu tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": emptyIfNilRaw(tree)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), req.params())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.service.Update(r.Context(), id, req.params()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (menuRequest, bool) {
	var req menuRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("malformed request body"))
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid menu payload"))
		return req, false
	}
	return req, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validationf("invalid menu id"))
		return 0, false
	}
	return id, true
}

func (req menuRequest) params() Params {
	return Params{
		ParentID:   req.ParentID,
		Title:      req.Title,
		Path:       req.Path,
		Permission: req.Permission,
		Icon:       req.Icon,
		Link:       req.Link,
		Sort:       req.Sort,
		Hidden:     req.Hidden,
	}
}

func emptyIfNilRaw(tree []RawNode) []RawNode {
	if tree == nil {
		return []RawNode{}
	}
	return tree
}

func emptyIfNilRoutes(tree []RouteNode) []RouteNode {
	if tree == nil {
		return []RouteNode{}
	}
	return tree
}
