package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/burrow-admin/burrow/internal/platform/httpx"
	"github.com/burrow-admin/burrow/internal/rbac"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Handler exposes the operation log listing.
type Handler struct {
	logger   *slog.Logger
	recorder *Recorder
	rbac     rbac.Middleware
}

func NewHandler(logger *slog.Logger, recorder *Recorder, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, recorder: recorder, rbac: rbacMW}
}

// MountRoutes registers operation log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("log.list"))
		r.Get("/logs", h.list)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	pagination := shared.NewPagination(page, perPage, 0)

	logs, total, err := h.recorder.List(r.Context(), pagination)
	if err != nil {
		h.logger.Error("list operation logs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	pagination = shared.NewPagination(page, perPage, total)
	if logs == nil {
		logs = []OperationLog{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": logs, "pagination": pagination})
}
