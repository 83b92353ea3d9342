package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/burrow-admin/burrow/internal/audit"
	"github.com/burrow-admin/burrow/internal/auth"
	"github.com/burrow-admin/burrow/internal/menu"
	"github.com/burrow-admin/burrow/internal/roles"
	"github.com/burrow-admin/burrow/internal/token"
	"github.com/burrow-admin/burrow/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Tokens       *token.Manager
	AuditSink    audit.Sink
	AuthHandler  *auth.Handler
	MenuHandler  *menu.Handler
	RolesHandler *roles.Handler
	UsersHandler *users.Handler
	AuditHandler *audit.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountPublicRoutes)

	r.Group(func(r chi.Router) {
		r.Use(TokenAuth(params.Tokens, params.Logger))
		r.Use(audit.Middleware(params.AuditSink, params.Logger))

		r.Route("/admin", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			params.MenuHandler.MountRoutes(r)
			params.RolesHandler.MountRoutes(r)
			params.UsersHandler.MountRoutes(r)
			params.AuditHandler.MountRoutes(r)
		})
	})

	return r
}
