package rbac

import (
	"log/slog"
	"net/http"

	"github.com/burrow-admin/burrow/internal/platform/httpx"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Middleware wires permission checks into HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Require ensures the current user holds the given permission before the
// request reaches the handler.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := shared.UserIDFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrAuthentication)
				return
			}
			granted, err := m.Resolver.Check(r.Context(), userID, permission)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("permission check", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if !granted {
				httpx.RespondError(w, shared.ErrPermission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
