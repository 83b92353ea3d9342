package audit

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/burrow-admin/burrow/internal/shared"
)

// maxSnapshotBytes caps the request-body snapshot stored per log entry.
const maxSnapshotBytes = 4096

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware records one operation log entry per authenticated mutating
// request. Recording failures are logged, never surfaced to the client.
func Middleware(sink Sink, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			snapshot := snapshotBody(r)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			userID, _ := shared.UserIDFromContext(r.Context())
			entry := OperationLog{
				UserID:    userID,
				Route:     routePattern(r),
				Method:    r.Method,
				Path:      r.URL.Path,
				IP:        shared.ClientIP(r),
				Content:   snapshot,
				IsSuccess: rec.status < http.StatusBadRequest,
			}
			if err := sink.Record(r.Context(), entry); err != nil && logger != nil {
				logger.Error("operation log write", slog.Any("error", err))
			}
		})
	}
}

func snapshotBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		return ""
	}
	// Restore the body for the handler.
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	return string(body)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
