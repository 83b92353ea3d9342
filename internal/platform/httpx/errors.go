package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/burrow-admin/burrow/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Persistence failures fall through to a detail-free 500 so internals never
// leak to the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAuthentication):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, shared.ErrPermission):
		Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func validationDetail(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, shared.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}
