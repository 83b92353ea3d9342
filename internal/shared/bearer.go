package shared

import (
	"net/http"
	"strings"
)

// BearerToken extracts the token from an Authorization header of the form
// "Bearer <token>". Returns "" when the header is missing or carries another
// scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
