package app_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrow-admin/burrow/internal/app"
	"github.com/burrow-admin/burrow/internal/platform/cache"
	"github.com/burrow-admin/burrow/internal/shared"
	"github.com/burrow-admin/burrow/internal/token"
	_ "github.com/burrow-admin/burrow/testing"
)

func newTokenManager(t *testing.T) *token.Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return token.NewManager("secret", time.Hour, false, cache.NewTiered(client, "burrow", 64, time.Minute))
}

func TestTokenAuthStoresUserID(t *testing.T) {
	tokens := newTokenManager(t)
	raw, err := tokens.Generate(context.Background(), 42)
	require.NoError(t, err)

	var seen int64
	handler := app.TokenAuth(tokens, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.UserIDFromContext(r.Context())
		require.True(t, ok)
		seen = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), seen)
}

func TestTokenAuthRejectsMissingToken(t *testing.T) {
	tokens := newTokenManager(t)

	handler := app.TokenAuth(tokens, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenAuthRejectsGarbageToken(t *testing.T) {
	tokens := newTokenManager(t)

	handler := app.TokenAuth(tokens, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
