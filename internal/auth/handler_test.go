package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrow-admin/burrow/internal/auth"
	"github.com/burrow-admin/burrow/internal/shared"
	"github.com/burrow-admin/burrow/internal/token"
	"github.com/burrow-admin/burrow/internal/users"
)

func newAuthRouter(t *testing.T, repo *stubRepo) (http.Handler, *token.Manager) {
	t.Helper()
	svc, tokens := newAuthService(t, repo)
	handler := auth.NewHandler(slog.Default(), svc)

	r := chi.NewRouter()
	r.Route("/auth", handler.MountPublicRoutes)
	r.Route("/admin", handler.MountRoutes)
	return r, tokens
}

func TestLoginEndpointReturnsToken(t *testing.T) {
	repo := &stubRepo{user: &users.User{ID: 7, Username: "admin", Password: hash(t, "correct"), IsActive: true}}
	router, tokens := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"correct"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	userID, err := tokens.Verify(context.Background(), body["token"])
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	repo := &stubRepo{user: &users.User{ID: 7, Username: "admin", Password: hash(t, "correct"), IsActive: true}}
	router, _ := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpointRejectsMalformedBody(t *testing.T) {
	repo := &stubRepo{}
	router, _ := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndpointRequiresBearer(t *testing.T) {
	repo := &stubRepo{}
	router, _ := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointRevokesToken(t *testing.T) {
	repo := &stubRepo{user: &users.User{ID: 7, Username: "admin", Password: hash(t, "correct"), IsActive: true}}
	router, tokens := newAuthRouter(t, repo)

	raw, err := tokens.Generate(context.Background(), 7)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err = tokens.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, shared.ErrAuthentication)
}
