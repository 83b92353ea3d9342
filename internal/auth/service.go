// Package auth implements credential login and token revocation on logout.
package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/burrow-admin/burrow/internal/shared"
	"github.com/burrow-admin/burrow/internal/token"
	"github.com/burrow-admin/burrow/internal/users"
)

// Service wraps authentication business rules.
type Service struct {
	repo   users.Repository
	tokens *token.Manager
}

// NewService constructs a Service.
func NewService(repo users.Repository, tokens *token.Manager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates credentials and issues a bearer token. Unknown usernames
// and wrong passwords produce the same error so accounts cannot be probed.
func (s *Service) Login(ctx context.Context, username, password, ip string) (string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", shared.Validationf("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", shared.Validationf("invalid username or password")
	}
	if !user.IsActive {
		return "", shared.Validationf("account is disabled")
	}

	if err := s.repo.RecordLogin(ctx, user.ID, time.Now(), ip); err != nil {
		return "", err
	}

	return s.tokens.Generate(ctx, user.ID)
}

// Logout revokes the presented token. Revoking an undecodable token is not an
// error; there is nothing left to invalidate.
func (s *Service) Logout(ctx context.Context, raw string) bool {
	return s.tokens.Ban(ctx, raw)
}
