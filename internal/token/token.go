// Package token implements the bearer token lifecycle: issue, verify, revoke.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/burrow-admin/burrow/internal/platform/cache"
	"github.com/burrow-admin/burrow/internal/shared"
)

// DefaultLifetime applies when no lifetime is configured.
const DefaultLifetime = 24 * time.Hour

// Claims is the JWT payload. Key carries the SSO session nonce; it is only
// set when single sign-on mode is enabled.
type Claims struct {
	UserID int64  `json:"user_id"`
	Key    string `json:"key,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues, verifies and revokes signed bearer tokens. Revocation state
// and SSO nonces live in the shared cache tier so they hold across process
// instances.
type Manager struct {
	secret   []byte
	lifetime time.Duration
	sso      bool
	cache    *cache.Tiered
}

// NewManager constructs a Manager. A non-positive lifetime falls back to
// DefaultLifetime.
func NewManager(secret string, lifetime time.Duration, sso bool, c *cache.Tiered) *Manager {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Manager{
		secret:   []byte(secret),
		lifetime: lifetime,
		sso:      sso,
		cache:    c,
	}
}

// Generate issues a signed token for the user. In SSO mode it also rotates the
// cached session nonce, making this the only verifiable token for the user.
func (m *Manager) Generate(ctx context.Context, userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	if m.sso {
		nonce := uuid.NewString()
		claims.Key = nonce
		if err := m.cache.Set(ctx, sessionKey(userID), nonce, m.lifetime); err != nil {
			return "", fmt.Errorf("token: store session nonce: %w", err)
		}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry, checks the revocation blacklist, and
// in SSO mode requires the embedded nonce to match the cached one. Every
// failure surfaces shared.ErrAuthentication.
func (m *Manager) Verify(ctx context.Context, raw string) (int64, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return 0, shared.ErrAuthentication
	}
	if claims.UserID == 0 {
		return 0, shared.ErrAuthentication
	}

	// Revocation state lives in the durable tier; if it cannot be consulted,
	// fail closed rather than treat a possibly banned token as valid.
	if _, banned, err := m.cache.Lookup(ctx, blacklistKey(raw)); err != nil || banned {
		return 0, shared.ErrAuthentication
	}

	if m.sso {
		if claims.Key == "" {
			return 0, shared.ErrAuthentication
		}
		current, ok, err := m.cache.Lookup(ctx, sessionKey(claims.UserID))
		if err != nil {
			return 0, shared.ErrAuthentication
		}
		nonce, isString := current.(string)
		if !ok || !isString || nonce != claims.Key {
			return 0, shared.ErrAuthentication
		}
	}

	return claims.UserID, nil
}

// Ban revokes a token by blacklisting its hash for the remainder of its
// lifetime, so the entry self-expires when the token would have anyway. It
// reports false only when the token cannot be decoded at all; banning an
// already banned token succeeds.
func (m *Manager) Ban(ctx context.Context, raw string) bool {
	claims, err := m.parseUnvalidated(raw)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return true
	}

	return m.cache.Set(ctx, blacklistKey(raw), claims.UserID, remaining) == nil
}

// Lifetime exposes the configured token lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

func (m *Manager) parse(raw string) (*Claims, error) {
	return m.parseWith(raw)
}

func (m *Manager) parseUnvalidated(raw string) (*Claims, error) {
	return m.parseWith(raw, jwt.WithoutClaimsValidation())
}

func (m *Manager) parseWith(raw string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...); err != nil {
		return nil, err
	}
	return &claims, nil
}

// sessionKey names the SSO nonce slot for a user.
func sessionKey(userID int64) string {
	return fmt.Sprintf("token:%d", userID)
}

// blacklistKey content-hashes the raw token to bound key length.
func blacklistKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "token:blacklist:" + hex.EncodeToString(sum[:])
}
