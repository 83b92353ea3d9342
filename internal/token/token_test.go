package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrow-admin/burrow/internal/platform/cache"
	"github.com/burrow-admin/burrow/internal/shared"
	"github.com/burrow-admin/burrow/internal/token"
	_ "github.com/burrow-admin/burrow/testing"
)

func newManager(t *testing.T, lifetime time.Duration, sso bool) (*token.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tiered := cache.NewTiered(client, "burrow", 64, time.Minute)
	return token.NewManager("test-secret", lifetime, sso, tiered), mr
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	m, _ := newManager(t, time.Hour, false)
	ctx := context.Background()

	raw, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	userID, err := m.Verify(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m, _ := newManager(t, time.Hour, false)

	_, err := m.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, shared.ErrAuthentication)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m, _ := newManager(t, time.Hour, false)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	forged := token.NewManager("other-secret", time.Hour, false, cache.NewTiered(client, "burrow", 64, time.Minute))

	raw, err := forged.Generate(context.Background(), 7)
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, shared.ErrAuthentication)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m, _ := newManager(t, time.Millisecond, false)
	ctx := context.Background()

	raw, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = m.Verify(ctx, raw)
	assert.ErrorIs(t, err, shared.ErrAuthentication)
}

func TestVerifyFailsClosedWhenStoreUnavailable(t *testing.T) {
	m, mr := newManager(t, time.Hour, false)
	ctx := context.Background()

	raw, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	// Revocation state cannot be consulted while the store is down, so even
	// a well-formed token must be rejected.
	mr.Close()

	_, err = m.Verify(ctx, raw)
	assert.ErrorIs(t, err, shared.ErrAuthentication)
}

func TestBanRevokesToken(t *testing.T) {
	m, _ := newManager(t, time.Hour, false)
	ctx := context.Background()

	raw, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	require.True(t, m.Ban(ctx, raw))

	_, err = m.Verify(ctx, raw)
	assert.ErrorIs(t, err, shared.ErrAuthentication)
}

func TestBanIsIdempotent(t *testing.T) {
	m, _ := newManager(t, time.Hour, false)
	ctx := context.Background()

	raw, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	assert.True(t, m.Ban(ctx, raw))
	assert.True(t, m.Ban(ctx, raw))
}

func TestBanRejectsUndecodableToken(t *testing.T) {
	m, _ := newManager(t, time.Hour, false)

	assert.False(t, m.Ban(context.Background(), "garbage"))
}

func TestBanEntryExpiresWithToken(t *testing.T) {
	m, mr := newManager(t, time.Hour, false)
	ctx := context.Background()

	raw, err := m.Generate(ctx, 42)
	require.NoError(t, err)
	require.True(t, m.Ban(ctx, raw))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	ttl := mr.TTL(keys[0])
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestSSONewTokenSupersedesOld(t *testing.T) {
	m, _ := newManager(t, time.Hour, true)
	ctx := context.Background()

	first, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	userID, err := m.Verify(ctx, first)
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)

	second, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	// The newest token wins; the older one is invalid without ever being banned.
	_, err = m.Verify(ctx, first)
	assert.ErrorIs(t, err, shared.ErrAuthentication)

	userID, err = m.Verify(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestSSOTokenWithoutNonceRejected(t *testing.T) {
	plain, _ := newManager(t, time.Hour, false)
	ctx := context.Background()

	raw, err := plain.Generate(ctx, 42)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ssoManager := token.NewManager("test-secret", time.Hour, true, cache.NewTiered(client, "burrow", 64, time.Minute))

	_, err = ssoManager.Verify(ctx, raw)
	assert.ErrorIs(t, err, shared.ErrAuthentication)
}

func TestVerifyErrorIsNotGenericFailure(t *testing.T) {
	m, _ := newManager(t, time.Hour, false)

	_, err := m.Verify(context.Background(), "junk")
	require.Error(t, err)
	assert.False(t, errors.Is(err, shared.ErrValidation))
	assert.True(t, errors.Is(err, shared.ErrAuthentication))
}
