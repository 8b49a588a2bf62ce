package auth

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomhq/stockroom/internal/db"
	"github.com/stockroomhq/stockroom/internal/store"
)

func newTestService(t *testing.T, tokenTTL time.Duration) *Service {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	tokens := NewTokenManager("test-secret", tokenTTL)
	return NewService(store.NewUserStore(d), tokens, time.Hour, slog.Default())
}

func TestEnsureUserIdempotent(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, "admin@example.com", "hunter22"))
	require.NoError(t, svc.EnsureUser(ctx, "admin@example.com", "different"))

	// The first password still works; the second call did not overwrite it.
	_, err := svc.Login(ctx, "admin@example.com", "hunter22")
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, "admin@example.com", "hunter22"))

	pair, err := svc.Login(ctx, "admin@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	userID, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.NotZero(t, userID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, "admin@example.com", "hunter22"))

	_, err := svc.Login(ctx, "admin@example.com", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestRefreshRotatesSession(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, "admin@example.com", "hunter22"))

	pair, err := svc.Login(ctx, "admin@example.com", "hunter22")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The old refresh token is single use.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestRefreshUnknownToken(t *testing.T) {
	svc := newTestService(t, time.Minute)

	_, err := svc.Refresh(context.Background(), "not-a-session")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc := newTestService(t, -time.Minute)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, "admin@example.com", "hunter22"))

	pair, err := svc.Login(ctx, "admin@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestAuthenticateGarbageToken(t *testing.T) {
	svc := newTestService(t, time.Minute)

	_, err := svc.Authenticate(context.Background(), "not.a.jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenManagerRejectsForeignSignature(t *testing.T) {
	issued := NewTokenManager("secret-a", time.Minute)
	verifier := NewTokenManager("secret-b", time.Minute)

	token, err := issued.Issue(42)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
