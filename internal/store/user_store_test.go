package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomhq/stockroom/internal/domain"
)

func TestUserStoreCreateAndGetByEmail(t *testing.T) {
	d := openTestDB(t)
	users := NewUserStore(d)
	ctx := context.Background()

	user, err := users.Create(ctx, "lab@example.com", "hash")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	got, err := users.GetByEmail(ctx, "lab@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	missing, err := users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	d := openTestDB(t)
	users := NewUserStore(d)
	ctx := context.Background()

	_, err := users.Create(ctx, "lab@example.com", "hash")
	require.NoError(t, err)
	_, err = users.Create(ctx, "lab@example.com", "other")
	assert.Error(t, err)
}

func TestUserStoreSessions(t *testing.T) {
	d := openTestDB(t)
	users := NewUserStore(d)
	ctx := context.Background()

	user, err := users.Create(ctx, "lab@example.com", "hash")
	require.NoError(t, err)

	session := &domain.Session{
		UserID:       user.ID,
		RefreshToken: "token-1",
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, users.CreateSession(ctx, session))

	got, err := users.GetSession(ctx, "token-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.UserID)

	require.NoError(t, users.DeleteSession(ctx, got.ID))
	gone, err := users.GetSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUserStoreDeleteExpiredSessions(t *testing.T) {
	d := openTestDB(t)
	users := NewUserStore(d)
	ctx := context.Background()

	user, err := users.Create(ctx, "lab@example.com", "hash")
	require.NoError(t, err)

	require.NoError(t, users.CreateSession(ctx, &domain.Session{
		UserID: user.ID, RefreshToken: "old", ExpiresAt: time.Now().Add(-time.Hour).UTC(),
	}))
	require.NoError(t, users.CreateSession(ctx, &domain.Session{
		UserID: user.ID, RefreshToken: "fresh", ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}))

	require.NoError(t, users.DeleteExpiredSessions(ctx))

	gone, err := users.GetSession(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := users.GetSession(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
