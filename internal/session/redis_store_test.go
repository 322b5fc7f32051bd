package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func linkedSession(id string) Session {
	now := time.Now().UTC().Truncate(time.Second)
	return Session{
		SessionID:      id,
		Provider:       "github",
		ProviderUserID: "583231",
		Login:          "octocat",
		AccessToken:    "tok123",
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
	}
}

func TestRedisStoreCreateAndGet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := linkedSession("sid-1")
	require.NoError(t, store.Create(ctx, s))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ProviderUserID, got.ProviderUserID)
	assert.Equal(t, s.AccessToken, got.AccessToken)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))
	assert.True(t, got.Linked())
	assert.Empty(t, got.UserID)

	assert.True(t, mr.Exists(keyPrefix+"sid-1"))
	assert.Greater(t, mr.TTL(keyPrefix+"sid-1"), 59*time.Minute)
}

func TestRedisStoreCreateRejectsDuplicates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, linkedSession("sid-1")))
	assert.ErrorIs(t, store.Create(ctx, linkedSession("sid-1")), ErrExists)
}

func TestRedisStoreCreateValidates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	s := linkedSession("sid-1")
	s.ProviderUserID = ""
	assert.Error(t, store.Create(ctx, s))

	s = linkedSession("sid-2")
	s.ExpiresAt = time.Now().Add(-time.Minute)
	assert.Error(t, store.Create(ctx, s))
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreUpdateKeepsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := linkedSession("sid-1")
	require.NoError(t, store.Create(ctx, s))
	mr.FastForward(10 * time.Minute)

	s.UserID = "3f6d0d6e-59a4-4d5c-9c52-2f7f5f0b7a11"
	require.NoError(t, store.Update(ctx, s))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)
	assert.LessOrEqual(t, mr.TTL(keyPrefix+"sid-1"), 50*time.Minute)
}

func TestRedisStoreUpdateExpiredDeletes(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := linkedSession("sid-1")
	require.NoError(t, store.Create(ctx, s))

	s.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Update(ctx, s))
	assert.False(t, mr.Exists(keyPrefix+"sid-1"))
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, linkedSession("sid-1")))
	require.NoError(t, store.Delete(ctx, "sid-1"))
	require.NoError(t, store.Delete(ctx, "sid-1"))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
