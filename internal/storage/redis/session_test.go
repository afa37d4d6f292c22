package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/auth"
)

func setupStore(t *testing.T) (*miniredis.Miniredis, *SessionStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewSessionStore(client, "")
	store.now = mr.Now
	return mr, store
}

func testSession(now time.Time) *auth.Session {
	return &auth.Session{
		ID: "sess-1",
		User: auth.User{
			UID:           "uid-1",
			Email:         "asha@example.com",
			DisplayName:   "Asha",
			PhotoURL:      "https://i.ibb.co/a.png",
			EmailVerified: true,
		},
		IDToken:   "provider-token",
		CreatedAt: now.Truncate(time.Second).UTC(),
		ExpiresAt: now.Add(time.Hour).Truncate(time.Second).UTC(),
	}
}

func TestSessionStore_SaveGet(t *testing.T) {
	mr, store := setupStore(t)
	mr.SetTime(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	want := testSession(mr.Now())
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.True(t, mr.Exists("storefront:session:sess-1"))
	assert.Greater(t, mr.TTL("storefront:session:sess-1"), time.Duration(0))
}

func TestSessionStore_Expires(t *testing.T) {
	mr, store := setupStore(t)
	mr.SetTime(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession(mr.Now())))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "sess-1")
	require.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	mr, store := setupStore(t)
	mr.SetTime(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession(mr.Now())))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Get(ctx, "sess-1")
	require.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestSessionStore_Refresh(t *testing.T) {
	mr, store := setupStore(t)
	mr.SetTime(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	sess := testSession(mr.Now())
	require.NoError(t, store.Save(ctx, sess))
	ttl := mr.TTL("storefront:session:sess-1")

	sess.User.PhotoURL = "https://i.ibb.co/b.png"
	require.NoError(t, store.Refresh(ctx, sess))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
	assert.Equal(t, ttl, mr.TTL("storefront:session:sess-1"))

	require.NoError(t, store.Delete(ctx, "sess-1"))
	require.ErrorIs(t, store.Refresh(ctx, sess), auth.ErrSessionNotFound)
	assert.False(t, mr.Exists("storefront:session:sess-1"))
}

func TestSessionStore_RejectsExpired(t *testing.T) {
	mr, store := setupStore(t)
	mr.SetTime(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))

	sess := testSession(mr.Now().Add(-2 * time.Hour))
	require.Error(t, store.Save(context.Background(), sess))
}

func TestSessionStore_ConnectionError(t *testing.T) {
	mr, store := setupStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrSessionNotFound)
	require.Error(t, store.Ping(context.Background()))
}
