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

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	s := New("user-1", "gemini-2.5-flash")
	s.Append("user", "¿qué hora es?")
	s.Append("model", "son las tres")
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "model", got.Turns[1].Role)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, s.ID), ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	s := New("", "gemini-2.5-flash")
	require.NoError(t, store.Put(ctx, s))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreList(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, New("", "gemini-2.5-flash")))
	}

	live, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 3)
}
