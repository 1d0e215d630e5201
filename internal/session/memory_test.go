package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	s := New("user-1", "gemini-2.5-flash")
	s.Append("user", "hola")
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Len(t, got.Turns, 1)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, s.ID), ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10 * time.Millisecond)

	s := New("", "gemini-2.5-flash")
	require.NoError(t, store.Put(ctx, s))

	s.LastActivity = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.Put(ctx, s))

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound, "idle session past TTL behaves as missing")
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	stale := New("", "gemini-2.5-flash")
	stale.LastActivity = time.Now().UTC().Add(-2 * time.Minute)
	fresh := New("", "gemini-2.5-flash")
	require.NoError(t, store.Put(ctx, stale))
	require.NoError(t, store.Put(ctx, fresh))

	removed := store.Sweep(ctx)
	assert.Equal(t, 1, removed)

	live, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, fresh.ID, live[0].ID)
}

func TestSessionRecent(t *testing.T) {
	s := New("", "gemini-2.5-flash")
	for i := 0; i < 12; i++ {
		s.Append("user", "msg")
	}
	assert.Len(t, s.Recent(10), 10)
	assert.Len(t, s.Recent(0), 12)
	assert.Len(t, s.Recent(20), 12)
}
