package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created := store.Create(ctx)
	assert.Equal(t, StatePending, created.State)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatePending, got.State)

	require.NoError(t, store.SetProcessing(ctx, created.ID))
	require.NoError(t, store.Complete(ctx, created.ID, map[string]any{"file_name": "informe.pdf"}, "gemini-2.5-pro"))

	got, err = store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, got.State)
	assert.Equal(t, "gemini-2.5-pro", got.ModelUsed)
	assert.Equal(t, "informe.pdf", got.Result["file_name"])
}

func TestTaskFail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created := store.Create(ctx)
	require.NoError(t, store.Fail(ctx, created.ID, "report generation failed", "schema validation: missing file_name"))

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StateError, got.State)
	assert.Equal(t, "report generation failed", got.Error)
	assert.Contains(t, got.Detail, "file_name")
}

func TestTaskUnknownID(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SetProcessing(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, store.Complete(ctx, "nope", nil, ""), ErrNotFound)
	assert.ErrorIs(t, store.Fail(ctx, "nope", "", ""), ErrNotFound)
}

func TestTaskSweep(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	done := store.Create(ctx)
	require.NoError(t, store.Complete(ctx, done.ID, nil, ""))
	pending := store.Create(ctx)

	// Completed long ago, pending stays regardless of age.
	store.mu.Lock()
	store.tasks[done.ID].UpdatedAt = time.Now().UTC().Add(-time.Hour)
	store.tasks[pending.ID].UpdatedAt = time.Now().UTC().Add(-time.Hour)
	store.mu.Unlock()

	removed := store.Sweep(ctx, 15*time.Minute)
	assert.Equal(t, 1, removed)

	_, err := store.Get(ctx, done.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, pending.ID)
	assert.NoError(t, err)
}
