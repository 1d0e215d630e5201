package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls atomic.Int64 }

func (c *countingSweeper) Sweep(context.Context) int {
	c.calls.Add(1)
	return 1
}

type countingTaskSweeper struct {
	calls     atomic.Int64
	retention atomic.Int64
}

func (c *countingTaskSweeper) Sweep(_ context.Context, retention time.Duration) int {
	c.retention.Store(int64(retention))
	c.calls.Add(1)
	return 0
}

func TestSchedulerRunsBothSweeps(t *testing.T) {
	sessions := &countingSweeper{}
	tasks := &countingTaskSweeper{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(sessions, tasks, 10*time.Millisecond, 15*time.Minute, logger)
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return sessions.calls.Load() > 0 && tasks.calls.Load() > 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(15*time.Minute), tasks.retention.Load())
}
