// Package task tracks background report generation. Tasks are
// in-process only: a restart forgets pending work, and clients are
// expected to re-submit.
package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mimurillof/chat-agent-service/internal/metrics"
)

// ErrNotFound is returned for unknown task ids.
var ErrNotFound = errors.New("task not found")

// Task states, in order of progression.
const (
	StatePending    = "pending"
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateError      = "error"
)

// Task is one background report job.
type Task struct {
	ID        string         `json:"task_id"`
	State     string         `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	ModelUsed string         `json:"model_used,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store keeps tasks keyed by id.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewStore() *Store {
	return &Store{tasks: make(map[string]*Task)}
}

// Create registers a new pending task and returns its id.
func (s *Store) Create(_ context.Context) *Task {
	now := time.Now().UTC()
	t := &Task{
		ID:        uuid.NewString(),
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	metrics.ReportTasks.WithLabelValues(StatePending).Inc()
	return t
}

// Get returns a snapshot of the task, ErrNotFound for unknown ids.
// The copy keeps callers from racing the worker goroutine.
func (s *Store) Get(_ context.Context, id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return *t, nil
}

// SetProcessing marks the task as picked up by a worker.
func (s *Store) SetProcessing(_ context.Context, id string) error {
	return s.transition(id, func(t *Task) {
		t.State = StateProcessing
	})
}

// Complete records a successful result.
func (s *Store) Complete(_ context.Context, id string, result map[string]any, modelUsed string) error {
	return s.transition(id, func(t *Task) {
		t.State = StateCompleted
		t.Result = result
		t.ModelUsed = modelUsed
	})
}

// Fail records a failure. Detail carries operator-facing context that
// the client-facing error message omits.
func (s *Store) Fail(_ context.Context, id, errMsg, detail string) error {
	return s.transition(id, func(t *Task) {
		t.State = StateError
		t.Error = errMsg
		t.Detail = detail
	})
}

func (s *Store) transition(id string, apply func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	apply(t)
	t.UpdatedAt = time.Now().UTC()
	metrics.ReportTasks.WithLabelValues(t.State).Inc()
	return nil
}

// Sweep drops finished tasks older than the retention window and
// returns how many were removed. In-flight tasks are never dropped.
func (s *Store) Sweep(_ context.Context, retention time.Duration) int {
	cutoff := time.Now().UTC().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, t := range s.tasks {
		if t.State != StateCompleted && t.State != StateError {
			continue
		}
		if t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}
