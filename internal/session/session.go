// Package session holds conversation history between requests. Storage
// is deliberately not durable: whatever backend is plugged in, a
// session is cheap state the service can afford to lose.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Turn is one conversation turn. Turns are immutable once appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one conversation's state.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Model        string    `json:"model_used"`
	Turns        []Turn    `json:"turns"`
}

// New creates a session with a fresh id.
func New(userID, defaultModel string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
		Model:        defaultModel,
	}
}

// Append adds a turn and bumps the activity timestamp.
func (s *Session) Append(role, content string) {
	now := time.Now().UTC()
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, Timestamp: now})
	s.LastActivity = now
}

// Recent returns the last n turns.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// Info is the API-facing session summary.
type Info struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	ModelUsed    string    `json:"model_used"`
	LastActivity time.Time `json:"last_activity"`
}

// Info summarizes the session.
func (s *Session) Info() Info {
	return Info{
		SessionID:    s.ID,
		CreatedAt:    s.CreatedAt,
		MessageCount: len(s.Turns),
		ModelUsed:    s.Model,
		LastActivity: s.LastActivity,
	}
}

// Store is the session persistence abstraction. One request owns one
// session id at a time; implementations do not serialize concurrent
// writers racing on the same id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
}
