package session

import (
	"context"
	"sync"
	"time"

	"github.com/mimurillof/chat-agent-service/internal/metrics"
)

// MemoryStore is the default in-process store. Sessions idle beyond
// the TTL are dropped both on read and by the periodic sweep, so an
// expired session behaves identically either way.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore creates a store with the given idle TTL. A zero TTL
// disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (m *MemoryStore) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.LastActivity) > m.ttl
}

// Get returns the session or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(s, time.Now().UTC()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		metrics.ActiveSessions.Set(float64(m.len()))
		return nil, ErrNotFound
	}
	return s, nil
}

// Put stores the session.
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Delete removes the session, ErrNotFound for unknown ids.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return nil
}

// List returns all live sessions.
func (m *MemoryStore) List(_ context.Context) ([]*Session, error) {
	now := time.Now().UTC()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if m.expired(s, now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep(_ context.Context) int {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return removed
}

func (m *MemoryStore) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
