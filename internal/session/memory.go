package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. A zero ttl never expires entries.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Entry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, ErrNotFound
	}

	if s.ttl > 0 && s.now().Sub(e.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) Put(_ context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[e.ID] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
