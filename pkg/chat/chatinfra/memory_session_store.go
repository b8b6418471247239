package chatinfra

import (
	"context"
	"sync"

	"github.com/Abraxas-365/wanderlust/pkg/chat"
)

// InMemorySessionStore keeps sessions in process memory
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*chat.Session)}
}

var _ chat.SessionStore = (*InMemorySessionStore)(nil)

func (s *InMemorySessionStore) Get(ctx context.Context, id string) (*chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, chat.ErrSessionNotFound().WithDetail("session_id", id)
	}
	return session.Clone(), nil
}

func (s *InMemorySessionStore) Save(ctx context.Context, session *chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *InMemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *InMemorySessionStore) CleanExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
