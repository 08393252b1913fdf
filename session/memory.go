package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	agent "github.com/armatrix/taskagent"
)

var errNilSession = errors.New("session is nil")

// MemoryStore is an in-memory session store. Sessions are deep-copied on
// save and load so callers cannot mutate store state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*agent.Session
}

var _ agent.FullSessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*agent.Session),
	}
}

func (m *MemoryStore) Save(_ context.Context, session *agent.Session) error {
	if session == nil {
		return errNilSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = deepCopy(session)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*agent.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
	}
	return deepCopy(s), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns all sessions, most recently updated first.
func (m *MemoryStore) List(_ context.Context) ([]*agent.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*agent.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, deepCopy(s))
	}
	sortByUpdated(result)
	return result, nil
}

// Fork clones a stored session under a new ID and stores the clone.
func (m *MemoryStore) Fork(_ context.Context, id string) (*agent.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	original, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
	}
	forked := original.Clone()
	m.sessions[forked.ID] = deepCopy(forked)
	return forked, nil
}

func deepCopy(s *agent.Session) *agent.Session {
	cp := *s
	cp.Messages = agent.CopyMessages(s.Messages)
	return &cp
}
