package workspace

import (
	"context"
	"sync"
)

// Manager tracks open sessions by ID. Sessions are independent; the
// manager only owns the lookup table.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	backend Backend
	drafts  DraftStore
}

func NewManager(backend Backend, drafts DraftStore) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		backend:  backend,
		drafts:   drafts,
	}
}

// Open creates a session on an image and registers it.
func (m *Manager) Open(ctx context.Context, imageID, user string) (*Session, error) {
	s, err := Open(ctx, m.backend, m.drafts, imageID, user)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Close tears a session down, letting it persist a draft first.
func (m *Manager) Close(ctx context.Context, sessionID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close(ctx)
	return true
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
