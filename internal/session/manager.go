package session

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultID is the session used when a request carries no session identifier.
const DefaultID = "default"

// Manager maps session identifiers to caller-owned sessions, creating them
// on demand.
type Manager struct {
	llm           Streamer
	vectorStoreID string

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(llm Streamer, vectorStoreID string) *Manager {
	return &Manager{
		llm:           llm,
		vectorStoreID: vectorStoreID,
		sessions:      make(map[string]*Session),
	}
}

// Get returns the session for id, creating it if needed. An empty id maps to
// the shared default session.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		id = DefaultID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		sess = New(m.llm, m.vectorStoreID)
		m.sessions[id] = sess
	}
	return sess
}

// Create registers a fresh session under a generated identifier.
func (m *Manager) Create() string {
	id := uuid.New().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = New(m.llm, m.vectorStoreID)
	return id
}

// Remove drops a session, releasing its history.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
