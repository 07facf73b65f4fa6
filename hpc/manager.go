package hpc

import (
	"sync"
	"time"
)

// Manager holds at most one live Session per dashboard user.
type Manager struct {
	mu          sync.Mutex
	sessions    map[int]*Session
	execTimeout time.Duration
}

func NewManager(execTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[int]*Session),
		execTimeout: execTimeout,
	}
}

// Get returns the user's session, creating a disconnected one on first
// use.
func (m *Manager) Get(userID int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		s = NewSession(m.execTimeout)
		m.sessions[userID] = s
	}
	return s
}

// Drop disconnects and removes the user's session, if any. Called on
// logout so a revoked dashboard login cannot leave a live shell.
func (m *Manager) Drop(userID int) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		_ = s.Disconnect()
	}
}
