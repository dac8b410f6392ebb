package browser

import (
	"sync"

	"github.com/google/uuid"
)

// SessionManager manages browsing sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// Session holds the history stack for one browsing surface
type Session struct {
	ID      string
	mu      sync.RWMutex
	history []string
	pos     int // index of the current entry, -1 when empty
}

// NewSessionManager creates an empty manager
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for an ID, minting a new session when
// the ID is empty or unknown.
func (m *SessionManager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s
		}
	} else {
		id = uuid.NewString()
	}

	s := &Session{ID: id, pos: -1}
	m.sessions[id] = s
	return s
}

// Get returns an existing session.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Visit records a navigation, truncating any forward entries.
func (s *Session) Visit(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history[:s.pos+1], url)
	s.pos = len(s.history) - 1
}

// Back steps to the previous entry and returns its URL.
func (s *Session) Back() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos <= 0 {
		return "", false
	}
	s.pos--
	return s.history[s.pos], true
}

// History returns a copy of the visited URLs, oldest first.
func (s *Session) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}
