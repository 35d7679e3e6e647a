package checkout

import (
	"strings"
	"sync"
	"time"
)

// SessionManager owns the live sessions, one per terminal.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cashier  string
}

// NewSessionManager builds an empty manager. defaultCashier is stamped onto
// sessions created before a cashier logs in.
func NewSessionManager(defaultCashier string) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cashier:  defaultCashier,
	}
}

// Get returns the session for the terminal, creating it on first use.
func (m *SessionManager) Get(terminal string) *Session {
	terminal = strings.TrimSpace(terminal)
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[terminal]; ok {
		return sess
	}
	sess := NewSession(terminal, m.cashier)
	m.sessions[terminal] = sess
	return sess
}

// Drop removes the terminal's session outright.
func (m *SessionManager) Drop(terminal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, strings.TrimSpace(terminal))
}

// SweepIdle drops sessions untouched for longer than ttl and reports how many
// were removed.
func (m *SessionManager) SweepIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for terminal, sess := range m.sessions {
		if sess.TouchedAt().Before(cutoff) {
			delete(m.sessions, terminal)
			removed++
		}
	}
	return removed
}
