package assistant

import (
	"sync"
	"time"

	"defi-assistant/observability"
)

// DefaultSessionID is used when a caller supplies no session key
const DefaultSessionID = "default"

type session struct {
	conv     *Conversation
	lastUsed time.Time
}

// SessionStore maps opaque session keys to their conversations
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	persona  string
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose conversations open with persona.
// Sessions idle for longer than ttl are removed by Prune.
func NewSessionStore(persona string, maxTurns int, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		persona:  persona,
		maxTurns: maxTurns,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the conversation for id, creating it on first use
func (s *SessionStore) Get(id string) *Conversation {
	if id == "" {
		id = DefaultSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{conv: NewConversation(s.persona, s.maxTurns)}
		s.sessions[id] = sess
		observability.GetMetrics().SetActiveSessions(len(s.sessions))
	}
	sess.lastUsed = s.now()
	return sess.conv
}

// Prune removes sessions idle for longer than the TTL and returns how many were removed.
// A session with a turn in flight is never removed.
func (s *SessionStore) Prune() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.After(cutoff) {
			continue
		}
		if !sess.conv.mu.TryLock() {
			continue
		}
		delete(s.sessions, id)
		sess.conv.mu.Unlock()
		removed++
	}

	if removed > 0 {
		observability.Debug("pruned idle chat sessions", "removed", removed, "remaining", len(s.sessions))
		observability.GetMetrics().SetActiveSessions(len(s.sessions))
	}
	return removed
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
