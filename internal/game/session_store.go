// internal/game/session_store.go
package game

import "sync"

// SessionStore is the process-wide registry of game sessions, keyed by room
// id. Sessions are created lazily on first reference. Eviction policy: a
// session is removed when its last player leaves while no round is in
// progress; rooms with a running round survive until they drain.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty in-memory session registry.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for roomID, creating and registering an
// idle one on first reference.
func (st *SessionStore) GetOrCreate(roomID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[roomID]; ok {
		return s
	}
	s := NewSession(roomID)
	s.OnEmpty = st.Remove
	st.sessions[roomID] = s
	return s
}

// Get returns the session for roomID if it exists.
func (st *SessionStore) Get(roomID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[roomID]
	return s, ok
}

// Remove evicts the session for roomID.
func (st *SessionStore) Remove(roomID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, roomID)
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
