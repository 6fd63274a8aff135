package http

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mrlokans/reader/internal/reading"
)

// ErrSessionNotFound is returned for unknown or already-closed session IDs.
var ErrSessionNotFound = errors.New("reading session not found")

// SessionRegistry owns the live reading sessions, keyed by opaque IDs handed
// to clients. It gives sessions an explicit lifecycle (open/close) instead of
// module-level shared state, so several sessions can coexist without leaking
// cache contents into each other.
type SessionRegistry struct {
	newSession func() *reading.Session

	mu       sync.Mutex
	sessions map[string]*reading.Session
}

// NewSessionRegistry creates a registry; newSession constructs a session
// wired with the service's fetcher and capabilities.
func NewSessionRegistry(newSession func() *reading.Session) *SessionRegistry {
	return &SessionRegistry{
		newSession: newSession,
		sessions:   make(map[string]*reading.Session),
	}
}

// Open creates a fresh session and returns its ID.
func (r *SessionRegistry) Open() (string, *reading.Session) {
	id := uuid.NewString()
	session := r.newSession()

	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()

	return id, session
}

// Get looks up a live session.
func (r *SessionRegistry) Get(id string) (*reading.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close resets and removes a session. Closing an unknown ID is a no-op.
func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		session.Reset()
	}
}

// CloseAll tears down every live session; called on shutdown.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*reading.Session)
	r.mu.Unlock()

	for _, session := range sessions {
		session.Reset()
	}
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
