package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/video-management-service/internal/model"
)

// SessionRegistry tracks at most one playback session per connection,
// keyed by connection ID. Shared across all connections.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	now      func() time.Time
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*model.Session),
		now:      time.Now,
	}
}

// Open creates a fresh session for the connection. A session already present
// for the connection is replaced; the orchestrator serializes control messages
// per connection and finalizes the prior session before reopening.
func (r *SessionRegistry) Open(connID, cameraID string) *model.Session {
	sess := &model.Session{
		ID:       uuid.New().String(),
		CameraID: cameraID,
	}
	r.mu.Lock()
	sess.StartTime = r.now()
	r.sessions[connID] = sess
	r.mu.Unlock()
	return sess
}

// Get returns the open session for the connection, if any.
func (r *SessionRegistry) Get(connID string) (*model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[connID]
	return sess, ok
}

// Close finalizes and removes the connection's session, returning it together
// with the accumulated play time in whole seconds. Idempotent: returns
// ok=false when no session was open.
func (r *SessionRegistry) Close(connID string) (sess *model.Session, seconds int64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok = r.sessions[connID]
	if !ok {
		return nil, 0, false
	}
	delete(r.sessions, connID)
	return sess, sess.Duration(r.now()), true
}

// CloseIf finalizes and removes the connection's session only if it is still
// the given session. A stale caller whose session was already replaced gets
// ok=false and the current session stays untouched.
func (r *SessionRegistry) CloseIf(connID, sessionID string) (sess *model.Session, seconds int64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok = r.sessions[connID]
	if !ok || sess.ID != sessionID {
		return nil, 0, false
	}
	delete(r.sessions, connID)
	return sess, sess.Duration(r.now()), true
}

// Count returns the number of open sessions.
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
