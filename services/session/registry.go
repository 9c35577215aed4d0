package session

import (
	"sync"
	"time"

	ai "kvrdesk/services/intelligence"

	"github.com/google/uuid"
)

// Session is one live websocket conversation.
type Session struct {
	ID       string
	Agent    *ai.Agent
	OpenedAt time.Time
}

// Registry tracks live sessions. It is owned by the transport layer.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open registers agent under a fresh session id.
func (r *Registry) Open(agent *ai.Agent) *Session {
	s := &Session{ID: uuid.NewString(), Agent: agent, OpenedAt: time.Now()}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close forgets the session. Closing twice is harmless.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
