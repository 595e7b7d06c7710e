package sessions

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
)

// ErrSessionNotFound is returned for an unknown or expired session id
var ErrSessionNotFound = errors.New("session not found")

// Session is one visitor's chat box and image panel
type Session struct {
	ID        string
	CreatedAt time.Time
	Chat      *chatbox.Session
	Image     *illustrator.Panel
}

// Busy reports whether a reply or an image is in flight
func (s *Session) Busy() bool {
	return s.Chat.Sending() || s.Image.Busy()
}

// LastActive is the latest change across both surfaces
func (s *Session) LastActive() time.Time {
	last := s.CreatedAt
	if t := s.Chat.UpdatedAt(); t.After(last) {
		last = t
	}
	if t := s.Image.UpdatedAt(); t.After(last) {
		last = t
	}
	return last
}

// Info is the JSON view of a session
type Info struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Busy       bool      `json:"busy"`
	Messages   int       `json:"messages"`
}

// Info returns a snapshot of the session for listing
func (s *Session) Info() Info {
	return Info{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive(),
		Busy:       s.Busy(),
		Messages:   len(s.Chat.Transcript()),
	}
}

// Factory builds the per-visitor state machines
type Factory struct {
	NewChat  func() *chatbox.Session
	NewPanel func() *illustrator.Panel
}

// Registry holds live visitor sessions in memory
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  Factory
	logger   arbor.ILogger
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(factory Factory, logger arbor.ILogger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a new session with a greeted chat box and an idle image panel
func (r *Registry) Create() *Session {
	session := &Session{
		ID:        common.NewSessionID(),
		CreatedAt: r.now(),
		Chat:      r.factory.NewChat(),
		Image:     r.factory.NewPanel(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	count := len(r.sessions)
	r.mu.Unlock()

	r.logger.Debug().Str("session_id", session.ID).Int("active", count).Msg("Session created")
	return session
}

// Get returns a session by id
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns every session, newest first
func (r *Registry) List() []*Session {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		list = append(list, session)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Delete removes a session and abandons anything still in flight
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	abandon(session)
	r.logger.Debug().Str("session_id", id).Msg("Session deleted")
	return nil
}

// SweepIdle removes sessions inactive for longer than idleTimeout.
// Busy sessions are kept. A non-positive timeout sweeps nothing.
func (r *Registry) SweepIdle(idleTimeout time.Duration) int {
	if idleTimeout <= 0 {
		return 0
	}

	cutoff := r.now().Add(-idleTimeout)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.Busy() || session.LastActive().After(cutoff) {
			continue
		}
		expired = append(expired, session)
		delete(r.sessions, id)
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, session := range expired {
		abandon(session)
	}

	if len(expired) > 0 {
		r.logger.Info().
			Int("swept", len(expired)).
			Int("remaining", remaining).
			Msg("Idle sessions swept")
	}
	return len(expired)
}

// abandon cancels work in flight on both surfaces
func abandon(session *Session) {
	session.Chat.Abandon()
	session.Image.Abandon()
}
