// internal/store/memory.go
//
// In-memory session store for active memory games.
//
// Characteristics:
//   - Stores *Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Each Session serializes access to its game; the engine itself is not
//     safe for concurrent use.
//   - Sweep evicts by last activity, not by start time.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/memorize/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("not found")

// Session is one live game and the metadata the HTTP layer needs.
type Session struct {
	ID        string
	Theme     string // catalog name
	Daily     string // date key for daily games, empty otherwise
	StartedAt time.Time

	mu         sync.Mutex
	owner      string // user id or anonymous id
	lastActive time.Time
	game       *game.Game[string]
}

// NewSession wraps g with a fresh ID.
func NewSession(g *game.Game[string], ownerID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.NewString(),
		Theme:      g.Theme().Name(),
		StartedAt:  now,
		owner:      ownerID,
		lastActive: now,
		game:       g,
	}
}

// Do runs fn with exclusive access to the session's game and marks the
// session active.
func (s *Session) Do(fn func(g *game.Game[string])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.game)
	s.lastActive = time.Now().UTC()
}

// View is Do for readers: it does not count as activity.
func (s *Session) View(fn func(g *game.Game[string])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.game)
}

// Owner is the user or anonymous id that may play the session.
func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// LastActive is the time of the last Do.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) reassign(from, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != from {
		return false
	}
	s.owner = to
	return true
}

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Sweep drops sessions idle since before cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)

	// Reassign hands every session owned by from over to to (used when a
	// guest signs in) and reports how many moved.
	Reassign(ctx context.Context, from, to string) (int, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memory) Reassign(ctx context.Context, from, to string) (int, error) {
	if from == "" || from == to {
		return 0, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.reassign(from, to) {
			n++
		}
	}
	return n, nil
}
