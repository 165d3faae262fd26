// internal/store/memory.go
//
// In-memory session store for running games.
//
// Characteristics:
//   - Stores *Session values (engine + owner metadata) keyed by game ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Guest sessions can be adopted by a player who logs in mid-game.
//   - Idle sessions are swept; state is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/guesstheflag/internal/quiz"
)

// ErrNotFound is returned by Get for unknown game IDs.
var ErrNotFound = errors.New("not found")

// Game modes.
const (
	ModeNormal = "normal"
	ModeDaily  = "daily"
)

// Session is a running game plus who plays it.
type Session struct {
	Engine *quiz.Engine
	Mode   string
	Date   string // daily mode only: YYYY-MM-DD

	mu       sync.Mutex
	playerID string // registered player, empty for guests
	anonID   string // guest cookie, kept after adoption
	recordID string // history row of the current run
	lastSeen time.Time
}

// NewSession wraps e for its owner: playerID for registered players,
// otherwise the guest's anonID.
func NewSession(e *quiz.Engine, mode, playerID, anonID, date string) *Session {
	return &Session{
		Engine:   e,
		Mode:     mode,
		Date:     date,
		playerID: playerID,
		anonID:   anonID,
		lastSeen: time.Now(),
	}
}

// ID returns the game ID.
func (s *Session) ID() string { return s.Engine.ID() }

// Owner returns the session's player ID (empty for guests) and anon ID.
func (s *Session) Owner() (playerID, anonID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID, s.anonID
}

// OwnedBy reports whether the requester owns the session. Player sessions
// match on player ID, guest sessions on the anon cookie.
func (s *Session) OwnedBy(playerID, anonID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID != "" {
		return s.playerID == playerID
	}
	return anonID != "" && s.anonID == anonID
}

// OwnerKey is the identity used for daily results: player ID or anon ID.
func (s *Session) OwnerKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID != "" {
		return s.playerID
	}
	return s.anonID
}

// adopt hands a guest session to playerID. Player sessions are left alone.
func (s *Session) adopt(anonID, playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID != "" || s.anonID != anonID {
		return false
	}
	s.playerID = playerID
	return true
}

// Touch marks the session as used at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.lastSeen = t
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// RecordID returns the history row of the current run.
func (s *Session) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

// SetRecordID replaces the history row and returns the previous one.
func (s *Session) SetRecordID(id string) (prev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, s.recordID = s.recordID, id
	return prev
}

// Store defines the persistence interface for running sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by game ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// AdoptGuest gives every guest session of anonID to playerID and
	// returns the adopted sessions.
	AdoptGuest(ctx context.Context, anonID, playerID string) ([]*Session, error)

	// Sweep deletes sessions not used since cutoff and returns their IDs.
	Sweep(ctx context.Context, cutoff time.Time) []string

	// Len reports the number of sessions.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex        // guards sessions map
	sessions map[string]*Session // keyed by game ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		s.Touch(time.Now())
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

func (m *memory) AdoptGuest(ctx context.Context, anonID, playerID string) ([]*Session, error) {
	if anonID == "" || playerID == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.adopt(anonID, playerID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var gone []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			gone = append(gone, id)
		}
	}
	return gone
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
