package battle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/stage"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ErrBattleNotFound is returned when no session has the requested ID.
var ErrBattleNotFound = errors.New("battle not found")

// Manager tracks active sessions.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Start registers a new session over roster under a fresh uuid.
//
// Precondition: roster must not be nil.
func (m *Manager) Start(roster *unit.Roster, player unit.Faction, opts Options) *Session {
	s := NewSession(uuid.NewString(), roster, player, opts)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Begin builds st's roster at stageLevel and starts a session for it.
//
// Precondition: st and heroStat must not be nil.
// Postcondition: returns an error and registers nothing if the roster cannot be built.
func (m *Manager) Begin(st *stage.Stage, stageLevel int, player unit.Faction, heroName string, heroStat *unit.Stat, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	roster, err := stage.BeginBattle(st, stageLevel, player, heroName, heroStat, opts.Board.Width, opts.Board.Height)
	if err != nil {
		return nil, fmt.Errorf("beginning stage %q: %w", st.ID, err)
	}
	return m.Start(roster, player, opts), nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	return s, nil
}

// End removes the session with the given ID.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
