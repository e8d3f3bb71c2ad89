// Package turn tracks whose turn it is and detects the end of a battle.
package turn

import "github.com/cory-johannsen/skirmish/internal/game/unit"

// State is the machine's coarse state.
type State int

const (
	// StateFactionTurn means a faction is acting; see Machine.Active.
	StateFactionTurn State = iota
	// StateGameOver is terminal.
	StateGameOver
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StateFactionTurn:
		return "faction_turn"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Result describes what one EndTurn call did.
type Result struct {
	// Flipped is true when the active faction changed.
	Flipped bool
	// GameOver is true when the battle has ended, on this call or earlier.
	GameOver bool
	// DeadHero is a fallen hero for the death presentation, or any roster
	// member when no dead hero is left to show.
	DeadHero *unit.Unit
	// Winner is meaningful only when GameOver is true.
	Winner unit.Faction
}

// Machine is the turn state machine for one battle.
// It is not safe for concurrent use.
type Machine struct {
	state    State
	active   unit.Faction
	turns    int
	deadHero *unit.Unit
	winner   unit.Faction
}

// New returns a machine where start acts first.
func New(start unit.Faction) *Machine {
	return &Machine{state: StateFactionTurn, active: start, turns: 1}
}

// Active returns the faction whose turn it is, or the last active faction once
// the game is over.
func (m *Machine) Active() unit.Faction { return m.active }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Over reports whether the battle has ended.
func (m *Machine) Over() bool { return m.state == StateGameOver }

// Turn returns the 1-based count of faction turns started so far.
func (m *Machine) Turn() int { return m.turns }

// Winner returns the winning faction once the game is over.
func (m *Machine) Winner() (unit.Faction, bool) {
	return m.winner, m.state == StateGameOver
}

// IsMyTurn reports whether f is the active faction. Meaningless once Over.
func (m *Machine) IsMyTurn(f unit.Faction) bool { return m.active == f }

// EndTurn scans r for fallen heroes and either ends the game or passes the
// turn to the opposing faction.
//
// A faction without a living HERO has lost. If both heroes are down, the
// active faction wins because its action felled the other hero last.
//
// Postcondition: once GameOver is reported, every later call reports the same
// winner and never flips.
func (m *Machine) EndTurn(r *unit.Roster) Result {
	if m.state == StateGameOver {
		return Result{GameOver: true, DeadHero: m.deadHero, Winner: m.winner}
	}

	alive := map[unit.Faction]bool{}
	var dead *unit.Unit
	for _, u := range r.All() {
		if !u.IsHero() {
			continue
		}
		if u.IsAlive() {
			alive[u.Faction] = true
		} else if dead == nil {
			dead = u
		}
	}

	a, b := m.active, m.active.Opponent()
	if alive[a] && alive[b] {
		m.active = b
		m.turns++
		return Result{Flipped: true}
	}

	switch {
	case alive[a]:
		m.winner = a
	case alive[b]:
		m.winner = b
	default:
		m.winner = a
	}
	if dead == nil {
		if all := r.All(); len(all) > 0 {
			dead = all[0]
		}
	}
	m.state = StateGameOver
	m.deadHero = dead
	return Result{GameOver: true, DeadHero: dead, Winner: m.winner}
}
