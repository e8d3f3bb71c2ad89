// Package combat resolves strikes, counterattacks, passive healing and skill
// casts on a live roster. Every operation runs to completion and reports what
// happened as an ordered slice of Events; deaths are events, never callbacks.
package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/board"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// DefaultAutoHeal is the hit points a SAINT restores to each adjacent ally per turn.
const DefaultAutoHeal = 15

// EventKind distinguishes log lines from death notifications.
type EventKind int

const (
	EventLog EventKind = iota
	EventDied
)

// String returns a human-readable kind label.
func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventDied:
		return "died"
	default:
		return "unknown"
	}
}

// Event records one observable outcome of a resolution step.
type Event struct {
	Kind EventKind
	// Text is the combat-log line for EventLog events.
	Text string
	// Source is the faction whose action produced the event.
	Source unit.Faction
	// Unit is the unit that died for EventDied events.
	Unit *unit.Unit
}

// ActiveFaction reports whose turn it currently is.
type ActiveFaction interface {
	Active() unit.Faction
}

// FixedTurn is an ActiveFaction that never changes; useful for previews and tests.
type FixedTurn unit.Faction

// Active returns the fixed faction.
func (f FixedTurn) Active() unit.Faction { return unit.Faction(f) }

// Resolver applies combat rules to one battle's roster.
//
// Invariant: Board, Roster, Catalog and Turn are non-nil for the battle's lifetime.
type Resolver struct {
	Board   board.Board
	Roster  *unit.Roster
	Catalog *skill.Catalog
	Turn    ActiveFaction
	// Player is the human-controlled faction. Its skills are one-shot per
	// battle; the other faction's HERO is always empowered by its first skill.
	Player unit.Faction
	// AutoHeal is the SAINT passive heal amount; 0 uses DefaultAutoHeal.
	AutoHeal int
}

// NewResolver creates a Resolver with the default passive heal amount.
//
// Precondition: roster, catalog and turn must be non-nil.
func NewResolver(b board.Board, roster *unit.Roster, catalog *skill.Catalog, turn ActiveFaction, player unit.Faction) *Resolver {
	return &Resolver{
		Board:    b,
		Roster:   roster,
		Catalog:  catalog,
		Turn:     turn,
		Player:   player,
		AutoHeal: DefaultAutoHeal,
	}
}

// recorder accumulates events for one resolution call.
type recorder struct {
	events []Event
}

func (rec *recorder) logf(src unit.Faction, format string, args ...any) {
	rec.events = append(rec.events, Event{Kind: EventLog, Text: fmt.Sprintf(format, args...), Source: src})
}

func (rec *recorder) died(src unit.Faction, u *unit.Unit) {
	rec.logf(src, "%s has fallen", u.Name)
	rec.events = append(rec.events, Event{Kind: EventDied, Source: src, Unit: u})
}

// statusText is the on-hit suffix describing the struck unit's condition.
func statusText(u *unit.Unit) string {
	if !u.IsAlive() {
		return " (defeated)"
	}
	return fmt.Sprintf(" (%d/%d hp)", u.HP, u.MaxHP())
}

// Move relocates u to p when the board allows it.
//
// Postcondition: returns ok == false and leaves u untouched when the move is illegal.
func (r *Resolver) Move(u *unit.Unit, p grid.Point) (events []Event, ok bool) {
	if !u.IsAlive() || !r.Board.CanMoveTo(u, p, r.Roster) {
		return nil, false
	}
	from := u.Pos
	u.Pos = p
	var rec recorder
	rec.logf(u.Faction, "%s moves from %s to %s", u.Name, from, p)
	return rec.events, true
}

// Leap relocates u along one knight offset into a free in-bounds tile,
// regardless of its class movement rule.
func (r *Resolver) Leap(u *unit.Unit, p grid.Point) (events []Event, ok bool) {
	if !u.IsAlive() || !r.Board.InBounds(p) || r.Board.OccupantAt(r.Roster, p) != nil {
		return nil, false
	}
	dx, dy := grid.Delta(u.Pos, p)
	if !(dx == 1 && dy == 2) && !(dx == 2 && dy == 1) {
		return nil, false
	}
	from := u.Pos
	u.Pos = p
	var rec recorder
	rec.logf(u.Faction, "%s leaps from %s to %s", u.Name, from, p)
	return rec.events, true
}
