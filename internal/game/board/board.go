// Package board implements the stateless spatial rules of the battle grid:
// occupancy, per-class movement legality, per-class attack reach and target
// ranking. Every predicate reads a live roster snapshot and mutates nothing.
package board

import (
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ChariotReach is the maximum straight-line distance a CHARIOT may drive.
const ChariotReach = 3

// Board is the fixed-size battle grid.
type Board struct {
	Width  int
	Height int
}

// New returns a Board of the given dimensions.
//
// Precondition: width > 0; height > 0.
func New(width, height int) Board {
	return Board{Width: width, Height: height}
}

// InBounds reports whether p lies on the board.
func (b Board) InBounds(p grid.Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// OccupantAt returns the first living unit standing on p, or nil.
func (b Board) OccupantAt(r *unit.Roster, p grid.Point) *unit.Unit {
	for _, u := range r.All() {
		if u.IsAlive() && u.Pos == p {
			return u
		}
	}
	return nil
}

// CanMoveTo reports whether u may move to p: the tile must be on the board,
// free of living units, and reachable under u's class movement rule.
func (b Board) CanMoveTo(u *unit.Unit, p grid.Point, r *unit.Roster) bool {
	if !b.InBounds(p) || b.OccupantAt(r, p) != nil {
		return false
	}
	dx, dy := grid.Delta(u.Pos, p)
	switch u.Class {
	case unit.ClassKnight:
		return (dx == 2 && dy == 1) || (dx == 1 && dy == 2)
	case unit.ClassChariot:
		return (dx == 0 || dy == 0) && dx+dy <= ChariotReach
	case unit.ClassShield, unit.ClassArcher, unit.ClassSaint, unit.ClassHero:
		return dx+dy <= u.Stat.Move
	default:
		return false
	}
}

// CanAttack reports whether attacker can strike target from where it stands.
// Dead, missing and same-faction targets are never reachable.
func (b Board) CanAttack(attacker, target *unit.Unit) bool {
	if attacker == nil || target == nil || !target.IsAlive() || attacker.Faction == target.Faction {
		return false
	}
	dx, dy := grid.Delta(attacker.Pos, target.Pos)
	switch attacker.Class {
	case unit.ClassKnight:
		return dx <= 1 && dy <= 1 && dx+dy > 0
	case unit.ClassArcher:
		return (dx == 0 || dy == 0) && dx+dy <= attacker.Stat.Range
	case unit.ClassShield, unit.ClassChariot, unit.ClassSaint, unit.ClassHero:
		return dx+dy <= attacker.Stat.Range
	default:
		return false
	}
}

// AllTargetsInRange returns every unit attacker can strike, in roster order.
func (b Board) AllTargetsInRange(attacker *unit.Unit, r *unit.Roster) []*unit.Unit {
	var out []*unit.Unit
	for _, u := range r.All() {
		if b.CanAttack(attacker, u) {
			out = append(out, u)
		}
	}
	return out
}

// BestTargetInRange picks the reachable enemy with the smallest Manhattan
// distance, then the lowest current hit points, then the lowest counter-attack
// stat. Returns nil when nothing is reachable.
func (b Board) BestTargetInRange(attacker *unit.Unit, r *unit.Roster) *unit.Unit {
	var best *unit.Unit
	for _, u := range b.AllTargetsInRange(attacker, r) {
		if best == nil || outranks(attacker, u, best) {
			best = u
		}
	}
	return best
}

// outranks reports whether candidate strictly beats current as a target.
func outranks(attacker, candidate, current *unit.Unit) bool {
	cd, bd := grid.Manhattan(attacker.Pos, candidate.Pos), grid.Manhattan(attacker.Pos, current.Pos)
	if cd != bd {
		return cd < bd
	}
	if candidate.HP != current.HP {
		return candidate.HP < current.HP
	}
	return candidate.Stat.Counter < current.Stat.Counter
}
