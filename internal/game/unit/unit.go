// Package unit holds the battle entities: factions, unit classes, shared stat
// blocks and the live roster.
package unit

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Faction identifies one of the two sides of a battle.
type Faction int

const (
	FactionPlayer Faction = iota
	FactionEnemy
)

// Opponent returns the other faction.
func (f Faction) Opponent() Faction {
	if f == FactionPlayer {
		return FactionEnemy
	}
	return FactionPlayer
}

// String returns a human-readable faction label.
func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// ParseFaction maps "player" or "enemy" to a Faction.
func ParseFaction(s string) (Faction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player":
		return FactionPlayer, nil
	case "enemy":
		return FactionEnemy, nil
	default:
		return 0, fmt.Errorf("unknown faction %q", s)
	}
}

// Class is the closed set of unit classes. Movement and reach rules switch
// exhaustively over it.
type Class int

const (
	ClassShield Class = iota
	ClassArcher
	ClassKnight
	ClassChariot
	ClassSaint
	ClassHero
)

var classNames = map[Class]string{
	ClassShield:  "SHIELD",
	ClassArcher:  "ARCHER",
	ClassKnight:  "KNIGHT",
	ClassChariot: "CHARIOT",
	ClassSaint:   "SAINT",
	ClassHero:    "HERO",
}

// String returns the upper-case class tag.
func (c Class) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseClass maps a class tag (case-insensitive) to a Class.
func ParseClass(s string) (Class, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for c, name := range classNames {
		if name == want {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown unit class %q", s)
}

// Status is the life status of a unit.
type Status int

const (
	Alive Status = iota
	Dead
)

// Unit is one grid-positioned combatant.
//
// Invariant: 0 <= HP <= Ceiling(); Status == Dead iff HP <= 0 once any damage
// has been applied; Overheal == 0 whenever HP <= Stat.MaxHP.
type Unit struct {
	ID      string
	Name    string
	Faction Faction
	Class   Class
	// Stat may be shared between soldiers generated from the same template.
	Stat   *Stat
	HP     int
	Pos    grid.Point
	Status Status
	// Overheal is the allowance above Stat.MaxHP granted by shields and heal
	// skills. It lasts only while HP stays above Stat.MaxHP.
	Overheal int
}

// NewUnit creates a living unit at full hit points.
//
// Precondition: stat must not be nil.
// Postcondition: HP == stat.MaxHP; Status == Alive.
func NewUnit(id, name string, faction Faction, class Class, stat *Stat, pos grid.Point) *Unit {
	return &Unit{
		ID:      id,
		Name:    name,
		Faction: faction,
		Class:   class,
		Stat:    stat,
		HP:      stat.MaxHP,
		Pos:     pos,
		Status:  Alive,
	}
}

// IsAlive reports whether the unit is alive and has hit points left.
func (u *Unit) IsAlive() bool {
	return u != nil && u.Status == Alive && u.HP > 0
}

// IsHero reports whether the unit is its faction's HERO.
func (u *Unit) IsHero() bool { return u.Class == ClassHero }

// MaxHP returns the stat block's maximum hit points.
func (u *Unit) MaxHP() int { return u.Stat.MaxHP }

// Ceiling returns the current hit point cap including any overheal allowance.
func (u *Unit) Ceiling() int { return u.Stat.MaxHP + u.Overheal }

// Power returns the strike strength: the attack stat during the unit's own
// faction turn, the counter-attack stat otherwise.
func (u *Unit) Power(active Faction) int {
	if u.Faction == active {
		return u.Stat.Attack
	}
	return u.Stat.Counter
}

// ApplyDamage subtracts n hit points, flooring at zero, and reports whether
// the unit died from it. Damage that brings HP back to MaxHP or below spends
// the overheal allowance.
//
// Precondition: n >= 0.
// Postcondition: HP >= 0; died is true iff the unit was alive and HP reached 0.
func (u *Unit) ApplyDamage(n int) (died bool) {
	if !u.IsAlive() {
		return false
	}
	u.HP -= n
	if u.HP <= u.Stat.MaxHP {
		u.Overheal = 0
	}
	if u.HP <= 0 {
		u.Kill()
		return true
	}
	return false
}

// Raise restores up to n hit points without exceeding ceiling, and returns
// the amount actually gained. Raising HP past MaxHP widens the overheal
// allowance to ceiling so the HP invariant keeps holding.
//
// Precondition: n >= 0; ceiling >= 0.
// Postcondition: HP <= Ceiling().
func (u *Unit) Raise(n, ceiling int) int {
	if !u.IsAlive() || n <= 0 {
		return 0
	}
	target := u.HP + n
	if target > ceiling {
		target = ceiling
	}
	if target <= u.HP {
		return 0
	}
	if extra := ceiling - u.Stat.MaxHP; target > u.Stat.MaxHP && extra > u.Overheal {
		u.Overheal = extra
	}
	gained := target - u.HP
	u.HP = target
	return gained
}

// Kill marks the unit dead.
//
// Postcondition: HP == 0; Status == Dead; Overheal == 0.
func (u *Unit) Kill() {
	u.HP = 0
	u.Overheal = 0
	u.Status = Dead
}
