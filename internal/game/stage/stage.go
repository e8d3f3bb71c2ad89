// Package stage defines battle line-ups and builds the starting roster.
package stage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// BuiltinID is the ID of the stage returned by Builtin.
const BuiltinID = "border_skirmish"

// Slot is one unit template in a stage line-up.
type Slot struct {
	Name    string   `yaml:"name"`
	Class   string   `yaml:"class"`
	Column  int      `yaml:"column"`
	MaxHP   int      `yaml:"max_hp"`
	Attack  int      `yaml:"attack"`
	Counter int      `yaml:"counter"`
	Move    int      `yaml:"move"`
	Range   int      `yaml:"range"`
	Value   int      `yaml:"value"`
	Skills  []string `yaml:"skills"`
}

// Stat builds a fresh stat block from the template.
func (s Slot) Stat() *unit.Stat {
	st := &unit.Stat{
		MaxHP:   s.MaxHP,
		Attack:  s.Attack,
		Counter: s.Counter,
		Move:    s.Move,
		Range:   s.Range,
		Value:   s.Value,
	}
	st.Learn(s.Skills...)
	return st
}

func (s Slot) validate(where string) (unit.Class, error) {
	if s.Name == "" {
		return 0, fmt.Errorf("%s: name must not be empty", where)
	}
	c, err := unit.ParseClass(s.Class)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", where, s.Name, err)
	}
	if s.MaxHP <= 0 {
		return 0, fmt.Errorf("%s %q: max_hp must be > 0", where, s.Name)
	}
	if s.Attack < 0 || s.Counter < 0 || s.Move < 0 || s.Range < 0 || s.Value < 0 {
		return 0, fmt.Errorf("%s %q: stats must be >= 0", where, s.Name)
	}
	if s.Column < 0 {
		return 0, fmt.Errorf("%s %q: column must be >= 0", where, s.Name)
	}
	return c, nil
}

// Stage is a named line-up: the player's soldiers, boss tiers, and escorts.
type Stage struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Player  []Slot `yaml:"player"`
	Bosses  []Slot `yaml:"bosses"`
	Escorts []Slot `yaml:"escorts"`
}

// Validate checks the stage's invariants.
//
// Postcondition: nil iff ID is set, at least one boss exists, every boss is a
// HERO, no soldier is a HERO, and every slot is well formed.
func (s *Stage) Validate() error {
	if s.ID == "" {
		return errors.New("stage: id must not be empty")
	}
	if len(s.Bosses) == 0 {
		return fmt.Errorf("stage %q: at least one boss is required", s.ID)
	}
	for _, b := range s.Bosses {
		c, err := b.validate("stage " + s.ID + " boss")
		if err != nil {
			return err
		}
		if c != unit.ClassHero {
			return fmt.Errorf("stage %q: boss %q must be class hero", s.ID, b.Name)
		}
	}
	for _, group := range []struct {
		label string
		slots []Slot
	}{{"player", s.Player}, {"escort", s.Escorts}} {
		for _, sl := range group.slots {
			c, err := sl.validate("stage " + s.ID + " " + group.label)
			if err != nil {
				return err
			}
			if c == unit.ClassHero {
				return fmt.Errorf("stage %q: %s %q must not be class hero", s.ID, group.label, sl.Name)
			}
		}
	}
	return nil
}

// BossTier returns the boss index used at stageLevel: min(level-1, last), never below 0.
func (s *Stage) BossTier(stageLevel int) int {
	tier := min(stageLevel-1, len(s.Bosses)-1)
	return max(tier, 0)
}

// BeginBattle builds the starting roster for st.
//
// The player's soldiers stand on row 0 at their columns with the hero in the
// centre column; the AI boss and escorts stand on the far row, columns
// mirrored. Every unit gets a fresh uuid. Soldiers built from the same slot
// name share one stat block; heroes get their own.
//
// Precondition: st must be valid; heroStat must be non-nil.
// Postcondition: the roster lists player soldiers, the player hero, the boss,
// then escorts; heroStat's per-battle skill state is reset.
func BeginBattle(st *Stage, stageLevel int, player unit.Faction, heroName string, heroStat *unit.Stat, width, height int) (*unit.Roster, error) {
	if width < 1 || height < 2 {
		return nil, fmt.Errorf("stage %q: board %dx%d too small", st.ID, width, height)
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if heroStat == nil {
		return nil, fmt.Errorf("stage %q: hero stat must not be nil", st.ID)
	}
	heroStat.ResetBattle()

	roster := unit.NewRoster()
	taken := make(map[grid.Point]string)
	shared := make(map[string]*unit.Stat)
	place := func(name string, f unit.Faction, c unit.Class, stat *unit.Stat, p grid.Point) error {
		if p.X < 0 || p.X >= width {
			return fmt.Errorf("stage %q: %s column %d outside board width %d", st.ID, name, p.X, width)
		}
		if other, ok := taken[p]; ok {
			return fmt.Errorf("stage %q: %s and %s both placed at %s", st.ID, other, name, p)
		}
		taken[p] = name
		roster.Add(unit.NewUnit(uuid.NewString(), name, f, c, stat, p))
		return nil
	}
	soldier := func(sl Slot, f unit.Faction, p grid.Point) error {
		stat, ok := shared[sl.Name]
		if !ok {
			stat = sl.Stat()
			shared[sl.Name] = stat
		}
		c, _ := unit.ParseClass(sl.Class)
		return place(sl.Name, f, c, stat, p)
	}

	for _, sl := range st.Player {
		if err := soldier(sl, player, grid.Point{X: sl.Column, Y: 0}); err != nil {
			return nil, err
		}
	}
	if err := place(heroName, player, unit.ClassHero, heroStat, grid.Point{X: width / 2, Y: 0}); err != nil {
		return nil, err
	}

	far := height - 1
	enemy := player.Opponent()
	boss := st.Bosses[st.BossTier(stageLevel)]
	if err := place(boss.Name, enemy, unit.ClassHero, boss.Stat(), grid.Point{X: width - 1 - boss.Column, Y: far}); err != nil {
		return nil, err
	}
	for _, sl := range st.Escorts {
		if err := soldier(sl, enemy, grid.Point{X: width - 1 - sl.Column, Y: far}); err != nil {
			return nil, err
		}
	}
	return roster, nil
}

// HeroStat returns the player hero's base stat block. The plain basic attack
// is its default skill, so power_strike and every unlocked skill can be
// reserved.
func HeroStat(unlocked ...string) *unit.Stat {
	st := &unit.Stat{MaxHP: 500, Attack: 60, Counter: 25, Move: 2, Range: 1}
	st.Learn(skill.BasicAttackID, "power_strike")
	st.Learn(unlocked...)
	return st
}
