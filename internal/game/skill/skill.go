// Package skill is the static catalog of one-shot skills: their power
// multipliers, area shapes and targeting archetypes.
package skill

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Shape is the geometric predicate an area skill uses to pick tiles.
type Shape string

const (
	ShapeNone      Shape = ""
	ShapeLine      Shape = "line"
	ShapeCross     Shape = "cross"
	ShapeSquare    Shape = "square"
	ShapeManhattan Shape = "manhattan"
)

// Archetype selects how a cast chooses its targets. It is authored on the
// descriptor and never derived from the skill's name.
type Archetype string

const (
	// ArchetypeDamage empowers a plain strike with the skill multiplier.
	ArchetypeDamage Archetype = "damage"
	// ArchetypeHeal restores allies matching the shape.
	ArchetypeHeal Archetype = "heal"
	// ArchetypeSnipe hits the living enemy with the lowest hit points anywhere.
	ArchetypeSnipe Archetype = "snipe"
	// ArchetypeLine hits enemies sharing a row or column within range.
	ArchetypeLine Archetype = "line"
	// ArchetypeArea hits enemies matching the shape.
	ArchetypeArea Archetype = "area"
)

// BasicAttackID is the identifier unknown skills resolve to.
const BasicAttackID = "basic_attack"

// Descriptor is the static definition of one skill.
type Descriptor struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Multiplier  float64   `yaml:"multiplier"`
	Shape       Shape     `yaml:"shape"`
	Range       int       `yaml:"range"`
	AoE         bool      `yaml:"aoe"`
	Heal        bool      `yaml:"heal"`
	Archetype   Archetype `yaml:"archetype"`
	// SelfShield grants the caster a temporary hit point shield before the
	// effect resolves.
	SelfShield bool `yaml:"self_shield"`
	// FlatBonus is added to every damage instance the skill deals.
	FlatBonus int `yaml:"flat_bonus"`
	// Leap lets the holder step along knight offsets when the AI moves it.
	Leap bool `yaml:"leap"`
}

// BasicAttack is the harmless fallback descriptor.
var BasicAttack = Descriptor{
	ID:          BasicAttackID,
	Name:        "Basic Attack",
	Description: "An ordinary strike.",
	Multiplier:  1.0,
	Shape:       ShapeNone,
	Archetype:   ArchetypeDamage,
}

// Targeted reports whether casting the skill selects its own targets rather
// than empowering a single strike.
func (d Descriptor) Targeted() bool {
	switch d.Archetype {
	case ArchetypeHeal, ArchetypeSnipe, ArchetypeLine, ArchetypeArea:
		return true
	default:
		return false
	}
}

// Validate checks the descriptor's invariants.
//
// Postcondition: nil iff ID and Name are set, Multiplier >= 0, Range >= 0,
// Shape and Archetype are known, and Heal agrees with the archetype.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return errors.New("skill: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("skill %q: name must not be empty", d.ID)
	}
	if d.Multiplier < 0 {
		return fmt.Errorf("skill %q: multiplier must be >= 0", d.ID)
	}
	if d.Range < 0 {
		return fmt.Errorf("skill %q: range must be >= 0", d.ID)
	}
	switch d.Shape {
	case ShapeNone, ShapeLine, ShapeCross, ShapeSquare, ShapeManhattan:
	default:
		return fmt.Errorf("skill %q: unknown shape %q", d.ID, d.Shape)
	}
	switch d.Archetype {
	case ArchetypeDamage, ArchetypeHeal, ArchetypeSnipe, ArchetypeLine, ArchetypeArea:
	default:
		return fmt.Errorf("skill %q: unknown archetype %q", d.ID, d.Archetype)
	}
	if d.Heal != (d.Archetype == ArchetypeHeal) {
		return fmt.Errorf("skill %q: heal flag requires the heal archetype", d.ID)
	}
	return nil
}

// CheckShape reports whether target lies inside the skill's area around caster.
// CROSS requires a shared row or column within range, SQUARE bounds both axis
// offsets, and every other shape uses Manhattan distance.
func CheckShape(caster, target grid.Point, d Descriptor) bool {
	dx, dy := grid.Delta(caster, target)
	switch d.Shape {
	case ShapeCross:
		return (dx == 0 || dy == 0) && dx+dy <= d.Range
	case ShapeSquare:
		return dx <= d.Range && dy <= d.Range
	default:
		return dx+dy <= d.Range
	}
}
