package skill

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds every known Descriptor keyed by ID.
// It is read-only once a battle starts.
type Catalog struct {
	defs map[string]Descriptor
}

// NewCatalog creates a catalog holding only BasicAttack.
func NewCatalog() *Catalog {
	c := &Catalog{defs: make(map[string]Descriptor)}
	c.defs[BasicAttackID] = BasicAttack
	return c
}

// Register validates d and adds it, overwriting any entry with the same ID.
func (c *Catalog) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	c.defs[d.ID] = d
	return nil
}

// Get returns the descriptor for id, or false if it is not registered.
func (c *Catalog) Get(id string) (Descriptor, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// Lookup returns the descriptor for id, falling back to BasicAttack for
// unknown identifiers.
func (c *Catalog) Lookup(id string) Descriptor {
	if d, ok := c.defs[id]; ok {
		return d
	}
	return BasicAttack
}

// All returns every descriptor sorted by ID.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Builtin returns the catalog shipped with the game.
func Builtin() *Catalog {
	c := NewCatalog()
	for _, d := range builtinSkills {
		if err := c.Register(d); err != nil {
			panic(fmt.Sprintf("skill: builtin catalog: %v", err))
		}
	}
	return c
}

var builtinSkills = []Descriptor{
	{ID: "power_strike", Name: "Power Strike", Description: "A heavy blow at 1.8x attack.", Multiplier: 1.8, Archetype: ArchetypeDamage},
	{ID: "judgment", Name: "Judgment", Description: "Strikes the weakest enemy anywhere on the field.", Multiplier: 2.0, Archetype: ArchetypeSnipe},
	{ID: "holy_light", Name: "Holy Light", Description: "Heals every ally within 2 tiles.", Multiplier: 1.0, Shape: ShapeManhattan, Range: 2, AoE: true, Heal: true, Archetype: ArchetypeHeal},
	{ID: "mend", Name: "Mend", Description: "Heals the first ally within 3 tiles.", Multiplier: 1.5, Shape: ShapeManhattan, Range: 3, Heal: true, Archetype: ArchetypeHeal},
	{ID: "piercing_line", Name: "Piercing Line", Description: "Pierces every enemy in a straight line up to 3 tiles.", Multiplier: 1.5, Shape: ShapeLine, Range: 3, AoE: true, Archetype: ArchetypeLine},
	{ID: "cross_blast", Name: "Cross Blast", Description: "Blasts enemies along both axes up to 2 tiles.", Multiplier: 1.3, Shape: ShapeCross, Range: 2, AoE: true, Archetype: ArchetypeArea},
	{ID: "earthquake", Name: "Earthquake", Description: "Shakes every adjacent tile, diagonals included.", Multiplier: 1.0, Shape: ShapeSquare, Range: 1, AoE: true, Archetype: ArchetypeArea},
	{ID: "meteor", Name: "Meteor", Description: "Burns every enemy within 2 tiles for 20 extra damage.", Multiplier: 1.2, Shape: ShapeManhattan, Range: 2, AoE: true, FlatBonus: 20, Archetype: ArchetypeArea},
	{ID: "iron_wall", Name: "Iron Wall", Description: "Raises a shield worth 20% of max hp, then strikes.", Multiplier: 1.0, SelfShield: true, Archetype: ArchetypeDamage},
	{ID: "leap", Name: "Leap", Description: "Bounds across the field like a knight.", Multiplier: 1.0, Leap: true, Archetype: ArchetypeDamage},
}

// yamlCatalogFile wraps the YAML top-level key.
type yamlCatalogFile struct {
	Skills []Descriptor `yaml:"skills"`
}

// LoadDirectory reads every *.yaml file in dir and returns the builtin
// catalog extended (or overridden) by the loaded descriptors.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error naming the first file
// that fails to parse or validate.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	c := Builtin()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var f yamlCatalogFile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, d := range f.Skills {
			if err := c.Register(d); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return c, nil
}
