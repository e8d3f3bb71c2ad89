package skill_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
)

func TestCatalog_LookupUnknownFallsBackToBasicAttack(t *testing.T) {
	c := skill.Builtin()
	d := c.Lookup("no_such_skill")
	assert.Equal(t, skill.BasicAttackID, d.ID)
	assert.Equal(t, 1.0, d.Multiplier)
	assert.Equal(t, skill.ShapeNone, d.Shape)
	assert.False(t, d.Targeted())

	_, ok := c.Get("no_such_skill")
	assert.False(t, ok)
}

func TestCatalog_BuiltinArchetypes(t *testing.T) {
	c := skill.Builtin()
	tests := []struct {
		id        string
		archetype skill.Archetype
		targeted  bool
	}{
		{"power_strike", skill.ArchetypeDamage, false},
		{"judgment", skill.ArchetypeSnipe, true},
		{"holy_light", skill.ArchetypeHeal, true},
		{"piercing_line", skill.ArchetypeLine, true},
		{"meteor", skill.ArchetypeArea, true},
	}
	for _, tc := range tests {
		d, ok := c.Get(tc.id)
		require.True(t, ok, tc.id)
		assert.Equal(t, tc.archetype, d.Archetype, tc.id)
		assert.Equal(t, tc.targeted, d.Targeted(), tc.id)
	}
	meteor := c.Lookup("meteor")
	assert.Equal(t, 20, meteor.FlatBonus)
	assert.True(t, c.Lookup("iron_wall").SelfShield)
	assert.True(t, c.Lookup("leap").Leap)
}

func TestDescriptor_Validate(t *testing.T) {
	valid := skill.Descriptor{ID: "x", Name: "X", Multiplier: 1, Archetype: skill.ArchetypeDamage}
	assert.NoError(t, valid.Validate())

	tests := map[string]func(d *skill.Descriptor){
		"empty id":        func(d *skill.Descriptor) { d.ID = "" },
		"empty name":      func(d *skill.Descriptor) { d.Name = "" },
		"negative mult":   func(d *skill.Descriptor) { d.Multiplier = -1 },
		"negative range":  func(d *skill.Descriptor) { d.Range = -2 },
		"bad shape":       func(d *skill.Descriptor) { d.Shape = "hexagon" },
		"bad archetype":   func(d *skill.Descriptor) { d.Archetype = "summon" },
		"heal mismatched": func(d *skill.Descriptor) { d.Heal = true },
	}
	for name, mutate := range tests {
		d := valid
		mutate(&d)
		assert.Error(t, d.Validate(), name)
	}
}

func TestCheckShape(t *testing.T) {
	origin := grid.Point{X: 3, Y: 3}
	cross := skill.Descriptor{Shape: skill.ShapeCross, Range: 2}
	square := skill.Descriptor{Shape: skill.ShapeSquare, Range: 1}
	manhattan := skill.Descriptor{Shape: skill.ShapeManhattan, Range: 2}

	assert.True(t, skill.CheckShape(origin, grid.Point{X: 3, Y: 5}, cross))
	assert.False(t, skill.CheckShape(origin, grid.Point{X: 4, Y: 4}, cross))
	assert.False(t, skill.CheckShape(origin, grid.Point{X: 6, Y: 3}, cross))

	assert.True(t, skill.CheckShape(origin, grid.Point{X: 4, Y: 4}, square))
	assert.False(t, skill.CheckShape(origin, grid.Point{X: 5, Y: 3}, square))

	assert.True(t, skill.CheckShape(origin, grid.Point{X: 4, Y: 4}, manhattan))
	assert.False(t, skill.CheckShape(origin, grid.Point{X: 5, Y: 4}, manhattan))
}

func TestProperty_CrossIsSubsetOfManhattan(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := rapid.IntRange(0, 5).Draw(rt, "range")
		a := grid.Point{X: rapid.IntRange(0, 9).Draw(rt, "ax"), Y: rapid.IntRange(0, 9).Draw(rt, "ay")}
		b := grid.Point{X: rapid.IntRange(0, 9).Draw(rt, "bx"), Y: rapid.IntRange(0, 9).Draw(rt, "by")}
		if skill.CheckShape(a, b, skill.Descriptor{Shape: skill.ShapeCross, Range: r}) {
			assert.True(rt, skill.CheckShape(a, b, skill.Descriptor{Shape: skill.ShapeManhattan, Range: r}))
			assert.True(rt, skill.CheckShape(a, b, skill.Descriptor{Shape: skill.ShapeSquare, Range: r}))
		}
	})
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	src := `
skills:
  - id: frost_nova
    name: Frost Nova
    description: Freezes nearby enemies.
    multiplier: 1.1
    shape: square
    range: 2
    aoe: true
    archetype: area
  - id: power_strike
    name: Power Strike
    multiplier: 2.5
    archetype: damage
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(src), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	c, err := skill.LoadDirectory(dir)
	require.NoError(t, err)
	nova, ok := c.Get("frost_nova")
	require.True(t, ok)
	assert.Equal(t, skill.ShapeSquare, nova.Shape)
	assert.True(t, nova.AoE)
	assert.Equal(t, 2.5, c.Lookup("power_strike").Multiplier)
	_, ok = c.Get("judgment")
	assert.True(t, ok, "builtin skills remain available")
}

func TestLoadDirectory_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("skills:\n  - id: x\n    name: X\n    colour: red\n"), 0o600))
	_, err := skill.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_RejectsInvalidDescriptor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("skills:\n  - id: x\n    name: X\n    archetype: summon\n"), 0o600))
	_, err := skill.LoadDirectory(dir)
	assert.Error(t, err)
}
