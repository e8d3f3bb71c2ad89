package stage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library holds every known Stage keyed by ID.
type Library struct {
	stages map[string]*Stage
}

// NewLibrary returns an empty Library.
func NewLibrary() *Library {
	return &Library{stages: make(map[string]*Stage)}
}

// Add validates st and stores it, replacing any stage with the same ID.
func (l *Library) Add(st *Stage) error {
	if err := st.Validate(); err != nil {
		return err
	}
	l.stages[st.ID] = st
	return nil
}

// Get returns the stage with the given ID, or false.
func (l *Library) Get(id string) (*Stage, bool) {
	st, ok := l.stages[id]
	return st, ok
}

// IDs returns every stage ID in sorted order.
func (l *Library) IDs() []string {
	out := make([]string, 0, len(l.stages))
	for id := range l.stages {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// BuiltinLibrary returns a Library holding only Builtin().
func BuiltinLibrary() *Library {
	l := NewLibrary()
	if err := l.Add(Builtin()); err != nil {
		panic(fmt.Sprintf("stage: builtin stage: %v", err))
	}
	return l
}

type yamlStageFile struct {
	Stages []*Stage `yaml:"stages"`
}

// LoadDirectory reads every *.yaml file in dir and returns the builtin
// library extended (or overridden) by the loaded stages.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Library, or an error naming the first file
// that fails to parse or validate.
func LoadDirectory(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stage dir %q: %w", dir, err)
	}
	l := BuiltinLibrary()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var f yamlStageFile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, st := range f.Stages {
			if err := l.Add(st); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return l, nil
}

// Builtin returns the default stage for an 8-wide board.
func Builtin() *Stage {
	return &Stage{
		ID:   BuiltinID,
		Name: "Border Skirmish",
		Player: []Slot{
			{Name: "Shieldbearer", Class: "shield", Column: 1, MaxHP: 450, Attack: 30, Counter: 30, Move: 1, Range: 1, Value: 60},
			{Name: "Bowman", Class: "archer", Column: 2, MaxHP: 200, Attack: 45, Counter: 10, Move: 2, Range: 3, Value: 80},
			{Name: "Lancer", Class: "knight", Column: 3, MaxHP: 350, Attack: 40, Counter: 20, Move: 3, Range: 1, Value: 90},
			{Name: "Charioteer", Class: "chariot", Column: 5, MaxHP: 300, Attack: 50, Counter: 25, Move: 3, Range: 1, Value: 100},
			{Name: "Acolyte", Class: "saint", Column: 6, MaxHP: 180, Attack: 15, Counter: 5, Move: 2, Range: 1, Value: 70},
		},
		Bosses: []Slot{
			{Name: "Bandit Chief", Class: "hero", Column: 4, MaxHP: 600, Attack: 55, Counter: 30, Move: 1, Range: 1, Value: 500, Skills: []string{"power_strike"}},
			{Name: "Dread Knight", Class: "hero", Column: 4, MaxHP: 800, Attack: 65, Counter: 35, Move: 1, Range: 1, Value: 800, Skills: []string{"iron_wall", "leap"}},
			{Name: "Archmage", Class: "hero", Column: 4, MaxHP: 900, Attack: 75, Counter: 30, Move: 1, Range: 2, Value: 1200, Skills: []string{"meteor"}},
		},
		Escorts: []Slot{
			{Name: "Raider", Class: "shield", Column: 1, MaxHP: 400, Attack: 30, Counter: 30, Move: 1, Range: 1, Value: 60},
			{Name: "Slinger", Class: "archer", Column: 2, MaxHP: 180, Attack: 40, Counter: 10, Move: 2, Range: 3, Value: 80},
			{Name: "Outrider", Class: "knight", Column: 3, MaxHP: 320, Attack: 40, Counter: 20, Move: 3, Range: 1, Value: 90},
			{Name: "War Wagon", Class: "chariot", Column: 5, MaxHP: 280, Attack: 45, Counter: 25, Move: 3, Range: 1, Value: 100},
			{Name: "Hedge Priest", Class: "saint", Column: 6, MaxHP: 160, Attack: 15, Counter: 5, Move: 2, Range: 1, Value: 70},
		},
	}
}
