package ai

import (
	"fmt"
	"sort"
)

// HeuristicStrategy is the registry name of HeuristicScorer.
const HeuristicStrategy = "heuristic"

// Registry indexes Scorers by strategy name.
//
// Invariant: each strategy name is registered at most once.
type Registry struct {
	scorers map[string]Scorer
}

// NewRegistry returns a Registry holding only the built-in heuristic strategy.
func NewRegistry() *Registry {
	return &Registry{scorers: map[string]Scorer{HeuristicStrategy: HeuristicScorer{}}}
}

// Register stores scorer under name.
//
// Precondition: scorer must not be nil.
// Postcondition: returns error on name collision.
func (r *Registry) Register(name string, scorer Scorer) error {
	if scorer == nil {
		return fmt.Errorf("ai.Registry: scorer for %q must not be nil", name)
	}
	if _, exists := r.scorers[name]; exists {
		return fmt.Errorf("ai.Registry: strategy %q already registered", name)
	}
	r.scorers[name] = scorer
	return nil
}

// ScorerFor returns the Scorer for name, or false if not registered.
func (r *Registry) ScorerFor(name string) (Scorer, bool) {
	s, ok := r.scorers[name]
	return s, ok
}

// Names returns every registered strategy name in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.scorers))
	for k := range r.scorers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
