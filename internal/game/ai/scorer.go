// Package ai picks and executes the computer faction's action each turn.
//
// Candidate actions are (actor, target) pairs rated by a pluggable Scorer;
// the Decider executes the single best pair through the combat resolver.
package ai

import (
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Heuristic scoring constants.
const (
	// HeroValue replaces the roster value of an enemy HERO that can be struck now.
	HeroValue = 1000
	// LethalMultiplier scales the score of a strike that would kill.
	LethalMultiplier = 10
	// HeroAdvancePenalty discourages an AI HERO from walking into the fight.
	HeroAdvancePenalty = 500
	// GuardBonus rewards engaging enemies close to the actor's own HERO.
	GuardBonus = 150
	// GuardRadius is the Manhattan distance GuardBonus applies within.
	GuardRadius = 2
)

// Candidate is one (actor, target) pair under consideration.
type Candidate struct {
	Actor  *unit.Unit
	Target *unit.Unit
	// CanAttack is true when Actor can strike Target without moving.
	CanAttack bool
	// Distance is the Manhattan distance between Actor and Target.
	Distance int
	// OwnHero is Actor's faction HERO, or nil.
	OwnHero *unit.Unit
}

// Guarding reports whether Target stands within GuardRadius of a living OwnHero.
func (c Candidate) Guarding() bool {
	return c.OwnHero != nil && c.OwnHero.IsAlive() && grid.Manhattan(c.Target.Pos, c.OwnHero.Pos) <= GuardRadius
}

// Scorer rates a candidate; the highest positive score is acted on.
type Scorer interface {
	Score(c Candidate) int
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(c Candidate) int

// Score calls f(c).
func (f ScorerFunc) Score(c Candidate) int { return f(c) }

// HeuristicScorer is the built-in strategy.
type HeuristicScorer struct{}

// Score rates c: reachable targets by value (an enemy HERO counts as
// HeroValue) with a LethalMultiplier bonus for killing blows; unreachable
// targets by closeness plus a tenth of their value, minus HeroAdvancePenalty
// when the actor is a HERO. Guarding the actor's own HERO adds GuardBonus.
func (HeuristicScorer) Score(c Candidate) int {
	var score int
	if c.CanAttack {
		value := c.Target.Stat.Value
		if c.Target.IsHero() {
			value = HeroValue
		}
		score = value
		if c.Target.HP <= c.Actor.Stat.Attack {
			score *= LethalMultiplier
		}
	} else {
		score = max(0, 10-c.Distance) + c.Target.Stat.Value/10
		if c.Actor.IsHero() {
			score -= HeroAdvancePenalty
		}
	}
	if c.Guarding() {
		score += GuardBonus
	}
	return score
}
