package ai

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ErrNoResolver is returned by Step when the Decider has no combat resolver.
var ErrNoResolver = errors.New("ai: decider has no resolver")

// Decision is the best-scoring (actor, target) pair for one turn.
type Decision struct {
	Actor  *unit.Unit
	Target *unit.Unit
	Score  int
	// Attack is true when Actor strikes Target instead of moving toward it.
	Attack bool
}

// Decider runs one AI turn tick against a live battle.
//
// Invariant: Resolver is non-nil before Step is called.
type Decider struct {
	Resolver *combat.Resolver
	Scorer   Scorer
	Logger   *zap.Logger
}

// NewDecider creates a Decider. A nil scorer uses HeuristicScorer and a nil
// logger discards output.
func NewDecider(res *combat.Resolver, scorer Scorer, logger *zap.Logger) *Decider {
	if scorer == nil {
		scorer = HeuristicScorer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decider{Resolver: res, Scorer: scorer, Logger: logger}
}

// Decide scores every living actor of faction f against every living enemy
// and returns the pair with the strictly highest score. Ties keep the first
// pair found in roster order.
//
// Postcondition: ok is false when no pair scores above zero.
func (d *Decider) Decide(f unit.Faction) (best Decision, ok bool) {
	res := d.Resolver
	roster := res.Roster
	ownHero := roster.HeroOf(f)
	found := false
	for _, actor := range roster.LivingOf(f) {
		for _, target := range roster.LivingOf(f.Opponent()) {
			c := Candidate{
				Actor:     actor,
				Target:    target,
				CanAttack: res.Board.CanAttack(actor, target),
				Distance:  grid.Manhattan(actor.Pos, target.Pos),
				OwnHero:   ownHero,
			}
			score := d.Scorer.Score(c)
			if !found || score > best.Score {
				best = Decision{Actor: actor, Target: target, Score: score, Attack: c.CanAttack}
				found = true
			}
		}
	}
	return best, found && best.Score > 0
}

// Step executes faction f's single best action: a strike when the chosen
// actor can reach its target, otherwise one step toward it. It never ends the
// turn; the caller does.
func (d *Decider) Step(f unit.Faction) ([]combat.Event, error) {
	if d.Resolver == nil {
		return nil, ErrNoResolver
	}
	dec, ok := d.Decide(f)
	if !ok {
		d.Logger.Info("ai: no valid target", zap.Stringer("faction", f))
		return nil, nil
	}
	d.Logger.Debug("ai: decision",
		zap.String("actor", dec.Actor.Name),
		zap.String("target", dec.Target.Name),
		zap.Int("score", dec.Score),
		zap.Bool("attack", dec.Attack),
	)
	if dec.Attack {
		return d.Resolver.ResolveAttack(dec.Actor, dec.Target), nil
	}
	return d.approach(dec.Actor, dec.Target), nil
}

// approach moves actor one step closer to target.
func (d *Decider) approach(actor, target *unit.Unit) []combat.Event {
	res := d.Resolver
	if d.canLeap(actor) {
		if p, ok := d.bestOffset(actor, target, func(p grid.Point) bool {
			return res.Board.InBounds(p) && res.Board.OccupantAt(res.Roster, p) == nil
		}); ok {
			events, _ := res.Leap(actor, p)
			return events
		}
	}
	if actor.Class == unit.ClassKnight {
		if p, ok := d.bestOffset(actor, target, func(p grid.Point) bool {
			return res.Board.CanMoveTo(actor, p, res.Roster)
		}); ok {
			events, _ := res.Move(actor, p)
			return events
		}
		return nil
	}

	dx := sign(target.Pos.X - actor.Pos.X)
	dy := sign(target.Pos.Y - actor.Pos.Y)
	if dx != 0 {
		if events, ok := res.Move(actor, actor.Pos.Add(grid.Point{X: dx})); ok {
			return events
		}
	}
	if dy != 0 {
		if events, ok := res.Move(actor, actor.Pos.Add(grid.Point{Y: dy})); ok {
			return events
		}
	}
	return nil
}

// bestOffset returns the allowed knight-offset destination closest to
// target, keeping the first offset on ties.
func (d *Decider) bestOffset(actor, target *unit.Unit, allowed func(grid.Point) bool) (grid.Point, bool) {
	best, bestDist := grid.Point{}, math.MaxInt
	for _, off := range grid.KnightOffsets {
		p := actor.Pos.Add(off)
		if !allowed(p) {
			continue
		}
		if dist := grid.Manhattan(p, target.Pos); dist < bestDist {
			best, bestDist = p, dist
		}
	}
	return best, bestDist != math.MaxInt
}

func (d *Decider) canLeap(u *unit.Unit) bool {
	for _, id := range u.Stat.Skills() {
		if desc, ok := d.Resolver.Catalog.Get(id); ok && desc.Leap {
			return true
		}
	}
	return false
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
