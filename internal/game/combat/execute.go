package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// HealOverhealCap is how far above max hp a healing skill may lift a unit.
const HealOverhealCap = 100

// ExecuteSkill casts skill id for caster.
//
// Precondition: caster must be a member of r.Roster.
// Postcondition: nothing happens for a dead caster, or for a player-faction
// caster whose skill is already spent. Otherwise the skill is marked used and
// the caster's reservation is cleared, even if the cast reached no one.
func (r *Resolver) ExecuteSkill(caster *unit.Unit, id string) []Event {
	if !caster.IsAlive() {
		return nil
	}
	if caster.Faction == r.Player && caster.Stat.Used(id) {
		return nil
	}
	var rec recorder
	d, ok := r.Catalog.Get(id)
	if !ok {
		rec.logf(caster.Faction, "%s reaches for %s but nothing happens", caster.Name, id)
		caster.Stat.MarkUsed(id)
		caster.Stat.ClearReservation()
		return rec.events
	}
	r.cast(&rec, caster, id, d)
	return rec.events
}

// cast runs a resolved descriptor and spends it.
func (r *Resolver) cast(rec *recorder, caster *unit.Unit, id string, d skill.Descriptor) {
	defer func() {
		caster.Stat.MarkUsed(id)
		caster.Stat.ClearReservation()
	}()

	if d.SelfShield {
		r.shield(rec, caster, d)
	}

	var targets []*unit.Unit
	switch d.Archetype {
	case skill.ArchetypeSnipe:
		if t := weakest(r.Roster.EnemiesOf(caster)); t != nil {
			targets = append(targets, t)
		}
	case skill.ArchetypeHeal:
		for _, ally := range r.Roster.LivingOf(caster.Faction) {
			if !skill.CheckShape(caster.Pos, ally.Pos, d) {
				continue
			}
			targets = append(targets, ally)
			if !d.AoE {
				break
			}
		}
	case skill.ArchetypeLine:
		for _, e := range r.Roster.EnemiesOf(caster) {
			if !grid.Aligned(caster.Pos, e.Pos) || grid.Manhattan(caster.Pos, e.Pos) > d.Range {
				continue
			}
			targets = append(targets, e)
			if !d.AoE {
				break
			}
		}
	case skill.ArchetypeDamage:
		if t := r.Board.BestTargetInRange(caster, r.Roster); t != nil {
			targets = append(targets, t)
		}
	default:
		for _, e := range r.Roster.EnemiesOf(caster) {
			if !skill.CheckShape(caster.Pos, e.Pos, d) {
				continue
			}
			targets = append(targets, e)
			if !d.AoE {
				break
			}
		}
	}

	if len(targets) == 0 {
		rec.logf(caster.Faction, "%s casts %s but it hits nothing", caster.Name, d.Name)
		return
	}
	for _, t := range targets {
		r.apply(rec, caster, t, d)
	}
}

// apply resolves one skill effect on one target. Skill damage is never countered.
func (r *Resolver) apply(rec *recorder, caster, target *unit.Unit, d skill.Descriptor) {
	if !target.IsAlive() {
		return
	}
	amount := skillDamage(caster, d)
	if d.Heal {
		gained := target.Raise(amount, target.MaxHP()+HealOverhealCap)
		rec.logf(caster.Faction, "%s casts %s on %s, restoring %d hp", caster.Name, d.Name, target.Name, gained)
		return
	}
	amount += d.FlatBonus
	died := target.ApplyDamage(amount)
	rec.logf(caster.Faction, "%s casts %s on %s for %d damage%s", caster.Name, d.Name, target.Name, amount, statusText(target))
	if died {
		rec.died(caster.Faction, target)
	}
}

// shield grants caster a temporary buffer worth a fifth of its max hp.
func (r *Resolver) shield(rec *recorder, caster *unit.Unit, d skill.Descriptor) {
	bonus := caster.MaxHP() / 5
	gained := caster.Raise(bonus, caster.MaxHP()+bonus)
	rec.logf(caster.Faction, "%s raises %s (+%d hp)", caster.Name, d.Name, gained)
}

// weakest returns the lowest-hp unit, keeping the earliest on ties.
func weakest(units []*unit.Unit) *unit.Unit {
	var best *unit.Unit
	for _, u := range units {
		if best == nil || u.HP < best.HP {
			best = u
		}
	}
	return best
}
