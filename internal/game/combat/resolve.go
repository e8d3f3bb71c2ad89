package combat

import (
	"math"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ResolveAttack applies one strike from attacker to target and, if target
// survives and can reach back, its counterattack.
//
// A HERO holding a reserved non-default skill spends it: damage skills
// multiply the strike, targeted skills replace the strike with a cast. A
// non-player HERO is always empowered by its first learned skill.
//
// Precondition: attacker and target must be members of r.Roster.
// Postcondition: returns nil and changes nothing when either party is already dead.
func (r *Resolver) ResolveAttack(attacker, target *unit.Unit) []Event {
	if !attacker.IsAlive() || !target.IsAlive() {
		return nil
	}
	var rec recorder
	r.strike(&rec, attacker, target)
	return rec.events
}

func (r *Resolver) strike(rec *recorder, attacker, target *unit.Unit) {
	active := r.Turn.Active()
	base := attacker.Power(active)
	mult := 1.0
	using := ""

	if attacker.IsHero() {
		if id, ok := attacker.Stat.Reserved(); ok && id != attacker.Stat.DefaultSkill() {
			d := r.Catalog.Lookup(id)
			if d.Targeted() {
				r.cast(rec, attacker, id, d)
				return
			}
			attacker.Stat.ClearReservation()
			attacker.Stat.MarkUsed(id)
			if d.SelfShield {
				r.shield(rec, attacker, d)
			}
			mult = d.Multiplier
			using = d.Name
		} else {
			attacker.Stat.ClearReservation()
			if attacker.Faction != r.Player {
				if def := attacker.Stat.DefaultSkill(); def != "" {
					d := r.Catalog.Lookup(def)
					mult = d.Multiplier
					using = d.Name
				}
			}
		}
	}

	dmg := int(math.Floor(float64(base) * mult))
	died := target.ApplyDamage(dmg)
	if using != "" {
		rec.logf(attacker.Faction, "%s attacks %s using %s for %d damage%s", attacker.Name, target.Name, using, dmg, statusText(target))
	} else {
		rec.logf(attacker.Faction, "%s attacks %s for %d damage%s", attacker.Name, target.Name, dmg, statusText(target))
	}
	if died {
		rec.died(attacker.Faction, target)
		return
	}

	if !r.Board.CanAttack(target, attacker) {
		return
	}
	counter := target.Power(active)
	attackerDied := attacker.ApplyDamage(counter)
	rec.logf(target.Faction, "%s counters %s for %d damage%s", target.Name, attacker.Name, counter, statusText(attacker))
	if attackerDied {
		rec.died(target.Faction, attacker)
	}
}

// ResolveAutoHeal lets every living SAINT of faction restore AutoHeal hit
// points to each wounded ally standing exactly one tile away, capped at max hp.
func (r *Resolver) ResolveAutoHeal(faction unit.Faction) []Event {
	amount := r.AutoHeal
	if amount <= 0 {
		amount = DefaultAutoHeal
	}
	var rec recorder
	allies := r.Roster.LivingOf(faction)
	for _, saint := range allies {
		if saint.Class != unit.ClassSaint || !saint.IsAlive() {
			continue
		}
		for _, ally := range allies {
			if ally == saint || !ally.IsAlive() || ally.HP >= ally.MaxHP() {
				continue
			}
			if grid.Manhattan(saint.Pos, ally.Pos) != 1 {
				continue
			}
			if gained := ally.Raise(amount, ally.MaxHP()); gained > 0 {
				rec.logf(faction, "%s heals %s for %d hp", saint.Name, ally.Name, gained)
			}
		}
	}
	return rec.events
}

// ResolveAutoAttackPhase runs every living unit of faction through its
// automatic action: KNIGHTs strike every reachable enemy, everyone else
// strikes the best-ranked reachable enemy, and a HERO holding a targeted
// skill casts it. The passive SAINT heal follows.
func (r *Resolver) ResolveAutoAttackPhase(faction unit.Faction) []Event {
	var rec recorder
	for _, u := range r.Roster.LivingOf(faction) {
		if !u.IsAlive() {
			continue
		}
		if u.IsHero() {
			if id, ok := u.Stat.Reserved(); ok && id != u.Stat.DefaultSkill() {
				if d := r.Catalog.Lookup(id); d.Targeted() {
					r.cast(&rec, u, id, d)
					continue
				}
			}
		}
		if u.Class == unit.ClassKnight {
			for _, t := range r.Board.AllTargetsInRange(u, r.Roster) {
				if !u.IsAlive() {
					break
				}
				if t.IsAlive() {
					r.strike(&rec, u, t)
				}
			}
			continue
		}
		if t := r.Board.BestTargetInRange(u, r.Roster); t != nil {
			r.strike(&rec, u, t)
		}
	}
	rec.events = append(rec.events, r.ResolveAutoHeal(faction)...)
	return rec.events
}

// skillDamage is the raw effect size of d when cast by caster.
func skillDamage(caster *unit.Unit, d skill.Descriptor) int {
	return int(math.Floor(float64(caster.Stat.Attack) * d.Multiplier))
}
