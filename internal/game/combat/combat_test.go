package combat_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/board"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

type statSpec struct {
	hp, atk, counter, move, rng int
}

func mk(id string, f unit.Faction, c unit.Class, s statSpec, x, y int) *unit.Unit {
	st := &unit.Stat{MaxHP: s.hp, Attack: s.atk, Counter: s.counter, Move: s.move, Range: s.rng}
	return unit.NewUnit(id, id, f, c, st, grid.Point{X: x, Y: y})
}

func newResolver(active unit.Faction, units ...*unit.Unit) *combat.Resolver {
	return combat.NewResolver(board.New(8, 8), unit.NewRoster(units...), skill.Builtin(), combat.FixedTurn(active), unit.FactionPlayer)
}

func texts(events []combat.Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Kind == combat.EventLog {
			out = append(out, ev.Text)
		}
	}
	return out
}

func deaths(events []combat.Event) []*unit.Unit {
	var out []*unit.Unit
	for _, ev := range events {
		if ev.Kind == combat.EventDied {
			out = append(out, ev.Unit)
		}
	}
	return out
}

func TestResolveAttack_ArcherOutrangesShield(t *testing.T) {
	archer := mk("archer", unit.FactionPlayer, unit.ClassArcher, statSpec{hp: 200, atk: 45, counter: 20, move: 2, rng: 3}, 2, 2)
	shield := mk("shield", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 450, atk: 30, counter: 30, move: 1, rng: 1}, 2, 5)
	r := newResolver(unit.FactionPlayer, archer, shield)

	events := r.ResolveAttack(archer, shield)

	assert.Equal(t, 405, shield.HP)
	assert.Equal(t, 200, archer.HP, "shield cannot reach back across 3 tiles")
	require.Len(t, events, 1)
	assert.Equal(t, "archer attacks shield for 45 damage (405/450 hp)", events[0].Text)
	assert.Equal(t, unit.FactionPlayer, events[0].Source)
}

func TestResolveAttack_KnightsTradeBlows(t *testing.T) {
	a := mk("a", unit.FactionPlayer, unit.ClassKnight, statSpec{hp: 350, atk: 40, counter: 20, move: 3}, 3, 3)
	d := mk("d", unit.FactionEnemy, unit.ClassKnight, statSpec{hp: 350, atk: 40, counter: 20, move: 3}, 4, 4)
	r := newResolver(unit.FactionPlayer, a, d)

	events := r.ResolveAttack(a, d)

	assert.Equal(t, 310, d.HP)
	assert.Equal(t, 330, a.HP)
	assert.Equal(t, []string{
		"a attacks d for 40 damage (310/350 hp)",
		"d counters a for 20 damage (330/350 hp)",
	}, texts(events))
	assert.Empty(t, deaths(events))
}

func TestResolveAttack_LethalStrikeHasNoCounter(t *testing.T) {
	a := mk("a", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, atk: 50, counter: 10, move: 1, rng: 1}, 0, 0)
	d := mk("d", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 50, atk: 50, counter: 99, move: 1, rng: 1}, 0, 1)
	r := newResolver(unit.FactionPlayer, a, d)

	events := r.ResolveAttack(a, d)

	assert.False(t, d.IsAlive())
	assert.Equal(t, 100, a.HP)
	died := deaths(events)
	require.Len(t, died, 1)
	assert.Same(t, d, died[0])
	assert.Contains(t, texts(events), "d has fallen")
	assert.Contains(t, texts(events)[0], "(defeated)")
}

func TestResolveAttack_CounterCanKillAttacker(t *testing.T) {
	a := mk("a", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 10, atk: 5, counter: 5, move: 1, rng: 1}, 0, 0)
	d := mk("d", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, atk: 5, counter: 30, move: 1, rng: 1}, 1, 0)
	r := newResolver(unit.FactionPlayer, a, d)

	events := r.ResolveAttack(a, d)

	assert.False(t, a.IsAlive())
	died := deaths(events)
	require.Len(t, died, 1)
	assert.Same(t, a, died[0])
	assert.Equal(t, unit.FactionEnemy, events[len(events)-1].Source)
}

func TestResolveAttack_DeadPartyIsNoOp(t *testing.T) {
	a := mk("a", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, atk: 50, counter: 10, move: 1, rng: 1}, 0, 0)
	d := mk("d", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, atk: 50, counter: 10, move: 1, rng: 1}, 0, 1)
	d.Kill()
	r := newResolver(unit.FactionPlayer, a, d)

	assert.Nil(t, r.ResolveAttack(a, d))
	assert.Nil(t, r.ResolveAttack(d, a))
	assert.Equal(t, 100, a.HP)
	assert.Equal(t, 0, d.HP)
}

func TestResolveAttack_UsesCounterStatOffTurn(t *testing.T) {
	a := mk("a", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, atk: 50, counter: 7, move: 1, rng: 1}, 0, 0)
	d := mk("d", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, atk: 50, counter: 10, move: 1, rng: 1}, 0, 1)
	r := newResolver(unit.FactionEnemy, a, d)

	r.ResolveAttack(a, d)

	assert.Equal(t, 93, d.HP)
	assert.Equal(t, 50, a.HP, "defender on its own turn counters with attack")
}

func TestResolveAttack_ReservedDamageSkillEmpowersStrike(t *testing.T) {
	hero := mk("hero", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 300, atk: 50, counter: 10, move: 2, rng: 1}, 0, 0)
	hero.Stat.Learn("mend", "power_strike")
	require.NoError(t, hero.Stat.Reserve("power_strike", true))
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 400, atk: 10, counter: 10, move: 1, rng: 1}, 1, 0)
	r := newResolver(unit.FactionPlayer, hero, foe)

	events := r.ResolveAttack(hero, foe)

	assert.Equal(t, 400-90, foe.HP)
	assert.True(t, hero.Stat.Used("power_strike"))
	_, reserved := hero.Stat.Reserved()
	assert.False(t, reserved)
	assert.Equal(t, "hero attacks foe using Power Strike for 90 damage (310/400 hp)", texts(events)[0])
	assert.Len(t, texts(events), 2, "a strike skill still draws a counter")
}

func TestResolveAttack_ReservedDefaultSkillIsPlainStrike(t *testing.T) {
	hero := mk("hero", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 300, atk: 50, counter: 10, move: 2, rng: 1}, 0, 0)
	hero.Stat.Learn("power_strike")
	require.NoError(t, hero.Stat.Reserve("power_strike", true))
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 400, atk: 10, counter: 10, move: 1, rng: 1}, 1, 0)
	r := newResolver(unit.FactionPlayer, hero, foe)

	r.ResolveAttack(hero, foe)

	assert.Equal(t, 350, foe.HP)
	assert.False(t, hero.Stat.Used("power_strike"))
}

func TestResolveAttack_EnemyHeroAlwaysEmpowered(t *testing.T) {
	hero := mk("boss", unit.FactionEnemy, unit.ClassHero, statSpec{hp: 300, atk: 50, counter: 10, move: 2, rng: 1}, 0, 0)
	hero.Stat.Learn("power_strike")
	foe := mk("foe", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 400, atk: 10, counter: 0, move: 1, rng: 1}, 1, 0)
	r := newResolver(unit.FactionEnemy, hero, foe)

	r.ResolveAttack(hero, foe)
	r.ResolveAttack(hero, foe)

	assert.Equal(t, 400-90-90, foe.HP)
	assert.False(t, hero.Stat.Used("power_strike"), "the empowering skill is never spent")
}

func TestResolveAttack_ReservedTargetedSkillReplacesStrike(t *testing.T) {
	hero := mk("hero", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 300, atk: 40, counter: 10, move: 2, rng: 1}, 0, 0)
	hero.Stat.Learn("power_strike", "judgment")
	require.NoError(t, hero.Stat.Reserve("judgment", true))
	near := mk("near", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 400, atk: 10, counter: 50, move: 1, rng: 1}, 1, 0)
	weak := mk("weak", unit.FactionEnemy, unit.ClassArcher, statSpec{hp: 100, atk: 10, counter: 10, move: 1, rng: 3}, 7, 7)
	r := newResolver(unit.FactionPlayer, hero, near, weak)

	events := r.ResolveAttack(hero, near)

	assert.Equal(t, 400, near.HP)
	assert.Equal(t, 20, weak.HP)
	assert.Equal(t, 300, hero.HP, "skill damage is never countered")
	assert.True(t, hero.Stat.Used("judgment"))
	assert.Equal(t, []string{"hero casts Judgment on weak for 80 damage (20/100 hp)"}, texts(events))
}

func TestExecuteSkill_LineHitsEveryAlignedEnemy(t *testing.T) {
	hero := mk("hero", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 300, atk: 41, counter: 10, move: 2, rng: 1}, 3, 3)
	hero.Stat.Learn("power_strike", "piercing_line")
	e1 := mk("e1", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 200, move: 1, rng: 1}, 3, 1)
	e2 := mk("e2", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 200, move: 1, rng: 1}, 6, 3)
	e3 := mk("e3", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 200, move: 1, rng: 1}, 3, 4)
	off := mk("off", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 200, move: 1, rng: 1}, 4, 4)
	far := mk("far", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 200, move: 1, rng: 1}, 3, 7)
	r := newResolver(unit.FactionPlayer, hero, e1, e2, e3, off, far)

	r.ExecuteSkill(hero, "piercing_line")

	want := 200 - 61 // floor(41*1.5)
	assert.Equal(t, want, e1.HP)
	assert.Equal(t, want, e2.HP)
	assert.Equal(t, want, e3.HP)
	assert.Equal(t, 200, off.HP)
	assert.Equal(t, 200, far.HP)
	assert.True(t, hero.Stat.Used("piercing_line"))
}

func TestExecuteSkill_PlayerSkillIsOneShot(t *testing.T) {
	hero := mk("hero", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 300, atk: 40, move: 2, rng: 1}, 0, 0)
	hero.Stat.Learn("power_strike", "judgment")
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 400, move: 1, rng: 1}, 5, 5)
	r := newResolver(unit.FactionPlayer, hero, foe)

	first := r.ExecuteSkill(hero, "judgment")
	second := r.ExecuteSkill(hero, "judgment")

	assert.NotEmpty(t, first)
	assert.Nil(t, second)
	assert.Equal(t, 320, foe.HP)
}

func TestExecuteSkill_EnemyMayRecast(t *testing.T) {
	hero := mk("boss", unit.FactionEnemy, unit.ClassHero, statSpec{hp: 300, atk: 40, move: 2, rng: 1}, 0, 0)
	hero.Stat.Learn("judgment")
	foe := mk("foe", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 400, move: 1, rng: 1}, 5, 5)
	r := newResolver(unit.FactionEnemy, hero, foe)

	r.ExecuteSkill(hero, "judgment")
	r.ExecuteSkill(hero, "judgment")

	assert.Equal(t, 240, foe.HP)
}

func TestExecuteSkill_HealOverhealsUpToCap(t *testing.T) {
	saint := mk("saint", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 80, move: 1, rng: 1}, 2, 2)
	saint.Stat.Learn("holy_light")
	ally := mk("ally", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 2, 4)
	outside := mk("outside", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 6, 6)
	outside.HP = 50
	r := newResolver(unit.FactionPlayer, saint, ally, outside)

	r.ExecuteSkill(saint, "holy_light")
	assert.Equal(t, 180, ally.HP)
	assert.Equal(t, 50, outside.HP)

	saint.Stat.ResetBattle()
	r.ExecuteSkill(saint, "holy_light")
	assert.Equal(t, 200, ally.HP, "capped at max hp + 100")
	assert.LessOrEqual(t, ally.HP, ally.Ceiling())
}

func TestExecuteSkill_SingleHealStopsAtFirstAlly(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 20, move: 1, rng: 1}, 0, 0)
	caster.Stat.Learn("mend")
	a := mk("a", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 0, 1)
	b := mk("b", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 1, 0)
	a.HP, b.HP = 10, 10
	r := newResolver(unit.FactionPlayer, a, b, caster)

	r.ExecuteSkill(caster, "mend")

	assert.Equal(t, 40, a.HP)
	assert.Equal(t, 10, b.HP)
}

func TestExecuteSkill_FlatBonusAndShape(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 50, move: 1, rng: 1}, 4, 4)
	caster.Stat.Learn("meteor", "earthquake")
	near := mk("near", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 5, 5)
	far := mk("far", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 6, 6)
	r := newResolver(unit.FactionPlayer, caster, near, far)

	r.ExecuteSkill(caster, "meteor")
	assert.Equal(t, 300-80, near.HP) // floor(50*1.2)+20
	assert.Equal(t, 300, far.HP)

	r.ExecuteSkill(caster, "earthquake")
	assert.Equal(t, 300-80-50, near.HP)
	assert.Equal(t, 300, far.HP)
}

func TestExecuteSkill_NothingInRangeStillSpendsSkill(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 50, move: 1, rng: 1}, 0, 0)
	caster.Stat.Learn("power_strike", "cross_blast")
	require.NoError(t, caster.Stat.Reserve("cross_blast", true))
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 7, 7)
	r := newResolver(unit.FactionPlayer, caster, foe)

	events := r.ExecuteSkill(caster, "cross_blast")

	assert.Equal(t, []string{"caster casts Cross Blast but it hits nothing"}, texts(events))
	assert.True(t, caster.Stat.Used("cross_blast"))
	_, reserved := caster.Stat.Reserved()
	assert.False(t, reserved)
}

func TestExecuteSkill_DamageSkillHitsBestTargetInReach(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 50, move: 1, rng: 1}, 3, 3)
	caster.Stat.Learn("basic_attack", "power_strike")
	sturdy := mk("sturdy", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 4, 3)
	weak := mk("weak", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 200, move: 1, rng: 1}, 3, 4)
	far := mk("far", unit.FactionEnemy, unit.ClassArcher, statSpec{hp: 50, move: 1, rng: 1}, 7, 7)
	r := newResolver(unit.FactionPlayer, caster, sturdy, weak, far)

	events := r.ExecuteSkill(caster, "power_strike")

	assert.Equal(t, []string{"caster casts Power Strike on weak for 90 damage (110/200 hp)"}, texts(events))
	assert.Equal(t, 300, sturdy.HP)
	assert.Equal(t, 50, far.HP, "the weakest enemy out of reach is ignored")
	assert.True(t, caster.Stat.Used("power_strike"))

	caster.Pos = grid.Point{X: 0, Y: 7}
	caster.Stat.ResetBattle()
	events = r.ExecuteSkill(caster, "power_strike")
	assert.Equal(t, []string{"caster casts Power Strike but it hits nothing"}, texts(events))
}

func TestExecuteSkill_UnknownSkill(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 50, move: 1, rng: 1}, 0, 0)
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 0, 1)
	r := newResolver(unit.FactionPlayer, caster, foe)

	events := r.ExecuteSkill(caster, "no_such_skill")

	assert.Equal(t, 300, foe.HP)
	require.Len(t, events, 1)
	assert.True(t, strings.Contains(events[0].Text, "nothing happens"))
}

func TestExecuteSkill_SelfShield(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 50, move: 1, rng: 1}, 0, 0)
	caster.Stat.Learn("iron_wall")
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 0, 1)
	r := newResolver(unit.FactionPlayer, caster, foe)

	events := r.ExecuteSkill(caster, "iron_wall")

	assert.Equal(t, 240, caster.HP)
	assert.Equal(t, 250, foe.HP)
	assert.Equal(t, "caster raises Iron Wall (+40 hp)", texts(events)[0])
}

func TestExecuteSkill_DeadCasterIsNoOp(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 50, move: 1, rng: 1}, 0, 0)
	caster.Stat.Learn("judgment")
	caster.Kill()
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 0, 1)
	r := newResolver(unit.FactionPlayer, caster, foe)

	assert.Nil(t, r.ExecuteSkill(caster, "judgment"))
	assert.False(t, caster.Stat.Used("judgment"))
}

func TestResolveAutoHeal_AdjacentOnlyAndCapped(t *testing.T) {
	saint := mk("saint", unit.FactionPlayer, unit.ClassSaint, statSpec{hp: 150, move: 1, rng: 1}, 3, 3)
	adj := mk("adj", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 3, 4)
	nearlyFull := mk("nearly", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 2, 3)
	diag := mk("diag", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 4, 4)
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 3, 2)
	adj.HP, nearlyFull.HP, diag.HP, foe.HP = 50, 95, 50, 50
	r := newResolver(unit.FactionPlayer, saint, adj, nearlyFull, diag, foe)

	events := r.ResolveAutoHeal(unit.FactionPlayer)

	assert.Equal(t, 65, adj.HP)
	assert.Equal(t, 100, nearlyFull.HP)
	assert.Equal(t, 50, diag.HP)
	assert.Equal(t, 50, foe.HP)
	assert.Equal(t, []string{"saint heals adj for 15 hp", "saint heals nearly for 5 hp"}, texts(events))
}

func TestResolveAutoAttackPhase_KnightHitsAll(t *testing.T) {
	k := mk("k", unit.FactionPlayer, unit.ClassKnight, statSpec{hp: 350, atk: 40, counter: 20, move: 3}, 3, 3)
	e1 := mk("e1", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, counter: 10, move: 1, rng: 1}, 3, 4)
	e2 := mk("e2", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, counter: 10, move: 1, rng: 1}, 2, 2)
	e3 := mk("e3", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, counter: 10, move: 1, rng: 1}, 6, 6)
	r := newResolver(unit.FactionPlayer, k, e1, e2, e3)

	r.ResolveAutoAttackPhase(unit.FactionPlayer)

	assert.Equal(t, 60, e1.HP)
	assert.Equal(t, 60, e2.HP)
	assert.Equal(t, 100, e3.HP)
	assert.Equal(t, 350-10, k.HP, "only the orthogonal shield reaches back")
}

func TestResolveAutoAttackPhase_HeroCastsReservedTargetedSkill(t *testing.T) {
	hero := mk("hero", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 300, atk: 40, move: 2, rng: 1}, 0, 0)
	hero.Stat.Learn("power_strike", "judgment")
	require.NoError(t, hero.Stat.Reserve("judgment", true))
	foe := mk("foe", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 400, move: 1, rng: 1}, 7, 7)
	r := newResolver(unit.FactionPlayer, hero, foe)

	r.ResolveAutoAttackPhase(unit.FactionPlayer)

	assert.Equal(t, 320, foe.HP)
	assert.True(t, hero.Stat.Used("judgment"))
}

func TestResolveAutoAttackPhase_EndsWithHeal(t *testing.T) {
	saint := mk("saint", unit.FactionPlayer, unit.ClassSaint, statSpec{hp: 150, atk: 10, move: 1, rng: 1}, 0, 0)
	ally := mk("ally", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 0, 1)
	ally.HP = 30
	r := newResolver(unit.FactionPlayer, saint, ally)

	events := r.ResolveAutoAttackPhase(unit.FactionPlayer)

	assert.Equal(t, 45, ally.HP)
	assert.Equal(t, []string{"saint heals ally for 15 hp"}, texts(events))
}

func TestMove(t *testing.T) {
	s := mk("s", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 2, rng: 1}, 0, 0)
	r := newResolver(unit.FactionPlayer, s)

	_, ok := r.Move(s, grid.Point{X: 5, Y: 5})
	assert.False(t, ok)
	assert.Equal(t, grid.Point{}, s.Pos)

	events, ok := r.Move(s, grid.Point{X: 1, Y: 1})
	require.True(t, ok)
	assert.Equal(t, grid.Point{X: 1, Y: 1}, s.Pos)
	assert.Equal(t, []string{"s moves from (0,0) to (1,1)"}, texts(events))
}

func TestResolveAttack_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		atk := rapid.IntRange(0, 500).Draw(rt, "atk")
		counter := rapid.IntRange(0, 500).Draw(rt, "counter")
		hpA := rapid.IntRange(1, 500).Draw(rt, "hpA")
		hpD := rapid.IntRange(1, 500).Draw(rt, "hpD")
		a := mk("a", unit.FactionPlayer, unit.ClassKnight, statSpec{hp: hpA, atk: atk, counter: counter, move: 3}, 3, 3)
		d := mk("d", unit.FactionEnemy, unit.ClassKnight, statSpec{hp: hpD, atk: atk, counter: counter, move: 3}, 4, 3)
		r := newResolver(unit.FactionPlayer, a, d)

		events := r.ResolveAttack(a, d)

		if d.HP < 0 || a.HP < 0 {
			rt.Fatalf("negative hp: a=%d d=%d", a.HP, d.HP)
		}
		if !d.IsAlive() && a.HP != hpA {
			rt.Fatalf("dead defender countered")
		}
		if len(deaths(events)) > 1 {
			rt.Fatalf("at most one death per strike, got %d", len(deaths(events)))
		}
		if again := r.ResolveAttack(a, d); (!a.IsAlive() || !d.IsAlive()) && again != nil {
			rt.Fatalf("attack involving a dead unit produced events")
		}
	})
}

func TestExecuteSkill_SingleTargetAreaStopsAtFirst(t *testing.T) {
	caster := mk("caster", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 200, atk: 50, move: 1, rng: 1}, 4, 4)
	cat := skill.Builtin()
	require.NoError(t, cat.Register(skill.Descriptor{ID: "bolt", Name: "Bolt", Multiplier: 1.0, Shape: skill.ShapeManhattan, Range: 3, Archetype: skill.ArchetypeArea}))
	caster.Stat.Learn("bolt")
	a := mk("a", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 4, 6)
	b := mk("b", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 300, move: 1, rng: 1}, 4, 5)
	r := combat.NewResolver(board.New(8, 8), unit.NewRoster(caster, a, b), cat, combat.FixedTurn(unit.FactionPlayer), unit.FactionPlayer)

	r.ExecuteSkill(caster, "bolt")

	assert.Equal(t, 250, a.HP, "roster order, not distance, picks the single target")
	assert.Equal(t, 300, b.HP)
}

func TestLeap(t *testing.T) {
	s := mk("s", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 0, 0)
	blocker := mk("b", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, move: 1, rng: 1}, 2, 1)
	r := newResolver(unit.FactionPlayer, s, blocker)

	_, ok := r.Leap(s, grid.Point{X: 2, Y: 1})
	assert.False(t, ok, "occupied")
	_, ok = r.Leap(s, grid.Point{X: 1, Y: 1})
	assert.False(t, ok, "not an L")
	_, ok = r.Leap(s, grid.Point{X: -1, Y: 2})
	assert.False(t, ok, "off board")

	events, ok := r.Leap(s, grid.Point{X: 1, Y: 2})
	require.True(t, ok)
	assert.Equal(t, grid.Point{X: 1, Y: 2}, s.Pos)
	assert.Equal(t, []string{"s leaps from (0,0) to (1,2)"}, texts(events))
}
