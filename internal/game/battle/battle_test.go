package battle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stage"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

type statSpec struct {
	hp, atk, counter, move, rng, value int
}

func mk(id string, f unit.Faction, c unit.Class, s statSpec, x, y int) *unit.Unit {
	st := &unit.Stat{MaxHP: s.hp, Attack: s.atk, Counter: s.counter, Move: s.move, Range: s.rng, Value: s.value}
	return unit.NewUnit(id, id, f, c, st, grid.Point{X: x, Y: y})
}

type recorder struct {
	logs     []string
	sources  []unit.Faction
	died     []*unit.Unit
	gameOver []bool
}

func (r *recorder) OnCombatLog(text string, src unit.Faction) {
	r.logs = append(r.logs, text)
	r.sources = append(r.sources, src)
}
func (r *recorder) OnUnitDied(u *unit.Unit) { r.died = append(r.died, u) }
func (r *recorder) OnGameOver(v bool)       { r.gameOver = append(r.gameOver, v) }

type fixture struct {
	s       *battle.Session
	rec     *recorder
	logs    *observer.ObservedLogs
	hero    *unit.Unit
	soldier *unit.Unit
	boss    *unit.Unit
	escort  *unit.Unit
}

func newFixture(t *testing.T, opts battle.Options) *fixture {
	t.Helper()
	f := &fixture{
		rec:     &recorder{},
		hero:    mk("hero", unit.FactionPlayer, unit.ClassHero, statSpec{hp: 100, atk: 10, move: 2, rng: 1}, 0, 0),
		soldier: mk("soldier", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, atk: 10, move: 1, rng: 1, value: 100}, 1, 0),
		boss:    mk("boss", unit.FactionEnemy, unit.ClassHero, statSpec{hp: 100, atk: 10, move: 1, rng: 1}, 7, 7),
		escort:  mk("escort", unit.FactionEnemy, unit.ClassShield, statSpec{hp: 100, atk: 10, move: 1, rng: 1}, 7, 6),
	}
	core, logs := observer.New(zap.DebugLevel)
	f.logs = logs
	opts.Logger = zap.New(core)
	opts.Listener = f.rec
	roster := unit.NewRoster(f.hero, f.soldier, f.boss, f.escort)
	f.s = battle.NewSession("b1", roster, unit.FactionPlayer, opts)
	return f
}

func TestRequestMove(t *testing.T) {
	f := newFixture(t, battle.Options{})

	require.NoError(t, f.s.RequestMove(f.soldier, 1, 1))
	assert.Equal(t, grid.Point{X: 1, Y: 1}, f.soldier.Pos)
	assert.Equal(t, []string{"soldier moves from (1,0) to (1,1)"}, f.rec.logs)
	assert.True(t, f.s.HasMoved(f.soldier))

	assert.ErrorIs(t, f.s.RequestMove(f.soldier, 1, 2), battle.ErrAlreadyMoved)
	assert.ErrorIs(t, f.s.RequestMove(f.hero, 5, 5), battle.ErrIllegalMove)
	assert.Equal(t, grid.Point{}, f.hero.Pos)
	assert.ErrorIs(t, f.s.RequestMove(f.escort, 7, 5), battle.ErrNotYourTurn)
	stranger := mk("stranger", unit.FactionPlayer, unit.ClassShield, statSpec{hp: 100, move: 1}, 4, 4)
	assert.ErrorIs(t, f.s.RequestMove(stranger, 4, 5), battle.ErrUnitNotFound)
	assert.ErrorIs(t, f.s.RequestMove(nil, 4, 5), battle.ErrUnitNotFound)

	assert.Equal(t, 5, f.logs.FilterMessage("battle: intent rejected").Len())
}

func TestReserveSkill(t *testing.T) {
	f := newFixture(t, battle.Options{})
	f.hero.Stat.Learn(skill.BasicAttackID, "power_strike", "judgment")

	assert.ErrorIs(t, f.s.ReserveSkill(f.hero, skill.BasicAttackID), battle.ErrDefaultSkill)
	_, ok := f.hero.Stat.Reserved()
	assert.False(t, ok)
	assert.ErrorIs(t, f.s.ReserveSkill(f.soldier, "judgment"), battle.ErrNotHero)
	assert.ErrorIs(t, f.s.ReserveSkill(f.hero, "meteor"), unit.ErrSkillNotLearned)
	require.NoError(t, f.s.ReserveSkill(f.hero, "judgment"))
	id, ok := f.hero.Stat.Reserved()
	assert.True(t, ok)
	assert.Equal(t, "judgment", id)

	f.hero.Stat.MarkUsed("power_strike")
	assert.ErrorIs(t, f.s.ReserveSkill(f.hero, "power_strike"), unit.ErrSkillUsed)
	id, _ = f.hero.Stat.Reserved()
	assert.Equal(t, "judgment", id, "failed reservation keeps the previous one")
}

func TestReservedPowerStrikeEmpowersShippedHero(t *testing.T) {
	f := newFixture(t, battle.Options{})
	f.hero.Stat = stage.HeroStat()
	f.hero.HP = f.hero.Stat.MaxHP
	f.escort.Pos = grid.Point{X: 0, Y: 1}
	f.escort.Stat.MaxHP = 1000
	f.escort.HP = 1000

	require.NoError(t, f.s.ReserveSkill(f.hero, "power_strike"))
	require.NoError(t, f.s.ConfirmTurnEnd())

	assert.Equal(t, 1000-108, f.escort.HP, "60 attack x 1.8")
	assert.True(t, f.hero.Stat.Used("power_strike"))

	require.NoError(t, f.s.RunAITurn())
	assert.ErrorIs(t, f.s.ReserveSkill(f.hero, "power_strike"), unit.ErrSkillUsed)
}

func TestCastSkill(t *testing.T) {
	f := newFixture(t, battle.Options{})
	f.hero.Stat.Learn("power_strike", "judgment")

	require.NoError(t, f.s.CastSkill(f.hero, "judgment"))
	assert.Equal(t, 80, f.boss.HP, "judgment picks the weakest enemy; ties keep roster order")
	assert.ErrorIs(t, f.s.CastSkill(f.hero, "judgment"), unit.ErrSkillUsed)
	assert.ErrorIs(t, f.s.CastSkill(f.hero, "meteor"), unit.ErrSkillNotLearned)
	assert.ErrorIs(t, f.s.CastSkill(f.soldier, "judgment"), battle.ErrNotHero)
}

func TestTurnCycle(t *testing.T) {
	f := newFixture(t, battle.Options{})
	require.NoError(t, f.s.RequestMove(f.soldier, 1, 1))

	require.NoError(t, f.s.ConfirmTurnEnd())
	assert.True(t, f.s.Turn.IsMyTurn(unit.FactionEnemy))
	assert.ErrorIs(t, f.s.RequestMove(f.hero, 0, 1), battle.ErrNotYourTurn)
	assert.ErrorIs(t, f.s.ConfirmTurnEnd(), battle.ErrNotYourTurn)

	require.NoError(t, f.s.RunAITurn())
	assert.Equal(t, grid.Point{X: 6, Y: 6}, f.escort.Pos, "escort steps toward the valuable soldier along x")
	assert.True(t, f.s.Turn.IsMyTurn(unit.FactionPlayer))
	assert.ErrorIs(t, f.s.RunAITurn(), battle.ErrNotYourTurn)

	assert.False(t, f.s.HasMoved(f.soldier))
	require.NoError(t, f.s.RequestMove(f.soldier, 1, 2))
}

func TestHeroDeathEndsBattle(t *testing.T) {
	f := newFixture(t, battle.Options{})
	f.hero.Stat.Attack = 200
	f.hero.Pos = grid.Point{X: 3, Y: 3}
	f.boss.Pos = grid.Point{X: 3, Y: 4}

	require.NoError(t, f.s.ConfirmTurnEnd())

	assert.True(t, f.s.Over())
	assert.Equal(t, []bool{true}, f.rec.gameOver)
	require.Len(t, f.rec.died, 1)
	assert.Same(t, f.boss, f.rec.died[0])
	w, over := f.s.Winner()
	assert.True(t, over)
	assert.Equal(t, unit.FactionPlayer, w)
	assert.NotNil(t, f.s.Roster.ByID("boss"), "fallen heroes stay in the roster")

	assert.ErrorIs(t, f.s.ConfirmTurnEnd(), battle.ErrGameOver)
	assert.ErrorIs(t, f.s.RunAITurn(), battle.ErrGameOver)
	assert.ErrorIs(t, f.s.RequestMove(f.hero, 3, 2), battle.ErrGameOver)
	assert.Equal(t, []bool{true}, f.rec.gameOver, "game over is announced once")
	assert.Equal(t, 1, f.logs.FilterMessage("battle: game over").Len())
}

func TestHeroDeathBySkillEndsBattleImmediately(t *testing.T) {
	f := newFixture(t, battle.Options{})
	f.hero.Stat.Learn("power_strike", "judgment")
	f.hero.Stat.Attack = 100
	f.escort.HP = 200
	f.escort.Stat.MaxHP = 200

	require.NoError(t, f.s.CastSkill(f.hero, "judgment"))

	assert.True(t, f.s.Over())
	assert.Equal(t, []bool{true}, f.rec.gameOver)
}

func TestPlayerHeroDeathIsDefeat(t *testing.T) {
	f := newFixture(t, battle.Options{})
	f.hero.Pos = grid.Point{X: 3, Y: 3}
	f.hero.HP = 5
	f.boss.Pos = grid.Point{X: 3, Y: 4}
	f.boss.Stat.Counter = 20

	require.NoError(t, f.s.ConfirmTurnEnd())

	assert.Equal(t, []bool{false}, f.rec.gameOver, "the boss's counter felled the hero")
	w, _ := f.s.Winner()
	assert.Equal(t, unit.FactionEnemy, w)
}

func TestRunAITurn_RecoversFromPanic(t *testing.T) {
	boom := ai.ScorerFunc(func(ai.Candidate) int { panic("boom") })
	f := newFixture(t, battle.Options{Scorer: boom})
	require.NoError(t, f.s.ConfirmTurnEnd())

	require.NoError(t, f.s.RunAITurn())

	assert.True(t, f.s.Turn.IsMyTurn(unit.FactionPlayer))
	assert.Equal(t, 1, f.logs.FilterMessage("battle: AI turn panicked; forcing end of turn").Len())
}

func TestDeadSoldiersLeaveRoster(t *testing.T) {
	f := newFixture(t, battle.Options{})
	f.soldier.Pos = grid.Point{X: 7, Y: 5}
	f.soldier.Stat.Attack = 500

	require.NoError(t, f.s.ConfirmTurnEnd())

	assert.Nil(t, f.s.Roster.ByID("escort"))
	assert.Equal(t, []string{"soldier attacks escort for 500 damage (defeated)", "escort has fallen"}, f.rec.logs)
	assert.Equal(t, []unit.Faction{unit.FactionPlayer, unit.FactionPlayer}, f.rec.sources)
	assert.False(t, f.s.Over())
}

func TestElapsed(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, battle.Options{Clock: func() time.Time { return now }})
	now = now.Add(5 * time.Second)
	assert.Equal(t, 5*time.Second, f.s.Elapsed())

	f.hero.Stat.Attack = 500
	f.hero.Pos = grid.Point{X: 7, Y: 5}
	f.escort.Pos = grid.Point{X: 0, Y: 7}
	f.boss.Pos = grid.Point{X: 7, Y: 6}
	require.NoError(t, f.s.ConfirmTurnEnd())
	require.True(t, f.s.Over())

	now = now.Add(time.Hour)
	assert.Equal(t, 5*time.Second, f.s.Elapsed(), "frozen at game over")
}

func TestSkillStateSurvivesTurnCycle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t, battle.Options{})
		all := []string{"power_strike", "judgment", "mend", "meteor"}
		n := rapid.IntRange(1, len(all)).Draw(rt, "learned")
		f.hero.Stat.Learn(all[:n]...)
		used := map[string]bool{}
		for _, id := range all[:n] {
			if rapid.Bool().Draw(rt, "used_"+id) {
				f.hero.Stat.MarkUsed(id)
				used[id] = true
			}
		}
		dest := rapid.SampledFrom([]grid.Point{{X: 0, Y: 1}, {X: 2, Y: 0}, {X: 0, Y: 2}}).Draw(rt, "dest")

		if err := f.s.RequestMove(f.hero, dest.X, dest.Y); err != nil {
			rt.Fatalf("move: %v", err)
		}
		if err := f.s.ConfirmTurnEnd(); err != nil {
			rt.Fatalf("end turn: %v", err)
		}
		if err := f.s.RunAITurn(); err != nil {
			rt.Fatalf("ai turn: %v", err)
		}

		if got := f.hero.Stat.Skills(); len(got) != n {
			rt.Fatalf("skills = %v, want %v", got, all[:n])
		}
		for _, id := range all[:n] {
			if f.hero.Stat.Used(id) != used[id] {
				rt.Fatalf("used(%s) = %v, want %v", id, f.hero.Stat.Used(id), used[id])
			}
		}
	})
}

func TestManager(t *testing.T) {
	m := battle.NewManager()
	s := m.Start(unit.NewRoster(), unit.FactionPlayer, battle.Options{})
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.End(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, battle.ErrBattleNotFound)
	assert.ErrorIs(t, m.End(s.ID), battle.ErrBattleNotFound)
}

func TestManager_Begin(t *testing.T) {
	m := battle.NewManager()
	s, err := m.Begin(stage.Builtin(), 2, unit.FactionPlayer, "Ayla", stage.HeroStat(), battle.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Dread Knight", s.Roster.HeroOf(unit.FactionEnemy).Name)
	assert.Equal(t, "Ayla", s.Roster.HeroOf(unit.FactionPlayer).Name)

	_, err = m.Begin(stage.Builtin(), 1, unit.FactionPlayer, "Ayla", nil, battle.Options{})
	assert.Error(t, err)
	assert.Equal(t, 1, m.Len())
}
