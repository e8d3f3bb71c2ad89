package ai

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ScoreHook is the Lua global a scripted strategy defines.
const ScoreHook = "score"

// ScriptCaller is the interface required by ScriptScorer to reach a Lua strategy.
type ScriptCaller interface {
	// CallHookWith calls a named Lua function in the strategy's VM with
	// arguments built inside that VM. Returns (LNil, nil) if the function is
	// not defined.
	CallHookWith(strategy, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error)
}

// ScriptScorer delegates scoring to a Lua `score(candidate)` function.
//
// The candidate table carries actor, target, can_attack, distance, guarding
// and heuristic (the built-in score). A missing hook, runtime error or
// non-number result falls back to the built-in score.
type ScriptScorer struct {
	caller   ScriptCaller
	strategy string
	fallback Scorer
}

// NewScriptScorer creates a ScriptScorer for the named strategy.
//
// Precondition: caller must not be nil.
func NewScriptScorer(caller ScriptCaller, strategy string) *ScriptScorer {
	if caller == nil {
		panic("ai.NewScriptScorer: caller must not be nil")
	}
	return &ScriptScorer{caller: caller, strategy: strategy, fallback: HeuristicScorer{}}
}

// Strategy returns the Lua strategy name.
func (s *ScriptScorer) Strategy() string { return s.strategy }

// Score implements Scorer.
func (s *ScriptScorer) Score(c Candidate) int {
	base := s.fallback.Score(c)
	ret, err := s.caller.CallHookWith(s.strategy, ScoreHook, func(L *lua.LState) []lua.LValue {
		tbl := L.NewTable()
		L.SetField(tbl, "actor", unitTable(L, c.Actor))
		L.SetField(tbl, "target", unitTable(L, c.Target))
		L.SetField(tbl, "can_attack", lua.LBool(c.CanAttack))
		L.SetField(tbl, "distance", lua.LNumber(c.Distance))
		L.SetField(tbl, "guarding", lua.LBool(c.Guarding()))
		L.SetField(tbl, "heuristic", lua.LNumber(base))
		return []lua.LValue{tbl}
	})
	if err != nil {
		return base
	}
	if n, ok := ret.(lua.LNumber); ok {
		return int(n)
	}
	return base
}

func unitTable(L *lua.LState, u *unit.Unit) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(u.ID))
	L.SetField(t, "name", lua.LString(u.Name))
	L.SetField(t, "class", lua.LString(u.Class.String()))
	L.SetField(t, "hero", lua.LBool(u.IsHero()))
	L.SetField(t, "hp", lua.LNumber(u.HP))
	L.SetField(t, "max_hp", lua.LNumber(u.MaxHP()))
	L.SetField(t, "attack", lua.LNumber(u.Stat.Attack))
	L.SetField(t, "counter", lua.LNumber(u.Stat.Counter))
	L.SetField(t, "value", lua.LNumber(u.Stat.Value))
	L.SetField(t, "x", lua.LNumber(u.Pos.X))
	L.SetField(t, "y", lua.LNumber(u.Pos.Y))
	return t
}
