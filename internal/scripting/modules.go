package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.grid.manhattan(x1, y1, x2, y2)
//	engine.grid.chebyshev(x1, y1, x2, y2)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "grid", gridModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	mod := L.NewTable()
	for name, fn := range levels {
		fn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func gridModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "manhattan", L.NewFunction(func(L *lua.LState) int {
		dx, dy := deltas(L)
		L.Push(lua.LNumber(dx + dy))
		return 1
	}))
	L.SetField(mod, "chebyshev", L.NewFunction(func(L *lua.LState) int {
		dx, dy := deltas(L)
		if dy > dx {
			dx = dy
		}
		L.Push(lua.LNumber(dx))
		return 1
	}))
	return mod
}

func deltas(L *lua.LState) (int, int) {
	dx := L.CheckInt(1) - L.CheckInt(3)
	dy := L.CheckInt(2) - L.CheckInt(4)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx, dy
}
