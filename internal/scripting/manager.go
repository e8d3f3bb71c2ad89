package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// vm is one loaded strategy. Each LState is single-threaded, so mu
// serializes calls into it.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel func()
	limit  int
}

// Manager owns one sandboxed LState per named strategy and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same strategy are
// serialized; different strategies run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	logger *zap.Logger
	// library files run in every VM before its own scripts.
	library []string
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no strategies loaded.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		logger: logger,
	}
}

// Load creates a sandboxed VM for name, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: name must be non-empty; scriptDir must be a readable directory.
// Postcondition: strategy VM is registered; returns error on Lua load failure.
func (m *Manager) Load(name, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, name, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.loadInto(name, luaFiles, instLimit)
}

// LoadLibrary records every *.lua file in dir as shared helpers. Each VM
// loaded afterwards runs them, in lexicographic order, before its own files.
// VMs loaded earlier are unaffected.
//
// Precondition: dir must be a readable directory.
func (m *Manager) LoadLibrary(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading library dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	m.mu.Lock()
	m.library = files
	m.mu.Unlock()
	m.logger.Debug("scripting: library loaded", zap.Strings("files", files))
	return nil
}

// LoadDirectory registers one strategy per *.lua file in dir, named after the
// file without its extension, and returns the names in lexicographic order.
//
// Precondition: dir must be a readable directory.
func (m *Manager) LoadDirectory(dir string, instLimit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading strategy dir %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".lua")
		if err := m.loadInto(name, []string{filepath.Join(dir, e.Name())}, instLimit); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) loadInto(key string, files []string, instLimit int) error {
	m.mu.RLock()
	files = append(append([]string(nil), m.library...), files...)
	m.mu.RUnlock()

	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	for _, path := range files {
		release := rebudget(L, instLimit)
		err := L.DoFile(path)
		release()
		if err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	next := &vm{L: L, cancel: cancel, limit: instLimit}
	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = next
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	m.logger.Debug("scripting: strategy loaded",
		zap.String("strategy", key),
		zap.Int("files", len(files)),
	)
	return nil
}

// Has reports whether a strategy named name is loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[name]
	return ok
}

// Strategies returns the loaded strategy names.
func (m *Manager) Strategies() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vms))
	for k := range m.vms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CallHook calls the named Lua global function in the strategy's VM.
// Returns (LNil, nil) if the hook is not defined or no VM exists. Lua runtime errors
// are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(strategy, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.CallHookWith(strategy, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallHookWith is CallHook with arguments built inside the target VM, for
// callers that need to pass tables.
//
// Precondition: build must not be nil.
func (m *Manager) CallHookWith(strategy, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v := m.vms[strategy]
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for strategy",
			zap.String("strategy", strategy),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L == nil {
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	release := rebudget(v.L, v.limit)
	defer release()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, build(v.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("strategy", strategy),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM. Later calls behave as if nothing was loaded.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L == nil {
		return
	}
	v.cancel()
	v.L.Close()
	v.L = nil
}
