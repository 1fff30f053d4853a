package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/neonreach/engine/internal/game/dice"
)

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	ID        string
	Name      string
	Health    int
	MaxHealth int
	Statuses  []string
}

// Manager owns one sandboxed LState loaded from the content pack's script
// directory and exposes predicate and hook dispatch.
//
// Manager is safe for concurrent use after Load completes. The LState is
// single-threaded; the mutex serializes all Lua calls.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCombatant   func(id string) *CombatantInfo
	StatusStacks   func(id, statusID string) int
	ResourceValue  func(id, kind string) (int, bool)
	AdjustResource func(id, kind string, delta int)
	Damage         func(id string, amount int)
	Heal           func(id string, amount int)
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM, registers the engine.* modules, then executes
// every *.lua file in scriptDir in lexicographic order. Calling Load again
// replaces the previous VM.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

// Close releases the Lua VM. Safe to call on an unloaded Manager.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
		m.state = nil
		m.cancel = nil
	}
}

// Has reports whether the named global function is defined in the loaded VM.
func (m *Manager) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return false
	}
	_, ok := m.state.GetGlobal(name).(*lua.LFunction)
	return ok
}

// Predicate calls the named Lua global with the caster and target IDs and
// interprets the first return value as a boolean (Lua truthiness). An
// undefined predicate is an error; content validation catches these before
// any encounter runs.
func (m *Manager) Predicate(name, casterID, targetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return false, fmt.Errorf("scripting: predicate %q: no scripts loaded", name)
	}
	fn := m.state.GetGlobal(name)
	if fn == lua.LNil {
		return false, fmt.Errorf("scripting: predicate %q is not defined", name)
	}

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(casterID), lua.LString(targetID)); err != nil {
		return false, fmt.Errorf("scripting: predicate %q: %w", name, err)
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	return lua.LVAsBool(ret), nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the
// hook is not defined or no VM is loaded. Lua runtime errors are logged at
// Warn level and never propagated; a misbehaving status script must not abort
// the encounter.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return lua.LNil, nil
	}
	fn := m.state.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	return ret, nil
}
