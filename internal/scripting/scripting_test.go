package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/scripting"
)

func writeTempLua(t *testing.T, name, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	return dir
}

func newTestManager(t *testing.T) *scripting.Manager {
	t.Helper()
	logger := zap.NewNop()
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), logger)
	mgr := scripting.NewManager(roller, logger)
	t.Cleanup(mgr.Close)
	return mgr
}

func loadScript(t *testing.T, mgr *scripting.Manager, src string) {
	t.Helper()
	dir := writeTempLua(t, "test.lua", src)
	require.NoError(t, mgr.Load(dir, 0))
}

func TestSandboxStripsDangerousGlobals(t *testing.T) {
	L, cancel := scripting.NewSandboxedState(0)
	defer cancel()
	defer L.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "global %s should be stripped", name)
	}
	// Safe libraries remain usable.
	require.NoError(t, L.DoString(`x = math.floor(3.7) + string.len("ab")`))
}

func TestSandboxInstructionLimit(t *testing.T) {
	L, cancel := scripting.NewSandboxedState(1000)
	defer cancel()
	defer L.Close()

	err := L.DoString(`while true do end`)
	require.Error(t, err)
}

func TestPredicate(t *testing.T) {
	mgr := newTestManager(t)
	loadScript(t, mgr, `
		function target_low_health(caster, target)
			return target == "npc-1"
		end
	`)

	ok, err := mgr.Predicate("target_low_health", "pc-1", "npc-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mgr.Predicate("target_low_health", "pc-1", "npc-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicateUndefined(t *testing.T) {
	mgr := newTestManager(t)
	loadScript(t, mgr, `-- no functions`)

	_, err := mgr.Predicate("missing", "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"missing" is not defined`)
}

func TestPredicateWithoutLoadedScripts(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Predicate("anything", "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scripts loaded")
}

func TestHas(t *testing.T) {
	mgr := newTestManager(t)
	loadScript(t, mgr, `
		function defined() end
		not_a_function = 42
	`)

	assert.True(t, mgr.Has("defined"))
	assert.False(t, mgr.Has("not_a_function"))
	assert.False(t, mgr.Has("missing"))
}

func TestCallHookUndefinedReturnsNil(t *testing.T) {
	mgr := newTestManager(t)
	loadScript(t, mgr, `-- empty`)

	ret, err := mgr.CallHook("missing_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestCallHookRuntimeErrorIsLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), logger)
	mgr := scripting.NewManager(roller, logger)
	t.Cleanup(mgr.Close)
	loadScript(t, mgr, `
		function broken() error("boom") end
	`)

	ret, err := mgr.CallHook("broken")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)

	found := false
	for _, e := range logs.All() {
		if e.Level == zap.WarnLevel {
			found = true
		}
	}
	assert.True(t, found, "expected Warn log for Lua runtime error")
}

func TestLoadReplacesPreviousVM(t *testing.T) {
	mgr := newTestManager(t)
	loadScript(t, mgr, `function first() return true end`)
	require.True(t, mgr.Has("first"))

	loadScript(t, mgr, `function second() return true end`)
	assert.False(t, mgr.Has("first"))
	assert.True(t, mgr.Has("second"))
}
