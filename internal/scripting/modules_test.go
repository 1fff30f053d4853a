package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/scripting"
)

func callHook(t *testing.T, mgr *scripting.Manager, src, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	loadScript(t, mgr, src)
	ret, err := mgr.CallHook(hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLogWritesToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), logger)
	mgr := scripting.NewManager(roller, logger)
	t.Cleanup(mgr.Close)

	callHook(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	levels := map[string]bool{}
	for _, e := range logs.All() {
		levels[e.Level.String()] = true
	}
	assert.True(t, levels["debug"], "expected debug log")
	assert.True(t, levels["info"], "expected info log")
	assert.True(t, levels["warn"], "expected warn log")
	assert.True(t, levels["error"], "expected error log")
}

func TestEngineDiceRollReturnsTable(t *testing.T) {
	mgr := newTestManager(t)
	ret := callHook(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("1d6")
			if type(r.dice) ~= "number" then error("dice field missing") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestPropertyDiceRollTotalEqualsDicePlusModifier(t *testing.T) {
	mgr := newTestManager(t)
	loadScript(t, mgr, `
		function check_invariant(expr)
			local r = engine.dice.roll(expr)
			return r.total == r.dice + r.modifier
		end
	`)
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6+3", "1d4", "4d8-2"}).Draw(rt, "expr")
		ret, err := mgr.CallHook("check_invariant", lua.LString(expr))
		require.NoError(t, err)
		assert.Equal(t, lua.LTrue, ret, "total must equal dice + modifier for expr %s", expr)
	})
}

func TestEngineCombatantNilCallbackReturnsNil(t *testing.T) {
	mgr := newTestManager(t)
	ret := callHook(t, mgr, `
		function get_it() return engine.combatant.health("pc-1") end
	`, "get_it")
	assert.Equal(t, lua.LNil, ret)
}

func TestEngineCombatantWithCallback(t *testing.T) {
	mgr := newTestManager(t)
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		return &scripting.CombatantInfo{ID: id, Name: "Vex", Health: 12, MaxHealth: 48}
	}

	ret := callHook(t, mgr, `
		function low_health(id)
			return engine.combatant.health_pct(id) < 0.3
		end
	`, "low_health", lua.LString("pc-1"))
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineStatusStacks(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StatusStacks = func(id, statusID string) int {
		if statusID == "burning" {
			return 3
		}
		return 0
	}

	ret := callHook(t, mgr, `
		function check(id)
			return engine.status.has(id, "burning") and engine.status.stacks(id, "burning") == 3
				and not engine.status.has(id, "frozen")
		end
	`, "check", lua.LString("npc-1"))
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineResourceAdjust(t *testing.T) {
	mgr := newTestManager(t)
	values := map[string]int{"ram": 10}
	mgr.ResourceValue = func(id, kind string) (int, bool) {
		v, ok := values[kind]
		return v, ok
	}
	mgr.AdjustResource = func(id, kind string, delta int) {
		values[kind] += delta
	}

	callHook(t, mgr, `
		function refund(id)
			if engine.resource.get(id, "ram") ~= nil then
				engine.resource.adjust(id, "ram", 5)
			end
		end
	`, "refund", lua.LString("pc-1"))
	assert.Equal(t, 15, values["ram"])
}

func TestEngineDamageAndHeal(t *testing.T) {
	mgr := newTestManager(t)
	var damaged, healed int
	mgr.Damage = func(id string, amount int) { damaged = amount }
	mgr.Heal = func(id string, amount int) { healed = amount }

	callHook(t, mgr, `
		function tick(id)
			engine.damage(id, 4)
			engine.heal(id, 2)
		end
	`, "tick", lua.LString("npc-1"))
	assert.Equal(t, 4, damaged)
	assert.Equal(t, 2, healed)
}
