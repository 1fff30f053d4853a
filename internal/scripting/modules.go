package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/neonreach/engine/internal/game/dice"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.dice.roll(expr) -> {total, dice, modifier}
//	engine.combatant.health(id) -> number|nil
//	engine.combatant.max_health(id) -> number|nil
//	engine.combatant.health_pct(id) -> number|nil
//	engine.combatant.name(id) -> string|nil
//	engine.status.has(id, status) -> bool
//	engine.status.stacks(id, status) -> number
//	engine.resource.get(id, kind) -> number|nil
//	engine.resource.adjust(id, kind, delta)
//	engine.damage(id, amount)
//	engine.heal(id, amount)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	m.registerLog(L, engine)
	m.registerDice(L, engine)
	m.registerCombatant(L, engine)
	m.registerStatus(L, engine)
	m.registerResource(L, engine)

	engine.RawSetString("damage", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		amount := L.CheckInt(2)
		if m.Damage != nil {
			m.Damage(id, amount)
		}
		return 0
	}))
	engine.RawSetString("heal", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		amount := L.CheckInt(2)
		if m.Heal != nil {
			m.Heal(id, amount)
		}
		return 0
	}))
}

func (m *Manager) registerLog(L *lua.LState, engine *lua.LTable) {
	logTable := L.NewTable()
	engine.RawSetString("log", logTable)

	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logFn := range levels {
		fn := logFn
		logTable.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
}

func (m *Manager) registerDice(L *lua.LState, engine *lua.LTable) {
	diceTable := L.NewTable()
	engine.RawSetString("dice", diceTable)

	diceTable.RawSetString("roll", L.NewFunction(func(L *lua.LState) int {
		raw := L.CheckString(1)
		expr, err := dice.Parse(raw)
		if err != nil {
			L.RaiseError("dice.roll: %s", err.Error())
			return 0
		}
		res := m.roller.Roll(expr)
		sum := 0
		for _, d := range res.Dice {
			sum += d
		}
		out := L.NewTable()
		out.RawSetString("total", lua.LNumber(res.Total()))
		out.RawSetString("dice", lua.LNumber(sum))
		out.RawSetString("modifier", lua.LNumber(res.Modifier))
		L.Push(out)
		return 1
	}))
}

func (m *Manager) registerCombatant(L *lua.LState, engine *lua.LTable) {
	cTable := L.NewTable()
	engine.RawSetString("combatant", cTable)

	lookup := func(L *lua.LState) *CombatantInfo {
		id := L.CheckString(1)
		if m.GetCombatant == nil {
			return nil
		}
		return m.GetCombatant(id)
	}

	cTable.RawSetString("health", L.NewFunction(func(L *lua.LState) int {
		if c := lookup(L); c != nil {
			L.Push(lua.LNumber(c.Health))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	cTable.RawSetString("max_health", L.NewFunction(func(L *lua.LState) int {
		if c := lookup(L); c != nil {
			L.Push(lua.LNumber(c.MaxHealth))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	cTable.RawSetString("health_pct", L.NewFunction(func(L *lua.LState) int {
		if c := lookup(L); c != nil && c.MaxHealth > 0 {
			L.Push(lua.LNumber(float64(c.Health) / float64(c.MaxHealth)))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	cTable.RawSetString("name", L.NewFunction(func(L *lua.LState) int {
		if c := lookup(L); c != nil {
			L.Push(lua.LString(c.Name))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
}

func (m *Manager) registerStatus(L *lua.LState, engine *lua.LTable) {
	sTable := L.NewTable()
	engine.RawSetString("status", sTable)

	sTable.RawSetString("has", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		statusID := L.CheckString(2)
		if m.StatusStacks != nil && m.StatusStacks(id, statusID) > 0 {
			L.Push(lua.LTrue)
		} else {
			L.Push(lua.LFalse)
		}
		return 1
	}))
	sTable.RawSetString("stacks", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		statusID := L.CheckString(2)
		n := 0
		if m.StatusStacks != nil {
			n = m.StatusStacks(id, statusID)
		}
		L.Push(lua.LNumber(n))
		return 1
	}))
}

func (m *Manager) registerResource(L *lua.LState, engine *lua.LTable) {
	rTable := L.NewTable()
	engine.RawSetString("resource", rTable)

	rTable.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		kind := L.CheckString(2)
		if m.ResourceValue != nil {
			if v, ok := m.ResourceValue(id, kind); ok {
				L.Push(lua.LNumber(v))
				return 1
			}
		}
		L.Push(lua.LNil)
		return 1
	}))
	rTable.RawSetString("adjust", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		kind := L.CheckString(2)
		delta := L.CheckInt(3)
		if m.AdjustResource != nil {
			m.AdjustResource(id, kind, delta)
		}
		return 0
	}))
}
