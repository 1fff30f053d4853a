package session

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/scripting"
)

// hookDispatcher adapts the scripting manager to combat.ScriptHooks. Hook
// errors are already logged inside CallHook and must not interrupt the
// encounter.
type hookDispatcher struct {
	mgr *scripting.Manager
}

func (h *hookDispatcher) CallStatusHook(fn, combatantID string) {
	_, _ = h.mgr.CallHook(fn, lua.LString(combatantID))
}

// BindEncounter points the scripting manager's combat callbacks at the given
// encounter, so engine.* Lua modules read and mutate its combatants. Rebinding
// replaces the previous encounter; only one encounter per manager is live at
// a time.
func BindEncounter(mgr *scripting.Manager, enc *combat.Encounter) {
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		c, ok := enc.Combatant(id)
		if !ok {
			return nil
		}
		return &scripting.CombatantInfo{
			ID:        c.ID,
			Name:      c.Name,
			Health:    c.Health,
			MaxHealth: c.MaxHealth,
			Statuses:  c.Statuses.IDs(),
		}
	}
	mgr.StatusStacks = func(id, statusID string) int {
		c, ok := enc.Combatant(id)
		if !ok {
			return 0
		}
		return c.Statuses.Stacks(statusID)
	}
	mgr.ResourceValue = func(id, kind string) (int, bool) {
		c, ok := enc.Combatant(id)
		if !ok {
			return 0, false
		}
		return c.Pools.Value(resource.Kind(kind))
	}
	mgr.AdjustResource = func(id, kind string, delta int) {
		c, ok := enc.Combatant(id)
		if !ok {
			return
		}
		_, _ = c.Pools.ApplyDelta(resource.Kind(kind), delta, resource.Clamp)
	}
	mgr.Damage = func(id string, amount int) {
		c, ok := enc.Combatant(id)
		if !ok || amount < 0 {
			return
		}
		c.ApplyDamage(amount)
	}
	mgr.Heal = func(id string, amount int) {
		c, ok := enc.Combatant(id)
		if !ok || amount < 0 {
			return
		}
		c.Heal(amount)
	}
}
