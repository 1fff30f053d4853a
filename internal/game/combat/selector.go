package combat

import (
	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/skill"
	"github.com/neonreach/engine/internal/game/status"
)

// GreedySelector is a deterministic action policy used by enemies and the
// balance simulator: take the first equipped skill (in loadout order) that is
// affordable, unblocked, and has a legal target; otherwise basic attack.
//
// Target choice is deterministic given the encounter state: hostile skills
// aim at the living opponent with the lowest health; heals pick the most hurt
// living ally; revives pick the first downed ally in initiative order.
type GreedySelector struct {
	// HealThreshold gates friendly healing skills: an ally must be below this
	// health fraction for a heal to be selected. Zero means 0.65.
	HealThreshold float64
}

func (g GreedySelector) healThreshold() float64 {
	if g.HealThreshold == 0 {
		return 0.65
	}
	return g.HealThreshold
}

// Select implements Selector.
func (g GreedySelector) Select(e *Encounter, actor *Combatant) (Selection, error) {
	for _, id := range actor.Skills {
		def, ok := e.skills.Get(id)
		if !ok {
			continue
		}
		if sel, ok := g.trySkill(e, actor, def); ok {
			return sel, nil
		}
	}
	return g.basicAttack(e, actor), nil
}

func (g GreedySelector) trySkill(e *Encounter, actor *Combatant, def *skill.Definition) (Selection, bool) {
	if def.Cost != nil && !actor.Pools.CanAfford(def.Cost.Resource, def.Cost.Amount) {
		return Selection{}, false
	}
	if status.IsActionRestricted(actor.Statuses, string(def.Distance)) ||
		status.IsActionRestricted(actor.Statuses, "skill") {
		return Selection{}, false
	}

	switch def.Target {
	case skill.TargetSelf:
		// Don't re-buff a status the actor already carries.
		for _, a := range def.Applies {
			if actor.Statuses.Has(a.Status) {
				return Selection{}, false
			}
		}
		// A pure self resource refill is only worth a turn when meaningfully down.
		if def.Gain != nil {
			if v, ok := actor.Pools.Value(def.Gain.Resource); ok {
				for _, p := range actor.Pools.Snapshot() {
					if p.Kind == def.Gain.Resource && v > p.Max/2 {
						return Selection{}, false
					}
				}
			}
		}
		return Selection{SkillID: def.ID, TargetIDs: []string{actor.ID}}, true

	case skill.TargetFriendly:
		if def.Revive {
			downed := e.DownedAllies(actor)
			if len(downed) == 0 {
				return Selection{}, false
			}
			return Selection{SkillID: def.ID, TargetIDs: []string{downed[0].ID}}, true
		}
		if def.Element == damage.Healing || len(def.Applies) > 0 || def.Cleanse {
			if target := g.neediestAlly(e, actor, def); target != nil {
				return Selection{SkillID: def.ID, TargetIDs: []string{target.ID}}, true
			}
		}
		return Selection{}, false

	case skill.TargetAllFriendly:
		return Selection{SkillID: def.ID}, true

	case skill.TargetHostile, skill.TargetAllHostile:
		opponents := e.LivingOpponents(actor)
		if len(opponents) == 0 {
			return Selection{}, false
		}
		if def.Target == skill.TargetAllHostile || def.RandomTarget {
			return Selection{SkillID: def.ID}, true
		}
		return Selection{SkillID: def.ID, TargetIDs: []string{lowestHealth(opponents).ID}}, true
	}
	return Selection{}, false
}

// neediestAlly returns the most hurt living ally below the heal threshold for
// healing skills, or the first ally missing an applied status for buffs.
func (g GreedySelector) neediestAlly(e *Encounter, actor *Combatant, def *skill.Definition) *Combatant {
	allies := e.LivingAllies(actor)
	if def.Element == damage.Healing {
		var best *Combatant
		for _, a := range allies {
			if a.HealthPct() >= g.healThreshold() {
				continue
			}
			if best == nil || a.HealthPct() < best.HealthPct() {
				best = a
			}
		}
		return best
	}
	if def.Cleanse {
		for _, a := range allies {
			for _, act := range a.Statuses.All() {
				if act.Def.Harmful {
					return a
				}
			}
		}
		return nil
	}
	for _, a := range allies {
		missing := false
		for _, app := range def.Applies {
			if !a.Statuses.Has(app.Status) {
				missing = true
			}
		}
		if missing {
			return a
		}
	}
	return nil
}

func (g GreedySelector) basicAttack(e *Encounter, actor *Combatant) Selection {
	opponents := e.LivingOpponents(actor)
	if len(opponents) == 0 {
		return Selection{SkillID: actor.BasicAttack}
	}
	return Selection{SkillID: actor.BasicAttack, TargetIDs: []string{lowestHealth(opponents).ID}}
}

func lowestHealth(combatants []*Combatant) *Combatant {
	best := combatants[0]
	for _, c := range combatants[1:] {
		if c.Health < best.Health {
			best = c
		}
	}
	return best
}
