// Package combat implements the turn-based encounter engine for Neonreach:
// combatants, skill effect resolution, initiative, and the round loop.
package combat

import (
	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/game/status"
)

// Kind distinguishes party members from enemy combatants.
type Kind int

const (
	KindParty Kind = iota
	KindEnemy
)

// Combatant is one participant in an encounter: a party character or a
// spawned enemy. Stats are the already-leveled effective values.
type Combatant struct {
	ID   string
	Kind Kind
	Name string
	// Archetype is the archetype ID for party members, the template ID for
	// enemies.
	Archetype string

	MaxHealth int
	Health    int
	Attack    int
	Defense   int
	Speed     int
	Crit      float64 // chance in [0, 1]
	Evade     float64 // chance in [0, 1]

	Resists  damage.Resistances
	Pools    *resource.Set
	Rules    *resource.RuleSet
	Statuses *status.ActiveSet

	BasicAttack string
	Skills      []string

	// Initiative is assigned by RollInitiative at encounter start and
	// recomputed at round boundaries; InitiativeRoll keeps the raw d20.
	Initiative     int
	InitiativeRoll int
	// Downed is set when Health reaches 0. A downed party member can be
	// revived; a downed enemy is out of the encounter for good.
	Downed bool
}

// IsParty reports whether this combatant is a party character.
func (c *Combatant) IsParty() bool { return c.Kind == KindParty }

// Alive reports whether the combatant can still act or be targeted by
// hostile skills.
func (c *Combatant) Alive() bool { return !c.Downed }

// ApplyDamage reduces Health by amount, flooring at zero and marking the
// combatant downed when it reaches zero.
//
// Precondition: amount >= 0.
// Postcondition: Health >= 0; Downed is true iff Health == 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.Health -= amount
	if c.Health <= 0 {
		c.Health = 0
		c.Downed = true
	}
}

// Heal raises Health by amount, capped at MaxHealth. Healing does not revive;
// use Revive for that.
//
// Precondition: amount >= 0.
func (c *Combatant) Heal(amount int) {
	if c.Downed {
		return
	}
	c.Health += amount
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
}

// Revive brings a downed combatant back at the given health, capped at
// MaxHealth, and clears all statuses. No-op on a combatant that is up.
//
// Precondition: health >= 1.
func (c *Combatant) Revive(health int) {
	if !c.Downed {
		return
	}
	c.Downed = false
	c.Health = health
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
	c.Statuses.Clear()
}

// HealthPct returns current health as a fraction of max in [0, 1].
func (c *Combatant) HealthPct() float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return float64(c.Health) / float64(c.MaxHealth)
}

// HasSkill reports whether id is the basic attack or an equipped skill.
func (c *Combatant) HasSkill(id string) bool {
	if id == c.BasicAttack {
		return true
	}
	for _, s := range c.Skills {
		if s == id {
			return true
		}
	}
	return false
}
