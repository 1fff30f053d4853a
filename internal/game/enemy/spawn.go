package enemy

import (
	"github.com/google/uuid"

	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/game/status"
)

// Spawn creates a live combat instance from the template. Each call returns
// an independent combatant with its own pools and status set; instances never
// share mutable state with the template or each other.
//
// Precondition: t must have passed Validate.
// Postcondition: the returned combatant is at full health with every pool at
// its initial value.
func Spawn(t *Template) *combat.Combatant {
	pools := resource.NewSet()
	for _, p := range t.Pools {
		// Validate already proved each pool well-formed.
		_ = pools.AddPool(resource.Pool{Kind: p.Kind, Current: p.Initial, Min: p.Min, Max: p.Max})
	}
	rules, _ := resource.NewRuleSet(t.Rules)

	skills := make([]string, len(t.Skills))
	copy(skills, t.Skills)

	return &combat.Combatant{
		ID:          uuid.NewString(),
		Kind:        combat.KindEnemy,
		Name:        t.Name,
		Archetype:   t.ID,
		MaxHealth:   t.Stats.MaxHealth,
		Health:      t.Stats.MaxHealth,
		Attack:      t.Stats.Attack,
		Defense:     t.Stats.Defense,
		Speed:       t.Stats.Speed,
		Crit:        t.Stats.Crit,
		Evade:       t.Stats.Evade,
		Resists:     t.Resists,
		Pools:       pools,
		Rules:       rules,
		Statuses:    status.NewActiveSet(),
		BasicAttack: t.BasicAttack,
		Skills:      skills,
	}
}

// SpawnGroup creates count independent instances of the template.
//
// Precondition: count >= 1.
func SpawnGroup(t *Template, count int) []*combat.Combatant {
	out := make([]*combat.Combatant, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, Spawn(t))
	}
	return out
}
