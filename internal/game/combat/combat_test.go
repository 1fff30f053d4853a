package combat_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/game/skill"
	"github.com/neonreach/engine/internal/game/status"
)

// fixedSource returns scripted Intn values, wrapping around when exhausted.
type fixedSource struct {
	values []int
	idx    int
}

func (f *fixedSource) Intn(n int) int {
	v := f.values[f.idx%len(f.values)]
	f.idx++
	return v % n
}

func testStatusRegistry() *status.Registry {
	reg := status.NewRegistry()
	reg.Register(&status.Definition{
		ID: "burning", Name: "Burning", DurationType: status.DurationRounds,
		MaxStacks: 5, StackPolicy: status.PolicyStack, Harmful: true,
		DoT: &status.DoT{Element: damage.Fire, Damage: "1d4"},
	})
	reg.Register(&status.Definition{
		ID: "corroded", Name: "Corroded", DurationType: status.DurationRounds,
		MaxStacks: 5, StackPolicy: status.PolicyStack, Harmful: true,
		DoT: &status.DoT{Element: damage.Toxic, Damage: "1d20"},
	})
	reg.Register(&status.Definition{
		ID: "shell", Name: "Shell", DurationType: status.DurationRounds,
		DamageTakenPct: -30,
	})
	reg.Register(&status.Definition{
		ID: "stunned", Name: "Stunned", DurationType: status.DurationRounds,
		Harmful:         true,
		RestrictActions: []string{"melee", "ranged", "skill"},
	})
	reg.Register(&status.Definition{
		ID: "slowed", Name: "Slowed", DurationType: status.DurationRounds,
		Harmful: true, SpeedDelta: -50,
	})
	return reg
}

func testSkillRegistry() *skill.Registry {
	reg := skill.NewRegistry()
	reg.Register(&skill.Definition{
		ID: "basic_attack", Name: "Basic Attack", Archetype: skill.ArchetypeCommon,
		Target: skill.TargetHostile, Distance: damage.Melee, Element: damage.Physical,
		Damage: "1d6",
		Variants: []skill.Variant{
			{When: skill.Condition{TargetHas: []string{"burning"}}, Multiplier: fp(2.0)},
		},
	})
	reg.Register(&skill.Definition{
		ID: "double_tap", Name: "Double Tap", Archetype: "gunslinger",
		Target: skill.TargetHostile, Distance: damage.Ranged, Element: damage.Physical,
		Damage: "1d8", Hits: 2,
		Cost: &skill.Cost{Resource: resource.Ammo, Amount: 2},
		Variants: []skill.Variant{
			{When: skill.Condition{TargetHas: []string{"burning"}}, Multiplier: fp(1.5)},
		},
	})
	reg.Register(&skill.Definition{
		ID: "reload", Name: "Reload", Archetype: "gunslinger",
		Target: skill.TargetSelf, Distance: damage.Melee, Element: damage.Physical,
		Gain: &skill.Cost{Resource: resource.Ammo, Amount: 6},
	})
	reg.Register(&skill.Definition{
		ID: "ignite", Name: "Ignite", Archetype: "netrunner",
		Target: skill.TargetHostile, Distance: damage.Ranged, Element: damage.Fire,
		Damage: "1d6",
		Cost:   &skill.Cost{Resource: resource.RAM, Amount: 5},
		Applies: []skill.Application{
			{Status: "burning", Duration: 2, Stacks: 1},
		},
	})
	reg.Register(&skill.Definition{
		ID: "potion", Name: "Potion", Archetype: skill.ArchetypeCommon,
		Target: skill.TargetFriendly, Distance: damage.Melee, Element: damage.Healing,
		Damage: "2d4",
	})
	reg.Register(&skill.Definition{
		ID: "purge", Name: "Purge", Archetype: skill.ArchetypeCommon,
		Target: skill.TargetFriendly, Distance: damage.Melee, Element: damage.Light,
		Cleanse: true,
	})
	reg.Register(&skill.Definition{
		ID: "jumpstart", Name: "Jumpstart", Archetype: skill.ArchetypeCommon,
		Target: skill.TargetFriendly, Distance: damage.Melee, Element: damage.Light,
		Revive: true,
	})
	return reg
}

func fp(f float64) *float64 { return &f }

func mustRules(t *testing.T, rules []resource.Rule) *resource.RuleSet {
	t.Helper()
	rs, err := resource.NewRuleSet(rules)
	require.NoError(t, err)
	return rs
}

func newGunslinger(t *testing.T, ammo int) *combat.Combatant {
	t.Helper()
	pools := resource.NewSet()
	require.NoError(t, pools.AddPool(resource.Pool{Kind: resource.Ammo, Current: ammo, Min: 0, Max: 6}))
	return &combat.Combatant{
		ID: "pc-gunslinger", Kind: combat.KindParty, Name: "Six", Archetype: "gunslinger",
		MaxHealth: 40, Health: 40, Attack: 10, Defense: 10, Speed: 7,
		Pools: pools,
		Rules: mustRules(t, []resource.Rule{
			{Trigger: resource.TriggerMeleeHit, Kind: resource.Ammo, Delta: 1},
		}),
		Statuses:    status.NewActiveSet(),
		BasicAttack: "basic_attack",
		Skills:      []string{"double_tap", "reload", "potion", "purge", "jumpstart"},
	}
}

func newNetrunner(t *testing.T, ram int) *combat.Combatant {
	t.Helper()
	pools := resource.NewSet()
	require.NoError(t, pools.AddPool(resource.Pool{Kind: resource.RAM, Current: ram, Min: 0, Max: 20}))
	return &combat.Combatant{
		ID: "pc-netrunner", Kind: combat.KindParty, Name: "Patch", Archetype: "netrunner",
		MaxHealth: 30, Health: 30, Attack: 10, Defense: 8, Speed: 9,
		Pools: pools,
		Rules: mustRules(t, []resource.Rule{
			{Trigger: resource.TriggerStatusExpired, Kind: resource.RAM, Delta: 5, Status: "burning"},
		}),
		Statuses:    status.NewActiveSet(),
		BasicAttack: "basic_attack",
		Skills:      []string{"ignite"},
	}
}

func newDrone(t *testing.T, health int) *combat.Combatant {
	t.Helper()
	pools := resource.NewSet()
	require.NoError(t, pools.AddPool(resource.Pool{Kind: resource.Battery, Current: 10, Min: 0, Max: 10}))
	return &combat.Combatant{
		ID: "npc-drone", Kind: combat.KindEnemy, Name: "Drone", Archetype: "scrap_drone",
		MaxHealth: health, Health: health, Attack: 6, Defense: 6, Speed: 5,
		Pools:       pools,
		Rules:       mustRules(t, nil),
		Statuses:    status.NewActiveSet(),
		BasicAttack: "basic_attack",
	}
}

func newResolver(t *testing.T, src dice.Source) *combat.Resolver {
	t.Helper()
	logger := zap.NewNop()
	return combat.NewResolver(dice.NewLoggedRoller(src, logger), testStatusRegistry(), logger)
}

func ammoOf(t *testing.T, c *combat.Combatant) int {
	t.Helper()
	v, ok := c.Pools.Value(resource.Ammo)
	require.True(t, ok)
	return v
}
