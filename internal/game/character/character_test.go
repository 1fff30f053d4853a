package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonreach/engine/internal/game/archetype"
	"github.com/neonreach/engine/internal/game/character"
	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/resource"
)

func gunslingerArch() *archetype.Definition {
	return &archetype.Definition{
		ID:   "gunslinger",
		Name: "Gunslinger",
		Stats: archetype.Stats{
			MaxHealth: 30, Attack: 10, Defense: 8, Speed: 7, Crit: 0.1, Evade: 0.05,
		},
		Pools: []archetype.PoolDef{
			{Kind: resource.Ammo, Min: 0, Max: 6, Initial: 6},
		},
		Rules: []resource.Rule{
			{Trigger: resource.TriggerMeleeHit, Kind: resource.Ammo, Delta: 1},
		},
		BasicAttack: "basic_attack",
		Skills:      []string{"double_tap", "reload", "tactical_reload", "fan_hammer", "potion"},
	}
}

func TestLevelForExperience(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{1000, 5},
		{4500, 10},
		{999999, 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, character.LevelForExperience(tc.xp), "xp=%d", tc.xp)
	}
}

func TestGainExperienceLevelUpHealsToFull(t *testing.T) {
	c, err := character.Build("Six", gunslingerArch(), nil)
	require.NoError(t, err)
	c.Health = 5

	gained := c.GainExperience(120)
	assert.Equal(t, 1, gained)
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 40, c.MaxHealth)
	assert.Equal(t, c.MaxHealth, c.Health, "level-up restores full health")
}

func TestGainExperienceMultipleLevels(t *testing.T) {
	c, err := character.Build("Six", gunslingerArch(), nil)
	require.NoError(t, err)

	gained := c.GainExperience(650)
	assert.Equal(t, 3, gained)
	assert.Equal(t, 4, c.Level)
	assert.Equal(t, 30+3*character.HealthPerLevel, c.MaxHealth)
}

func TestGainExperienceNoLevelKeepsHealth(t *testing.T) {
	c, err := character.Build("Six", gunslingerArch(), nil)
	require.NoError(t, err)
	c.Health = 12

	gained := c.GainExperience(50)
	assert.Zero(t, gained)
	assert.Equal(t, 12, c.Health)
}

func TestBuildDefaultsAndBounds(t *testing.T) {
	arch := gunslingerArch()

	c, err := character.Build("Six", arch, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, 30, c.MaxHealth)
	// Defaults to the first MaxEquippedSkills of the archetype list.
	assert.Equal(t, []string{"double_tap", "reload", "tactical_reload", "fan_hammer"}, c.Skills)

	_, err = character.Build("", arch, nil)
	require.Error(t, err)

	_, err = character.Build("Six", arch, []string{"double_tap", "reload", "tactical_reload", "fan_hammer", "potion"})
	require.Error(t, err, "over the equipped-skill bound")

	_, err = character.Build("Six", arch, []string{"orbital_strike"})
	require.Error(t, err, "not in the archetype skill list")
}

func TestCombatantMaterialisation(t *testing.T) {
	arch := gunslingerArch()
	c, err := character.Build("Six", arch, []string{"double_tap", "reload"})
	require.NoError(t, err)
	c.GainExperience(100) // level 2

	cbt, err := character.Combatant(c, arch)
	require.NoError(t, err)
	assert.Equal(t, combat.KindParty, cbt.Kind)
	assert.Equal(t, c.MaxHealth, cbt.MaxHealth)
	assert.Equal(t, arch.Stats.Attack+1, cbt.Attack)
	assert.Equal(t, "basic_attack", cbt.BasicAttack)

	ammo, ok := cbt.Pools.Value(resource.Ammo)
	require.True(t, ok)
	assert.Equal(t, 6, ammo)

	// The combatant owns independent skill and pool state.
	cbt.Skills[0] = "mutated"
	assert.Equal(t, "double_tap", c.Skills[0])

	_, err = character.Combatant(c, &archetype.Definition{ID: "netrunner"})
	require.Error(t, err)
}
