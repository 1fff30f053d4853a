package skill_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonreach/engine/internal/game/archetype"
	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/game/skill"
	"github.com/neonreach/engine/internal/game/status"
)

// statuses is a StatusQuery over a fixed set of status IDs.
type statuses map[string]bool

func (s statuses) HasAll(ids ...string) bool {
	for _, id := range ids {
		if !s[id] {
			return false
		}
	}
	return true
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func basicAttack() *skill.Definition {
	return &skill.Definition{
		ID:        "basic_attack",
		Name:      "Basic Attack",
		Archetype: skill.ArchetypeCommon,
		Target:    skill.TargetHostile,
		Distance:  damage.Melee,
		Element:   damage.Physical,
		Damage:    "1d6",
		Variants: []skill.Variant{
			{
				When:       skill.Condition{TargetHas: []string{"burning"}},
				Multiplier: floatPtr(2.0),
			},
		},
	}
}

func doubleTap() *skill.Definition {
	return &skill.Definition{
		ID:        "double_tap",
		Name:      "Double Tap",
		Archetype: "gunslinger",
		Target:    skill.TargetHostile,
		Distance:  damage.Ranged,
		Element:   damage.Physical,
		Damage:    "1d8",
		Hits:      2,
		Cost:      &skill.Cost{Resource: resource.Ammo, Amount: 2},
		Variants: []skill.Variant{
			{
				When:       skill.Condition{TargetHas: []string{"burning"}},
				Multiplier: floatPtr(1.5),
			},
		},
	}
}

func TestDefinitionValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, basicAttack().Validate())
		assert.NoError(t, doubleTap().Validate())
	})

	cases := []struct {
		name   string
		mutate func(*skill.Definition)
		want   string
	}{
		{"empty id", func(d *skill.Definition) { d.ID = "" }, "id must not be empty"},
		{"empty archetype", func(d *skill.Definition) { d.Archetype = "" }, "archetype must not be empty"},
		{"bad target", func(d *skill.Definition) { d.Target = "enemy" }, "unknown target"},
		{"bad distance", func(d *skill.Definition) { d.Distance = "astral" }, "unknown distance"},
		{"bad element", func(d *skill.Definition) { d.Element = "sonic" }, "unknown element"},
		{"bad damage expr", func(d *skill.Definition) { d.Damage = "2x6" }, "damage"},
		{"negative multiplier", func(d *skill.Definition) { d.Multiplier = -1 }, "multiplier"},
		{"zero cost", func(d *skill.Definition) { d.Cost = &skill.Cost{Resource: resource.Ammo, Amount: 0} }, "cost amount"},
		{"unknown cost resource", func(d *skill.Definition) { d.Cost = &skill.Cost{Resource: "mana", Amount: 1} }, "cost resource"},
		{"drain without gain", func(d *skill.Definition) { d.DrainFraction = 0.5 }, "drain_fraction requires a gain"},
		{"drain out of range", func(d *skill.Definition) {
			d.Gain = &skill.Cost{Resource: resource.Battery, Amount: 1}
			d.DrainFraction = 1.5
		}, "drain_fraction must be in"},
		{"empty variant condition", func(d *skill.Definition) {
			d.Variants = append(d.Variants, skill.Variant{Multiplier: floatPtr(3)})
		}, "empty condition"},
		{"zero duration application", func(d *skill.Definition) {
			d.Applies = []skill.Application{{Status: "burning", Duration: 0}}
		}, "duration"},
		{"bad application target", func(d *skill.Definition) {
			d.Applies = []skill.Application{{Status: "shell", Duration: 2, To: "enemy"}}
		}, "to must be"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := basicAttack()
			tc.mutate(d)
			err := d.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestResolveBaseSkill(t *testing.T) {
	d := basicAttack()
	eff, err := d.Resolve(statuses{}, statuses{}, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, eff.Variant)
	assert.Equal(t, 1.0, eff.Multiplier)
	assert.Equal(t, "1d6", eff.Damage)
	assert.Equal(t, 1, eff.Hits)
}

func TestResolveVariantOnTargetStatus(t *testing.T) {
	d := basicAttack()

	eff, err := d.Resolve(statuses{}, statuses{"burning": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, eff.Variant)
	assert.Equal(t, 2.0, eff.Multiplier)

	// Other effect fields inherit from the base skill.
	assert.Equal(t, "1d6", eff.Damage)
	assert.Equal(t, damage.Physical, eff.Element)
}

func TestResolveVariantCostOverride(t *testing.T) {
	d := doubleTap()
	d.Variants = []skill.Variant{
		{
			When: skill.Condition{TargetHas: []string{"burning"}},
			Cost: &skill.Cost{Resource: resource.Ammo, Amount: 1},
		},
	}

	eff, err := d.Resolve(statuses{}, statuses{}, nil)
	require.NoError(t, err)
	require.NotNil(t, eff.Cost)
	assert.Equal(t, 2, eff.Cost.Amount)

	eff, err = d.Resolve(statuses{}, statuses{"burning": true}, nil)
	require.NoError(t, err)
	require.NotNil(t, eff.Cost)
	assert.Equal(t, 1, eff.Cost.Amount)
}

func TestResolveMostSpecificVariantWins(t *testing.T) {
	d := basicAttack()
	d.Variants = []skill.Variant{
		{When: skill.Condition{TargetHas: []string{"burning"}}, Multiplier: floatPtr(2.0)},
		{
			When:       skill.Condition{TargetHas: []string{"burning"}, CasterHas: []string{"shell"}},
			Multiplier: floatPtr(3.0),
		},
	}

	eff, err := d.Resolve(statuses{"shell": true}, statuses{"burning": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, eff.Variant)
	assert.Equal(t, 3.0, eff.Multiplier)

	// Without the caster status only the less specific variant holds.
	eff, err = d.Resolve(statuses{}, statuses{"burning": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, eff.Variant)
	assert.Equal(t, 2.0, eff.Multiplier)
}

func TestResolveTieGoesToDeclarationOrder(t *testing.T) {
	d := basicAttack()
	d.Variants = []skill.Variant{
		{When: skill.Condition{TargetHas: []string{"burning"}}, Multiplier: floatPtr(2.0)},
		{When: skill.Condition{TargetHas: []string{"frozen"}}, Multiplier: floatPtr(4.0)},
	}

	eff, err := d.Resolve(statuses{}, statuses{"burning": true, "frozen": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, eff.Variant)
	assert.Equal(t, 2.0, eff.Multiplier)
}

func TestResolveLuaPredicate(t *testing.T) {
	d := basicAttack()
	d.Variants = []skill.Variant{
		{When: skill.Condition{Lua: "target_low_health"}, Hits: intPtr(3)},
	}

	pred := func(name string) (bool, error) {
		return name == "target_low_health", nil
	}
	eff, err := d.Resolve(statuses{}, statuses{}, pred)
	require.NoError(t, err)
	assert.Equal(t, 3, eff.Hits)

	// A nil predicate function never satisfies a Lua clause.
	eff, err = d.Resolve(statuses{}, statuses{}, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, eff.Variant)
}

func TestResolveVariantAppliesReplacesBase(t *testing.T) {
	d := basicAttack()
	d.Applies = []skill.Application{{Status: "burning", Duration: 3}}
	d.Variants = []skill.Variant{
		{
			When:    skill.Condition{TargetHas: []string{"frozen"}},
			Applies: []skill.Application{{Status: "stunned", Duration: 1}},
		},
	}

	eff, err := d.Resolve(statuses{}, statuses{"frozen": true}, nil)
	require.NoError(t, err)
	require.Len(t, eff.Applies, 1)
	assert.Equal(t, "stunned", eff.Applies[0].Status)
}

func TestLoadDirectoryMultiDocument(t *testing.T) {
	dir := t.TempDir()
	content := `id: reload
name: Reload
archetype: gunslinger
target: self
distance: melee
element: physical
gain:
  resource: ammo
  amount: 6
---
id: tactical_reload
name: Tactical Reload
archetype: gunslinger
target: self
distance: melee
element: physical
gain:
  resource: ammo
  amount: 3
applies:
  - status: shell
    duration: 2
    to: caster
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gunslinger.yaml"), []byte(content), 0o644))

	reg, err := skill.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, reg.All(), 2)

	tac, ok := reg.Get("tactical_reload")
	require.True(t, ok)
	require.NotNil(t, tac.Gain)
	assert.Equal(t, resource.Ammo, tac.Gain.Resource)
	require.Len(t, tac.Applies, 1)
	assert.Equal(t, "caster", tac.Applies[0].To)
}

func TestLoadDirectoryRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	content := `id: zap
name: Zap
archetype: netrunner
target: hostile
distance: ranged
element: electrical
mana_cost: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(content), 0o644))

	_, err := skill.LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mana_cost")
}

func TestCrossValidate(t *testing.T) {
	arch := archetype.NewRegistry()
	arch.Register(&archetype.Definition{
		ID:          "gunslinger",
		Name:        "Gunslinger",
		Stats:       archetype.Stats{MaxHealth: 30, Attack: 8, Defense: 5, Speed: 7},
		Pools:       []archetype.PoolDef{{Kind: resource.Ammo, Min: 0, Max: 6, Initial: 6}},
		BasicAttack: "basic_attack",
		Skills:      []string{"double_tap"},
	})

	stats := status.NewRegistry()
	stats.Register(&status.Definition{
		ID: "burning", Name: "Burning", DurationType: status.DurationRounds,
		MaxStacks: 5, StackPolicy: status.PolicyStack,
	})

	t.Run("valid", func(t *testing.T) {
		reg := skill.NewRegistry()
		reg.Register(basicAttack())
		reg.Register(doubleTap())
		assert.NoError(t, reg.CrossValidate(arch, stats))
	})

	t.Run("unknown archetype", func(t *testing.T) {
		reg := skill.NewRegistry()
		reg.Register(basicAttack())
		d := doubleTap()
		d.Archetype = "cowboy"
		reg.Register(d)
		err := reg.CrossValidate(arch, stats)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown archetype "cowboy"`)
	})

	t.Run("cost on unowned pool", func(t *testing.T) {
		reg := skill.NewRegistry()
		reg.Register(basicAttack())
		d := doubleTap()
		d.Cost = &skill.Cost{Resource: resource.Heat, Amount: 2}
		reg.Register(d)
		err := reg.CrossValidate(arch, stats)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not own")
	})

	t.Run("unknown status in variant", func(t *testing.T) {
		reg := skill.NewRegistry()
		d := basicAttack()
		d.Variants[0].When.TargetHas = []string{"cursed"}
		reg.Register(d)
		reg.Register(doubleTap())
		err := reg.CrossValidate(arch, stats)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown status "cursed"`)
	})

	t.Run("basic attack missing", func(t *testing.T) {
		reg := skill.NewRegistry()
		reg.Register(doubleTap())
		err := reg.CrossValidate(arch, stats)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `basic_attack "basic_attack" is not a known skill`)
	})
}
