package enemy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/enemy"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/game/skill"
)

func droneTemplate() *enemy.Template {
	return &enemy.Template{
		ID:          "scrap-drone",
		Name:        "Scrap Drone",
		Description: "A salvaged security drone held together with solder and spite.",
		Level:       2,
		Experience:  40,
		Stats: enemy.Stats{
			MaxHealth: 25,
			Attack:    6,
			Defense:   5,
			Speed:     4,
		},
		Resists: damage.Resistances{
			damage.Electrical: 1.5,
			damage.Toxic:      0.5,
		},
		Pools: []enemy.PoolDef{
			{Kind: resource.Battery, Min: 0, Max: 10, Initial: 10},
		},
		Rules: []resource.Rule{
			{Trigger: resource.TriggerTurnStart, Kind: resource.Battery, Delta: 1},
		},
		BasicAttack: "claw",
		Skills:      []string{"overcharge"},
	}
}

func testSkills(t *testing.T) *skill.Registry {
	t.Helper()
	reg := skill.NewRegistry()
	reg.Register(&skill.Definition{
		ID:        "claw",
		Name:      "Claw",
		Archetype: skill.ArchetypeCommon,
		Target:    skill.TargetHostile,
		Distance:  damage.Melee,
		Element:   damage.Physical,
		Damage:    "1d4",
	})
	reg.Register(&skill.Definition{
		ID:        "overcharge",
		Name:      "Overcharge",
		Archetype: skill.ArchetypeCommon,
		Target:    skill.TargetHostile,
		Distance:  damage.Ranged,
		Element:   damage.Electrical,
		Damage:    "2d6",
		Cost:      &skill.Cost{Resource: resource.Battery, Amount: 4},
	})
	return reg
}

func TestTemplate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*enemy.Template)
		wantErr string
	}{
		{name: "valid", mutate: func(*enemy.Template) {}},
		{
			name:    "empty id",
			mutate:  func(tm *enemy.Template) { tm.ID = "" },
			wantErr: "id must not be empty",
		},
		{
			name:    "empty name",
			mutate:  func(tm *enemy.Template) { tm.Name = "" },
			wantErr: "name must not be empty",
		},
		{
			name:    "zero level",
			mutate:  func(tm *enemy.Template) { tm.Level = 0 },
			wantErr: "level must be >= 1",
		},
		{
			name:    "negative experience",
			mutate:  func(tm *enemy.Template) { tm.Experience = -1 },
			wantErr: "experience must be >= 0",
		},
		{
			name:    "zero max health",
			mutate:  func(tm *enemy.Template) { tm.Stats.MaxHealth = 0 },
			wantErr: "max_health must be >= 1",
		},
		{
			name:    "crit out of range",
			mutate:  func(tm *enemy.Template) { tm.Stats.Crit = 1.5 },
			wantErr: "crit must be in [0, 1]",
		},
		{
			name:    "negative resistance",
			mutate:  func(tm *enemy.Template) { tm.Resists[damage.Fire] = -0.5 },
			wantErr: "multiplier must be >= 0",
		},
		{
			name: "duplicate pool",
			mutate: func(tm *enemy.Template) {
				tm.Pools = append(tm.Pools, enemy.PoolDef{Kind: resource.Battery, Min: 0, Max: 5})
			},
			wantErr: "duplicate pool",
		},
		{
			name: "rule targets unowned pool",
			mutate: func(tm *enemy.Template) {
				tm.Rules = append(tm.Rules, resource.Rule{Trigger: resource.TriggerKill, Kind: resource.Ammo, Delta: 1})
			},
			wantErr: "does not own",
		},
		{
			name:    "missing basic attack",
			mutate:  func(tm *enemy.Template) { tm.BasicAttack = "" },
			wantErr: "basic_attack must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := droneTemplate()
			tt.mutate(tmpl)
			err := tmpl.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistry_CrossValidate(t *testing.T) {
	skills := testSkills(t)

	t.Run("valid template passes", func(t *testing.T) {
		reg := enemy.NewRegistry()
		reg.Register(droneTemplate())
		assert.NoError(t, reg.CrossValidate(skills))
	})

	t.Run("unknown skill rejected", func(t *testing.T) {
		tmpl := droneTemplate()
		tmpl.Skills = append(tmpl.Skills, "rocket-barrage")
		reg := enemy.NewRegistry()
		reg.Register(tmpl)
		err := reg.CrossValidate(skills)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `skill "rocket-barrage" is not defined`)
	})

	t.Run("skill cost without matching pool rejected", func(t *testing.T) {
		tmpl := droneTemplate()
		tmpl.Pools = []enemy.PoolDef{{Kind: resource.Heat, Min: 0, Max: 10}}
		tmpl.Rules = nil
		reg := enemy.NewRegistry()
		reg.Register(tmpl)
		err := reg.CrossValidate(skills)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no such pool")
	})

	t.Run("basic attack with cost rejected", func(t *testing.T) {
		tmpl := droneTemplate()
		tmpl.BasicAttack = "overcharge"
		reg := enemy.NewRegistry()
		reg.Register(tmpl)
		err := reg.CrossValidate(skills)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not have a cost")
	})
}

func TestSpawn(t *testing.T) {
	tmpl := droneTemplate()
	require.NoError(t, tmpl.Validate())

	c := enemy.Spawn(tmpl)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, combat.KindEnemy, c.Kind)
	assert.Equal(t, "Scrap Drone", c.Name)
	assert.Equal(t, "scrap-drone", c.Archetype)
	assert.Equal(t, 25, c.Health)
	assert.Equal(t, 25, c.MaxHealth)
	assert.False(t, c.Downed)
	assert.Equal(t, "claw", c.BasicAttack)
	assert.Equal(t, []string{"overcharge"}, c.Skills)

	battery, ok := c.Pools.Value(resource.Battery)
	require.True(t, ok)
	assert.Equal(t, 10, battery)

	assert.InDelta(t, 1.5, c.Resists.Multiplier(damage.Electrical), 1e-9)
	assert.InDelta(t, 1.0, c.Resists.Multiplier(damage.Fire), 1e-9)
}

func TestSpawn_InstancesAreIndependent(t *testing.T) {
	tmpl := droneTemplate()
	require.NoError(t, tmpl.Validate())

	a := enemy.Spawn(tmpl)
	b := enemy.Spawn(tmpl)

	assert.NotEqual(t, a.ID, b.ID)

	a.ApplyDamage(10)
	_, err := a.Pools.ApplyDelta(resource.Battery, -6, resource.Clamp)
	require.NoError(t, err)
	a.Skills[0] = "something-else"

	assert.Equal(t, 25, b.Health)
	bBattery, _ := b.Pools.Value(resource.Battery)
	assert.Equal(t, 10, bBattery)
	assert.Equal(t, []string{"overcharge"}, b.Skills)
	assert.Equal(t, []string{"overcharge"}, tmpl.Skills)
}

func TestSpawnGroup(t *testing.T) {
	tmpl := droneTemplate()
	require.NoError(t, tmpl.Validate())

	group := enemy.SpawnGroup(tmpl, 3)
	require.Len(t, group, 3)

	seen := make(map[string]bool)
	for _, c := range group {
		assert.False(t, seen[c.ID], "instance IDs must be unique")
		seen[c.ID] = true
		assert.Equal(t, 25, c.Health)
	}
}

func TestSpawn_PoolsStartAtInitial(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 50).Draw(t, "max")
		initial := rapid.IntRange(0, max).Draw(t, "initial")

		tmpl := droneTemplate()
		tmpl.Pools = []enemy.PoolDef{{Kind: resource.Battery, Min: 0, Max: max, Initial: initial}}
		tmpl.Rules = nil
		require.NoError(t, tmpl.Validate())

		c := enemy.Spawn(tmpl)
		got, ok := c.Pools.Value(resource.Battery)
		require.True(t, ok)
		assert.Equal(t, initial, got)
	})
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeEnemyYAML(t, dir, "scrap-drone.yaml", `
id: scrap-drone
name: Scrap Drone
description: A salvaged security drone.
level: 2
experience: 40
stats:
  max_health: 25
  attack: 6
  defense: 5
  speed: 4
resistances:
  electrical: 1.5
  toxic: 0.5
resources:
  - resource: battery
    min: 0
    max: 10
    initial: 10
rules:
  - trigger: turn_start
    resource: battery
    delta: 1
basic_attack: claw
skills:
  - overcharge
`)
	writeEnemyYAML(t, dir, "street-ronin.yaml", `
id: street-ronin
name: Street Ronin
level: 3
experience: 75
stats:
  max_health: 38
  attack: 9
  defense: 7
  speed: 6
  crit: 0.1
resources:
  - resource: heat
    min: 0
    max: 100
basic_attack: claw
`)
	writeEnemyYAML(t, dir, "notes.txt", "not yaml, must be skipped")

	reg, err := enemy.LoadDirectory(dir)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "scrap-drone", all[0].ID)
	assert.Equal(t, "street-ronin", all[1].ID)

	drone, ok := reg.Get("scrap-drone")
	require.True(t, ok)
	assert.Equal(t, 40, drone.Experience)
	assert.InDelta(t, 1.5, drone.Resists.Multiplier(damage.Electrical), 1e-9)
	require.Len(t, drone.Rules, 1)
	assert.Equal(t, resource.TriggerTurnStart, drone.Rules[0].Trigger)
}

func TestLoadDirectory_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeEnemyYAML(t, dir, "bad.yaml", `
id: glitch
name: Glitch
level: 1
experience: 0
hit_points: 20
stats:
  max_health: 20
  attack: 4
  defense: 4
basic_attack: claw
`)

	_, err := enemy.LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hit_points")
}

func TestLoadDirectory_RejectsInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	writeEnemyYAML(t, dir, "bad.yaml", `
id: glitch
name: Glitch
level: 0
stats:
  max_health: 20
  attack: 4
  defense: 4
basic_attack: claw
`)

	_, err := enemy.LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level must be >= 1")
}

func writeEnemyYAML(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
