package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonreach/engine/internal/game/status"
)

func shell() *status.Definition {
	return &status.Definition{ID: "shell", DurationType: "rounds", DamageTakenPct: -50}
}

func haste() *status.Definition {
	return &status.Definition{ID: "haste", DurationType: "rounds", SpeedDelta: 4}
}

func slow() *status.Definition {
	return &status.Definition{ID: "slow", DurationType: "rounds", SpeedDelta: -4}
}

func weakened() *status.Definition {
	return &status.Definition{ID: "weakened", DurationType: "rounds", MaxStacks: 3, StackPolicy: "stack", DamageDealtPct: -25}
}

func stunned() *status.Definition {
	return &status.Definition{ID: "stunned", DurationType: "rounds", RestrictActions: []string{"melee", "ranged", "skill"}}
}

func TestDamageTakenMultiplier(t *testing.T) {
	s := status.NewActiveSet()
	assert.InDelta(t, 1.0, status.DamageTakenMultiplier(s), 1e-9)

	require.NoError(t, s.Apply(shell(), 1, 1, 0))
	assert.InDelta(t, 0.5, status.DamageTakenMultiplier(s), 1e-9)
}

func TestDamageDealtMultiplier_StackScaled(t *testing.T) {
	s := status.NewActiveSet()
	require.NoError(t, s.Apply(weakened(), 2, 2, 0))
	assert.InDelta(t, 0.5, status.DamageDealtMultiplier(s), 1e-9)

	// Stacked to the cap the multiplier floors at zero rather than negative.
	require.NoError(t, s.Apply(weakened(), 3, 2, 0))
	assert.InDelta(t, 0.25, status.DamageDealtMultiplier(s), 1e-9)
}

func TestSpeedDelta(t *testing.T) {
	s := status.NewActiveSet()
	assert.Equal(t, 0, status.SpeedDelta(s))
	require.NoError(t, s.Apply(haste(), 1, 2, 0))
	assert.Equal(t, 4, status.SpeedDelta(s))
	require.NoError(t, s.Apply(slow(), 1, 2, 0))
	assert.Equal(t, 0, status.SpeedDelta(s))
}

func TestIsActionRestricted(t *testing.T) {
	s := status.NewActiveSet()
	assert.False(t, status.IsActionRestricted(s, "melee"))
	require.NoError(t, s.Apply(stunned(), 1, 1, 0))
	assert.True(t, status.IsActionRestricted(s, "melee"))
	assert.True(t, status.IsActionRestricted(s, "skill"))
	assert.True(t, status.IsFullyRestricted(s))
}

func TestIsFullyRestricted_PartialBlockIsNotFull(t *testing.T) {
	blind := &status.Definition{ID: "blinded", DurationType: "rounds", RestrictActions: []string{"ranged"}}
	s := status.NewActiveSet()
	require.NoError(t, s.Apply(blind, 1, 2, 0))
	assert.True(t, status.IsActionRestricted(s, "ranged"))
	assert.False(t, status.IsFullyRestricted(s))
}
