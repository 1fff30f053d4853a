package combat

import (
	"sort"

	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/status"
)

// RollInitiative rolls initiative for all combatants and sets their
// Initiative field. Formula: d20 + Speed + status speed delta. The raw roll
// is kept so RefreshInitiative can re-apply speed deltas without new dice.
//
// Precondition: combatants and src must be non-nil.
func RollInitiative(combatants []*Combatant, src dice.Source) {
	for _, c := range combatants {
		c.InitiativeRoll = src.Intn(20) + 1
		c.Initiative = c.InitiativeRoll + c.Speed + status.SpeedDelta(c.Statuses)
	}
}

// RefreshInitiative recomputes each combatant's initiative from its stored
// roll and current speed deltas, so haste and slow shift turn order from the
// next round on. No dice are drawn, keeping seeded encounters reproducible.
func RefreshInitiative(combatants []*Combatant) {
	for _, c := range combatants {
		c.Initiative = c.InitiativeRoll + c.Speed + status.SpeedDelta(c.Statuses)
	}
}

// SortByInitiative sorts combatants in place, highest initiative first.
// Ties break by name, then ID, so turn order is fully deterministic.
func SortByInitiative(combatants []*Combatant) {
	sort.SliceStable(combatants, func(i, j int) bool {
		a, b := combatants[i], combatants[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
