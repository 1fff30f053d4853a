package combat

import (
	"sort"

	"github.com/neonreach/engine/internal/game/resource"
)

// StatusSnapshot is one active status in a combatant snapshot.
type StatusSnapshot struct {
	ID                string `json:"id"`
	Stacks            int    `json:"stacks"`
	DurationRemaining int    `json:"duration_remaining"`
}

// CombatantSnapshot is a read-only copy of a combatant's visible state, for
// rendering and persistence.
type CombatantSnapshot struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Party      bool             `json:"party"`
	Health     int              `json:"health"`
	MaxHealth  int              `json:"max_health"`
	Initiative int              `json:"initiative"`
	Downed     bool             `json:"downed"`
	Pools      []resource.Pool  `json:"pools"`
	Statuses   []StatusSnapshot `json:"statuses"`
}

// Snapshot is a read-only copy of the whole encounter state.
type Snapshot struct {
	EncounterID string              `json:"encounter_id"`
	Round       int                 `json:"round"`
	State       string              `json:"state"`
	Result      string              `json:"result"`
	Combatants  []CombatantSnapshot `json:"combatants"`
}

// Snapshot captures the encounter's current state in initiative order.
// Mutating the snapshot does not affect the encounter.
func (e *Encounter) Snapshot() Snapshot {
	snap := Snapshot{
		EncounterID: e.ID,
		Round:       e.Round,
		State:       e.state.String(),
		Result:      e.result.String(),
	}
	for _, c := range e.Combatants {
		cs := CombatantSnapshot{
			ID:         c.ID,
			Name:       c.Name,
			Party:      c.IsParty(),
			Health:     c.Health,
			MaxHealth:  c.MaxHealth,
			Initiative: c.Initiative,
			Downed:     c.Downed,
			Pools:      c.Pools.Snapshot(),
		}
		for _, a := range c.Statuses.All() {
			cs.Statuses = append(cs.Statuses, StatusSnapshot{
				ID:                a.Def.ID,
				Stacks:            a.Stacks,
				DurationRemaining: a.DurationRemaining,
			})
		}
		sort.Slice(cs.Statuses, func(i, j int) bool { return cs.Statuses[i].ID < cs.Statuses[j].ID })
		snap.Combatants = append(snap.Combatants, cs)
	}
	return snap
}
