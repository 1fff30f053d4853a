package status

import (
	"fmt"
	"sort"
)

// Active tracks one applied status on a combatant.
type Active struct {
	Def               *Definition
	Stacks            int
	DurationRemaining int // -1 = permanent
	// Magnitude scales effects that carry a strength beyond stacks
	// (regen amount, guard percent). Zero means the definition default.
	Magnitude int
	// AppliedBy is the combatant ID of the most recent applier. Expiry
	// reactions (resource refunds) fire on the applier as well as the owner.
	AppliedBy string
}

// Expired describes one status removed by a Tick call.
type Expired struct {
	ID        string
	Def       *Definition
	Stacks    int
	AppliedBy string
}

// ActiveSet tracks all statuses currently applied to one combatant.
// It is not safe for concurrent use; the encounter loop serialises access.
type ActiveSet struct {
	statuses map[string]*Active
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{statuses: make(map[string]*Active)}
}

// Apply adds or re-applies a status on this combatant.
//
// For a new status, stacks are capped at MaxStacks (1 when unstackable) and
// duration is stored as given (-1 = permanent). Re-application follows the
// definition's StackPolicy: refresh keeps stacks and extends duration to
// max(existing, duration); stack adds stacks (capped) and extends duration the
// same way. Magnitude keeps the larger of old and new.
//
// Precondition: def must not be nil; stacks >= 1.
// Postcondition: Has(def.ID) is true.
func (s *ActiveSet) Apply(def *Definition, stacks, duration, magnitude int) error {
	return s.ApplyFrom(def, stacks, duration, magnitude, "")
}

// ApplyFrom is Apply with the applier's combatant ID recorded, so expiry
// reactions can reach the caster of the status.
func (s *ActiveSet) ApplyFrom(def *Definition, stacks, duration, magnitude int, appliedBy string) error {
	if def == nil {
		return fmt.Errorf("status: Apply: def must not be nil")
	}
	if stacks < 1 {
		return fmt.Errorf("status %q: Apply: stacks must be >= 1, got %d", def.ID, stacks)
	}

	if existing, ok := s.statuses[def.ID]; ok {
		if def.StackPolicy == PolicyStack {
			newStacks := existing.Stacks + stacks
			if def.MaxStacks > 0 && newStacks > def.MaxStacks {
				newStacks = def.MaxStacks
			}
			existing.Stacks = newStacks
		}
		if duration > existing.DurationRemaining && existing.DurationRemaining != -1 {
			existing.DurationRemaining = duration
		}
		if magnitude > existing.Magnitude {
			existing.Magnitude = magnitude
		}
		if appliedBy != "" {
			existing.AppliedBy = appliedBy
		}
		return nil
	}

	capped := stacks
	if def.MaxStacks == 0 {
		capped = 1
	} else if capped > def.MaxStacks {
		capped = def.MaxStacks
	}
	if def.DurationType == DurationPermanent {
		duration = -1
	}
	s.statuses[def.ID] = &Active{
		Def:               def,
		Stacks:            capped,
		DurationRemaining: duration,
		Magnitude:         magnitude,
		AppliedBy:         appliedBy,
	}
	return nil
}

// Remove deletes the status with the given ID from the set.
// If the status is not present, Remove is a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id string) {
	delete(s.statuses, id)
}

// Clear removes every active status.
//
// Postcondition: the set is empty; returns the IDs that were removed.
func (s *ActiveSet) Clear() []string {
	removed := make([]string, 0, len(s.statuses))
	for id := range s.statuses {
		removed = append(removed, id)
	}
	for _, id := range removed {
		delete(s.statuses, id)
	}
	return removed
}

// Cleanse removes every harmful status, leaving buffs in place.
//
// Postcondition: no remaining status has Def.Harmful set; returns the IDs
// that were removed, sorted for deterministic outcome records.
func (s *ActiveSet) Cleanse() []string {
	var removed []string
	for id, a := range s.statuses {
		if a.Def.Harmful {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		delete(s.statuses, id)
	}
	return removed
}

// Tick decrements the DurationRemaining of all "rounds"-type statuses by 1.
// Statuses that reach 0 are removed and reported, ordered by ID, so callers
// can fire status_expired resource rules and lua_on_expire hooks.
//
// Postcondition: For every entry in the returned slice, Has(ID) is false.
// Permanent statuses (DurationRemaining == -1) are not affected.
func (s *ActiveSet) Tick() []Expired {
	var expired []Expired
	for _, id := range s.IDs() {
		a := s.statuses[id]
		if a.Def.DurationType != DurationRounds || a.DurationRemaining < 0 {
			continue
		}
		a.DurationRemaining--
		if a.DurationRemaining <= 0 {
			expired = append(expired, Expired{ID: id, Def: a.Def, Stacks: a.Stacks, AppliedBy: a.AppliedBy})
			delete(s.statuses, id)
		}
	}
	return expired
}

// Has reports whether the status with id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.statuses[id]
	return ok
}

// HasAll reports whether every listed status is currently active.
func (s *ActiveSet) HasAll(ids ...string) bool {
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Stacks returns the current stack count for status id, or 0 if not present.
func (s *ActiveSet) Stacks(id string) int {
	if a, ok := s.statuses[id]; ok {
		return a.Stacks
	}
	return 0
}

// Get returns the Active entry for id, or (nil, false).
func (s *ActiveSet) Get(id string) (*Active, bool) {
	a, ok := s.statuses[id]
	return a, ok
}

// All returns the active statuses ordered by ID. Callers that roll dice per
// status rely on the ordering to keep seeded encounters reproducible.
// The slice is a new allocation, but the pointed-to Active values are shared;
// callers must not modify them.
func (s *ActiveSet) All() []*Active {
	out := make([]*Active, 0, len(s.statuses))
	for _, id := range s.IDs() {
		out = append(out, s.statuses[id])
	}
	return out
}

// IDs returns the IDs of all active statuses, sorted.
func (s *ActiveSet) IDs() []string {
	out := make([]string, 0, len(s.statuses))
	for id := range s.statuses {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
