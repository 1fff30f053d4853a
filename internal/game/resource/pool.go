// Package resource implements per-combatant typed resource pools with bounds
// and the declarative trigger rules that generate or drain them.
package resource

import (
	"errors"
	"fmt"
)

// Kind identifies a resource type. Each archetype owns a distinct subset.
type Kind string

// The resource kinds of the five playable archetypes.
const (
	Ammo    Kind = "ammo"    // Gunslinger
	RAM     Kind = "ram"     // Netrunner
	Heat    Kind = "heat"    // Netrunner
	Prayers Kind = "prayers" // Technopriest
	Sun     Kind = "sun"     // Clairvoyant
	Moon    Kind = "moon"    // Clairvoyant
	Battery Kind = "battery" // Nanovampire
)

// Valid reports whether k names a known resource kind.
func (k Kind) Valid() bool {
	switch k {
	case Ammo, RAM, Heat, Prayers, Sun, Moon, Battery:
		return true
	}
	return false
}

// ErrUnknownResource is returned when a Set has no pool of the requested kind.
var ErrUnknownResource = errors.New("unknown resource")

// ErrInsufficientResource is returned by strict deltas that would cross a bound.
var ErrInsufficientResource = errors.New("insufficient resource")

// Mode selects how ApplyDelta treats a delta that would cross a pool bound.
type Mode int

const (
	// Clamp applies as much of the delta as the bounds allow. Used for
	// trigger-driven generation and regenerative flows.
	Clamp Mode = iota
	// Strict rejects the whole delta if any part would cross a bound.
	// Used for skill costs: partial payment is never acceptable.
	Strict
)

// Pool is one bounded resource pool.
//
// Invariant: Min <= Current <= Max at all times.
type Pool struct {
	Kind    Kind
	Current int
	Min     int
	Max     int
}

// Validate checks the pool's structural invariants.
//
// Postcondition: Returns nil iff Kind is valid, Min <= Max, and Current is in [Min, Max].
func (p Pool) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("pool: unknown kind %q", p.Kind)
	}
	if p.Min > p.Max {
		return fmt.Errorf("pool %s: min %d exceeds max %d", p.Kind, p.Min, p.Max)
	}
	if p.Current < p.Min || p.Current > p.Max {
		return fmt.Errorf("pool %s: current %d outside [%d, %d]", p.Kind, p.Current, p.Min, p.Max)
	}
	return nil
}

// Result reports what an ApplyDelta call actually did.
type Result struct {
	Kind      Kind
	Requested int
	Applied   int
	// Clamped is true when Applied differs from Requested.
	Clamped bool
}

// Set holds all resource pools of one combatant.
//
// Set is not safe for concurrent use; the encounter loop is its single writer
// (no two combatants' sets are ever mutated concurrently).
type Set struct {
	pools map[Kind]*Pool
	order []Kind
}

// NewSet creates an empty resource Set.
func NewSet() *Set {
	return &Set{pools: make(map[Kind]*Pool)}
}

// AddPool registers a pool with the set.
//
// Precondition: p must pass Validate; no pool of the same kind may exist yet.
// Postcondition: Value(p.Kind) returns p.Current.
func (s *Set) AddPool(p Pool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := s.pools[p.Kind]; exists {
		return fmt.Errorf("pool %s already registered", p.Kind)
	}
	cp := p
	s.pools[p.Kind] = &cp
	s.order = append(s.order, p.Kind)
	return nil
}

// Has reports whether the set owns a pool of the given kind.
func (s *Set) Has(kind Kind) bool {
	_, ok := s.pools[kind]
	return ok
}

// Value returns the current value of the pool of the given kind.
//
// Postcondition: Returns (value, true) if the pool exists, (0, false) otherwise.
func (s *Set) Value(kind Kind) (int, bool) {
	p, ok := s.pools[kind]
	if !ok {
		return 0, false
	}
	return p.Current, true
}

// CanAfford reports whether the pool of the given kind can pay cost without
// dropping below its minimum. A missing pool can afford nothing but a zero cost.
//
// Postcondition: Returns true iff a Strict ApplyDelta of -cost would succeed.
func (s *Set) CanAfford(kind Kind, cost int) bool {
	if cost <= 0 {
		return true
	}
	p, ok := s.pools[kind]
	if !ok {
		return false
	}
	return p.Current-cost >= p.Min
}

// ApplyDelta adjusts the pool of the given kind by amount.
//
// In Clamp mode the delta is partially applied up to the nearest bound and the
// Result reports how much landed. In Strict mode a delta that would cross a
// bound is rejected whole with ErrInsufficientResource and the pool is
// unchanged.
//
// Postcondition: the pool invariant Min <= Current <= Max holds; in Strict
// mode Result.Applied == Result.Requested on success.
func (s *Set) ApplyDelta(kind Kind, amount int, mode Mode) (Result, error) {
	p, ok := s.pools[kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownResource, kind)
	}

	target := p.Current + amount
	if mode == Strict {
		if target < p.Min || target > p.Max {
			return Result{}, fmt.Errorf("%w: %s delta %d from %d outside [%d, %d]",
				ErrInsufficientResource, kind, amount, p.Current, p.Min, p.Max)
		}
		p.Current = target
		return Result{Kind: kind, Requested: amount, Applied: amount}, nil
	}

	clamped := target
	if clamped > p.Max {
		clamped = p.Max
	}
	if clamped < p.Min {
		clamped = p.Min
	}
	applied := clamped - p.Current
	p.Current = clamped
	return Result{
		Kind:      kind,
		Requested: amount,
		Applied:   applied,
		Clamped:   applied != amount,
	}, nil
}

// Fill sets the pool of the given kind to its maximum.
//
// Postcondition: Returns the Clamp-mode Result of topping the pool up.
func (s *Set) Fill(kind Kind) (Result, error) {
	p, ok := s.pools[kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownResource, kind)
	}
	return s.ApplyDelta(kind, p.Max-p.Current, Clamp)
}

// Snapshot returns a copy of all pools in registration order.
func (s *Set) Snapshot() []Pool {
	out := make([]Pool, 0, len(s.order))
	for _, kind := range s.order {
		out = append(out, *s.pools[kind])
	}
	return out
}
