// Package damage defines the damage taxonomy shared by skills, statuses, and
// the effect resolver: elements, attack distance, and per-element resistances.
package damage

import "fmt"

// Element classifies a damage (or healing) component.
type Element string

const (
	Physical   Element = "physical"
	Fire       Element = "fire"
	Ice        Element = "ice"
	Electrical Element = "electrical"
	Toxic      Element = "toxic"
	Light      Element = "light"
	Dark       Element = "dark"
	// Healing restores health instead of removing it.
	Healing Element = "healing"
)

// Valid reports whether e names a known element.
func (e Element) Valid() bool {
	switch e {
	case Physical, Fire, Ice, Electrical, Toxic, Light, Dark, Healing:
		return true
	}
	return false
}

// Distance classifies how a skill reaches its target.
type Distance string

const (
	Melee  Distance = "melee"
	Ranged Distance = "ranged"
)

// Valid reports whether d names a known distance.
func (d Distance) Valid() bool {
	return d == Melee || d == Ranged
}

// Resistances maps an element to a damage multiplier for one combatant.
// 1.0 is neutral, below 1.0 resists, above 1.0 is a vulnerability.
// Elements absent from the map are neutral.
type Resistances map[Element]float64

// Multiplier returns the resistance multiplier for e.
//
// Postcondition: Returns 1.0 for unmapped elements.
func (r Resistances) Multiplier(e Element) float64 {
	if r == nil {
		return 1.0
	}
	if m, ok := r[e]; ok {
		return m
	}
	return 1.0
}

// Validate rejects negative multipliers and unknown elements.
func (r Resistances) Validate() error {
	for e, m := range r {
		if !e.Valid() {
			return fmt.Errorf("resistances: unknown element %q", e)
		}
		if m < 0 {
			return fmt.Errorf("resistances: %s multiplier must be >= 0, got %g", e, m)
		}
	}
	return nil
}
