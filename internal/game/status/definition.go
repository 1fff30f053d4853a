// Package status implements timed status effects: YAML-backed definitions,
// per-combatant active sets with duration ticking, and the stat modifiers
// active statuses impose.
package status

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/dice"
)

// Duration type values accepted by Definition.DurationType.
const (
	DurationRounds    = "rounds"
	DurationPermanent = "permanent"
)

// Stack policy values accepted by Definition.StackPolicy.
const (
	// PolicyRefresh: reapplying extends the duration, stacks stay at 1.
	PolicyRefresh = "refresh"
	// PolicyStack: reapplying adds stacks (capped at MaxStacks) and extends
	// the duration.
	PolicyStack = "stack"
)

// DoT is a damage-over-time component applied at each tick, scaled by stacks.
type DoT struct {
	Element damage.Element `yaml:"element"`
	Damage  string         `yaml:"damage"` // dice expression per stack
}

// Definition is the static definition of a status effect, loaded from YAML.
type Definition struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	DurationType string `yaml:"duration_type"` // "rounds" | "permanent"
	MaxStacks    int    `yaml:"max_stacks"`    // 0 = unstackable
	StackPolicy  string `yaml:"stack_policy"`  // "refresh" | "stack"

	// Harmful marks debuffs; cleanse removes only harmful statuses.
	Harmful bool `yaml:"harmful"`

	// Percentage deltas to damage dealt/taken while active, per stack.
	// -25 means 25% less, +50 means 50% more.
	DamageDealtPct int `yaml:"damage_dealt_pct"`
	DamageTakenPct int `yaml:"damage_taken_pct"`
	// SpeedDelta shifts initiative per stack (haste positive, slow negative).
	SpeedDelta int `yaml:"speed_delta"`

	// RestrictActions lists blocked action classes: "melee", "ranged", "skill".
	RestrictActions []string `yaml:"restrict_actions"`

	DoT *DoT `yaml:"dot"`

	// Lua hook function names, dispatched through the scripting manager.
	LuaOnTick   string `yaml:"lua_on_tick"`
	LuaOnExpire string `yaml:"lua_on_expire"`
}

// Validate checks the definition's structural invariants.
//
// Postcondition: Returns nil iff ID is non-empty, DurationType and StackPolicy
// are known values, MaxStacks >= 0, and any DoT parses.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("status: id must not be empty")
	}
	if d.DurationType != DurationRounds && d.DurationType != DurationPermanent {
		return fmt.Errorf("status %q: duration_type must be %q or %q, got %q",
			d.ID, DurationRounds, DurationPermanent, d.DurationType)
	}
	if d.StackPolicy == "" {
		d.StackPolicy = PolicyRefresh
	}
	if d.StackPolicy != PolicyRefresh && d.StackPolicy != PolicyStack {
		return fmt.Errorf("status %q: stack_policy must be %q or %q, got %q",
			d.ID, PolicyRefresh, PolicyStack, d.StackPolicy)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("status %q: max_stacks must be >= 0, got %d", d.ID, d.MaxStacks)
	}
	if d.StackPolicy == PolicyStack && d.MaxStacks < 2 {
		return fmt.Errorf("status %q: stack_policy %q requires max_stacks >= 2", d.ID, PolicyStack)
	}
	for _, a := range d.RestrictActions {
		switch a {
		case "melee", "ranged", "skill":
		default:
			return fmt.Errorf("status %q: unknown restricted action %q", d.ID, a)
		}
	}
	if d.DoT != nil {
		if !d.DoT.Element.Valid() || d.DoT.Element == damage.Healing {
			return fmt.Errorf("status %q: dot element %q is not a damage element", d.ID, d.DoT.Element)
		}
		if _, err := dice.Parse(d.DoT.Damage); err != nil {
			return fmt.Errorf("status %q: dot damage: %w", d.ID, err)
		}
	}
	return nil
}

// Registry holds all known status Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and must pass Validate.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Definitions.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition
// with strict field checking, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error naming the first file
// that fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
