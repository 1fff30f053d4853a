// Package archetype defines the five playable character archetypes and their
// resource models, loaded from YAML content files.
package archetype

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/resource"
)

// Stats holds the base combat stats an archetype grants at level 1.
type Stats struct {
	MaxHealth int     `yaml:"max_health"`
	Attack    int     `yaml:"attack"`
	Defense   int     `yaml:"defense"`
	Speed     int     `yaml:"speed"`
	Crit      float64 `yaml:"crit"`  // chance in [0, 1]
	Evade     float64 `yaml:"evade"` // chance in [0, 1]
}

// PoolDef declares one resource pool an archetype owns.
type PoolDef struct {
	Kind    resource.Kind `yaml:"resource"`
	Min     int           `yaml:"min"`
	Max     int           `yaml:"max"`
	Initial int           `yaml:"initial"`
}

// Definition is one playable archetype: identity, base stats, resource pools,
// the trigger rules that drive resource flow, and the skill loadout.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Stats   Stats              `yaml:"stats"`
	Resists damage.Resistances `yaml:"resistances"`
	Pools   []PoolDef          `yaml:"resources"`
	Rules   []resource.Rule    `yaml:"rules"`

	// BasicAttack is the zero-cost fallback skill every archetype can always use.
	BasicAttack string `yaml:"basic_attack"`
	// Skills is the archetype's full skill list; a character equips a subset.
	Skills []string `yaml:"skills"`
}

// Validate checks the definition's structural invariants. Cross-references to
// skills are checked separately once the skill registry is loaded.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("archetype: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("archetype %q: name must not be empty", d.ID)
	}
	if d.Stats.MaxHealth < 1 {
		return fmt.Errorf("archetype %q: stats.max_health must be >= 1", d.ID)
	}
	if d.Stats.Attack < 1 {
		return fmt.Errorf("archetype %q: stats.attack must be >= 1", d.ID)
	}
	if d.Stats.Defense < 1 {
		return fmt.Errorf("archetype %q: stats.defense must be >= 1", d.ID)
	}
	if d.Stats.Crit < 0 || d.Stats.Crit > 1 {
		return fmt.Errorf("archetype %q: stats.crit must be in [0, 1], got %g", d.ID, d.Stats.Crit)
	}
	if d.Stats.Evade < 0 || d.Stats.Evade > 1 {
		return fmt.Errorf("archetype %q: stats.evade must be in [0, 1], got %g", d.ID, d.Stats.Evade)
	}
	if err := d.Resists.Validate(); err != nil {
		return fmt.Errorf("archetype %q: %w", d.ID, err)
	}
	if len(d.Pools) == 0 {
		return fmt.Errorf("archetype %q: at least one resource pool is required", d.ID)
	}
	seen := make(map[resource.Kind]bool)
	for _, p := range d.Pools {
		if seen[p.Kind] {
			return fmt.Errorf("archetype %q: duplicate pool %s", d.ID, p.Kind)
		}
		seen[p.Kind] = true
		pool := resource.Pool{Kind: p.Kind, Current: p.Initial, Min: p.Min, Max: p.Max}
		if err := pool.Validate(); err != nil {
			return fmt.Errorf("archetype %q: %w", d.ID, err)
		}
	}
	for i, r := range d.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("archetype %q: rule %d: %w", d.ID, i, err)
		}
		if !seen[r.Kind] {
			return fmt.Errorf("archetype %q: rule %d targets pool %s the archetype does not own", d.ID, i, r.Kind)
		}
	}
	if d.BasicAttack == "" {
		return fmt.Errorf("archetype %q: basic_attack must not be empty", d.ID)
	}
	return nil
}

// BuildPools creates a fresh resource Set initialised to the archetype's pools.
//
// Precondition: d must have passed Validate.
// Postcondition: the returned set owns every declared pool at its initial value.
func (d *Definition) BuildPools() *resource.Set {
	set := resource.NewSet()
	for _, p := range d.Pools {
		// Validate already proved each pool well-formed.
		_ = set.AddPool(resource.Pool{Kind: p.Kind, Current: p.Initial, Min: p.Min, Max: p.Max})
	}
	return set
}

// BuildRules creates the archetype's trigger RuleSet.
//
// Precondition: d must have passed Validate.
func (d *Definition) BuildRules() *resource.RuleSet {
	rs, _ := resource.NewRuleSet(d.Rules)
	return rs
}

// Registry provides archetype lookup by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a Definition to the registry; the last call wins on duplicate IDs.
//
// Precondition: def must be non-nil with a non-empty ID.
func (r *Registry) Register(def *Definition) {
	if def == nil {
		panic("archetype: Register: def must be non-nil")
	}
	if def.ID == "" {
		panic("archetype: Register: def ID must be non-empty")
	}
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false).
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns all registered Definitions sorted by ID.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads all *.yaml files in dir, parses each as a Definition
// with strict field checking, validates it, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading archetype dir %q: %w", dir, err)
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
