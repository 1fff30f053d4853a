// Package enemy provides enemy template definitions loaded from YAML and
// spawning of live combat instances from them.
package enemy

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
	"github.com/neonreach/engine/internal/game/skill"
)

// Stats holds the effective combat stats a spawned enemy starts with.
// Unlike archetype stats these are not scaled by level; the template bakes
// the final numbers in.
type Stats struct {
	MaxHealth int     `yaml:"max_health"`
	Attack    int     `yaml:"attack"`
	Defense   int     `yaml:"defense"`
	Speed     int     `yaml:"speed"`
	Crit      float64 `yaml:"crit"`  // chance in [0, 1]
	Evade     float64 `yaml:"evade"` // chance in [0, 1]
}

// PoolDef declares one resource pool a template's instances own.
type PoolDef struct {
	Kind    resource.Kind `yaml:"resource"`
	Min     int           `yaml:"min"`
	Max     int           `yaml:"max"`
	Initial int           `yaml:"initial"`
}

// Template defines a reusable enemy loaded from YAML. Each Spawn call
// produces an independent combat instance.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       int    `yaml:"level"`
	// Experience is awarded to each surviving party member when an instance
	// of this template is killed.
	Experience int `yaml:"experience"`

	Stats   Stats              `yaml:"stats"`
	Resists damage.Resistances `yaml:"resistances"`
	Pools   []PoolDef          `yaml:"resources"`
	Rules   []resource.Rule    `yaml:"rules"`

	BasicAttack string   `yaml:"basic_attack"`
	Skills      []string `yaml:"skills"`
}

// Validate checks the template's structural invariants. Skill references are
// checked separately by Registry.CrossValidate once the skill registry is
// loaded.
//
// Precondition: t must not be nil.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("enemy template %q: level must be >= 1", t.ID)
	}
	if t.Experience < 0 {
		return fmt.Errorf("enemy template %q: experience must be >= 0", t.ID)
	}
	if t.Stats.MaxHealth < 1 {
		return fmt.Errorf("enemy template %q: stats.max_health must be >= 1", t.ID)
	}
	if t.Stats.Attack < 1 {
		return fmt.Errorf("enemy template %q: stats.attack must be >= 1", t.ID)
	}
	if t.Stats.Defense < 1 {
		return fmt.Errorf("enemy template %q: stats.defense must be >= 1", t.ID)
	}
	if t.Stats.Crit < 0 || t.Stats.Crit > 1 {
		return fmt.Errorf("enemy template %q: stats.crit must be in [0, 1], got %g", t.ID, t.Stats.Crit)
	}
	if t.Stats.Evade < 0 || t.Stats.Evade > 1 {
		return fmt.Errorf("enemy template %q: stats.evade must be in [0, 1], got %g", t.ID, t.Stats.Evade)
	}
	if err := t.Resists.Validate(); err != nil {
		return fmt.Errorf("enemy template %q: %w", t.ID, err)
	}
	seen := make(map[resource.Kind]bool)
	for _, p := range t.Pools {
		if seen[p.Kind] {
			return fmt.Errorf("enemy template %q: duplicate pool %s", t.ID, p.Kind)
		}
		seen[p.Kind] = true
		pool := resource.Pool{Kind: p.Kind, Current: p.Initial, Min: p.Min, Max: p.Max}
		if err := pool.Validate(); err != nil {
			return fmt.Errorf("enemy template %q: %w", t.ID, err)
		}
	}
	for i, r := range t.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("enemy template %q: rule %d: %w", t.ID, i, err)
		}
		if !seen[r.Kind] {
			return fmt.Errorf("enemy template %q: rule %d targets pool %s the template does not own", t.ID, i, r.Kind)
		}
	}
	if t.BasicAttack == "" {
		return fmt.Errorf("enemy template %q: basic_attack must not be empty", t.ID)
	}
	return nil
}

// ownsPool reports whether the template declares a pool of the given kind.
func (t *Template) ownsPool(kind resource.Kind) bool {
	for _, p := range t.Pools {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// Registry provides enemy template lookup by ID.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds a Template to the registry; the last call wins on duplicate IDs.
//
// Precondition: tmpl must be non-nil with a non-empty ID.
func (r *Registry) Register(tmpl *Template) {
	if tmpl == nil {
		panic("enemy: Register: tmpl must be non-nil")
	}
	if tmpl.ID == "" {
		panic("enemy: Register: tmpl ID must be non-empty")
	}
	r.templates[tmpl.ID] = tmpl
}

// Get returns the Template for id, or (nil, false).
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// All returns all registered Templates sorted by ID.
func (r *Registry) All() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CrossValidate checks every template's skill references against the skill
// registry: the basic attack and every listed skill must exist, and any skill
// with a resource cost or gain must use a pool the template owns.
//
// Enemies are not bound to an archetype, so a template may reference skills
// from any archetype's list.
func (r *Registry) CrossValidate(skills *skill.Registry) error {
	for _, t := range r.All() {
		refs := append([]string{t.BasicAttack}, t.Skills...)
		for _, id := range refs {
			def, ok := skills.Get(id)
			if !ok {
				return fmt.Errorf("enemy template %q: skill %q is not defined", t.ID, id)
			}
			if def.Cost != nil && !t.ownsPool(def.Cost.Resource) {
				return fmt.Errorf("enemy template %q: skill %q costs %s but the template has no such pool", t.ID, id, def.Cost.Resource)
			}
			if def.Gain != nil && !t.ownsPool(def.Gain.Resource) {
				return fmt.Errorf("enemy template %q: skill %q gains %s but the template has no such pool", t.ID, id, def.Gain.Resource)
			}
		}
		basic, _ := skills.Get(t.BasicAttack)
		if basic.Cost != nil {
			return fmt.Errorf("enemy template %q: basic attack %q must not have a cost", t.ID, t.BasicAttack)
		}
	}
	return nil
}

// LoadDirectory reads all *.yaml files in dir, parses each as a Template with
// strict field checking, validates it, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
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
		var tmpl Template
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&tmpl); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&tmpl)
	}
	return reg, nil
}
