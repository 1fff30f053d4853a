package skill

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neonreach/engine/internal/game/archetype"
	"github.com/neonreach/engine/internal/game/status"
)

// Registry provides skill lookup by ID and by owning archetype.
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
		panic("skill: Register: def must be non-nil")
	}
	if def.ID == "" {
		panic("skill: Register: def ID must be non-empty")
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

// ForArchetype returns the skills owned by the given archetype plus the common
// pool, sorted by ID.
func (r *Registry) ForArchetype(archetypeID string) []*Definition {
	out := make([]*Definition, 0)
	for _, d := range r.defs {
		if d.Archetype == archetypeID || d.Archetype == ArchetypeCommon {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CrossValidate checks every reference between the three content registries:
// skill archetypes and statuses must exist, skill costs must target a pool the
// owning archetype has, and every archetype skill list entry must resolve.
func (r *Registry) CrossValidate(archetypes *archetype.Registry, statuses *status.Registry) error {
	for _, d := range r.All() {
		var arch *archetype.Definition
		if d.Archetype != ArchetypeCommon {
			a, ok := archetypes.Get(d.Archetype)
			if !ok {
				return fmt.Errorf("skill %q: unknown archetype %q", d.ID, d.Archetype)
			}
			arch = a
		}
		if d.Cost != nil && arch != nil && !ownsPool(arch, d.Cost) {
			return fmt.Errorf("skill %q: cost targets pool %s archetype %q does not own", d.ID, d.Cost.Resource, arch.ID)
		}
		if d.Gain != nil && arch != nil && !ownsPool(arch, d.Gain) {
			return fmt.Errorf("skill %q: gain targets pool %s archetype %q does not own", d.ID, d.Gain.Resource, arch.ID)
		}
		for i, v := range d.Variants {
			if v.Cost != nil && arch != nil && !ownsPool(arch, v.Cost) {
				return fmt.Errorf("skill %q: variants[%d] cost targets pool %s archetype %q does not own",
					d.ID, i, v.Cost.Resource, arch.ID)
			}
		}
		if err := checkStatusRefs(d, statuses); err != nil {
			return err
		}
	}
	for _, a := range archetypes.All() {
		if _, ok := r.defs[a.BasicAttack]; !ok {
			return fmt.Errorf("archetype %q: basic_attack %q is not a known skill", a.ID, a.BasicAttack)
		}
		for _, id := range a.Skills {
			s, ok := r.defs[id]
			if !ok {
				return fmt.Errorf("archetype %q: skill %q is not a known skill", a.ID, id)
			}
			if s.Archetype != a.ID && s.Archetype != ArchetypeCommon {
				return fmt.Errorf("archetype %q: skill %q belongs to archetype %q", a.ID, id, s.Archetype)
			}
		}
	}
	return nil
}

func ownsPool(arch *archetype.Definition, c *Cost) bool {
	for _, p := range arch.Pools {
		if p.Kind == c.Resource {
			return true
		}
	}
	return false
}

func checkStatusRefs(d *Definition, statuses *status.Registry) error {
	check := func(ctx, id string) error {
		if _, ok := statuses.Get(id); !ok {
			return fmt.Errorf("skill %q: %s references unknown status %q", d.ID, ctx, id)
		}
		return nil
	}
	for _, a := range d.Applies {
		if err := check("applies", a.Status); err != nil {
			return err
		}
	}
	for _, id := range d.Removes {
		if err := check("removes", id); err != nil {
			return err
		}
	}
	for i, v := range d.Variants {
		ctx := fmt.Sprintf("variants[%d]", i)
		for _, id := range v.When.TargetHas {
			if err := check(ctx+".when.target_has", id); err != nil {
				return err
			}
		}
		for _, id := range v.When.CasterHas {
			if err := check(ctx+".when.caster_has", id); err != nil {
				return err
			}
		}
		for _, a := range v.Applies {
			if err := check(ctx+".applies", a.Status); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadDirectory reads all *.yaml files in dir, parses each YAML document as a
// Definition with strict field checking, validates it, and returns a populated
// Registry. Files may hold several skills as a multi-document stream.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
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
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		for {
			var def Definition
			if err := dec.Decode(&def); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("parsing %q: %w", path, err)
			}
			if err := def.Validate(); err != nil {
				return nil, fmt.Errorf("validating %q: %w", path, err)
			}
			reg.Register(&def)
		}
	}
	return reg, nil
}
