// Package session wires loaded content, the scripting manager, and the combat
// engine into runnable encounters.
package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/neonreach/engine/internal/config"
	"github.com/neonreach/engine/internal/game/archetype"
	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/enemy"
	"github.com/neonreach/engine/internal/game/skill"
	"github.com/neonreach/engine/internal/game/status"
	"github.com/neonreach/engine/internal/scripting"
)

// Content is the fully loaded, cross-validated content pack. Content itself
// is immutable after loading and safe to share between runners.
type Content struct {
	Archetypes *archetype.Registry
	Skills     *skill.Registry
	Statuses   *status.Registry
	Enemies    *enemy.Registry

	scriptsDir string
}

// LoadContent loads every content directory and cross-validates all
// references. When a script directory is configured, the Lua pack is loaded
// once to verify that every predicate and hook content refers to is defined.
//
// Precondition: cfg paths must point at readable directories; roller and
// logger must be non-nil.
func LoadContent(cfg config.ContentConfig, roller *dice.Roller, logger *zap.Logger) (*Content, error) {
	archetypes, err := archetype.LoadDirectory(cfg.ArchetypesDir)
	if err != nil {
		return nil, fmt.Errorf("loading archetypes: %w", err)
	}
	skills, err := skill.LoadDirectory(cfg.SkillsDir)
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	statuses, err := status.LoadDirectory(cfg.StatusesDir)
	if err != nil {
		return nil, fmt.Errorf("loading statuses: %w", err)
	}
	enemies, err := enemy.LoadDirectory(cfg.EnemiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}

	if err := skills.CrossValidate(archetypes, statuses); err != nil {
		return nil, fmt.Errorf("cross-validating skills: %w", err)
	}
	if err := enemies.CrossValidate(skills); err != nil {
		return nil, fmt.Errorf("cross-validating enemies: %w", err)
	}

	content := &Content{
		Archetypes: archetypes,
		Skills:     skills,
		Statuses:   statuses,
		Enemies:    enemies,
		scriptsDir: cfg.ScriptsDir,
	}

	if cfg.ScriptsDir != "" {
		mgr := scripting.NewManager(roller, logger)
		if err := mgr.Load(cfg.ScriptsDir, scripting.DefaultInstructionLimit); err != nil {
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		err := validateScriptRefs(content, mgr)
		mgr.Close()
		if err != nil {
			return nil, err
		}
	}

	return content, nil
}

// HasScripts reports whether the content pack carries a Lua script directory.
func (c *Content) HasScripts() bool { return c.scriptsDir != "" }

// validateScriptRefs checks that every Lua function content refers to is
// actually defined by the loaded scripts.
func validateScriptRefs(c *Content, mgr *scripting.Manager) error {
	for _, def := range c.Skills.All() {
		for _, v := range def.Variants {
			if v.When.Lua != "" && !mgr.Has(v.When.Lua) {
				return fmt.Errorf("skill %q: lua predicate %q is not defined", def.ID, v.When.Lua)
			}
		}
	}
	for _, def := range c.Statuses.All() {
		if def.LuaOnTick != "" && !mgr.Has(def.LuaOnTick) {
			return fmt.Errorf("status %q: lua hook %q is not defined", def.ID, def.LuaOnTick)
		}
		if def.LuaOnExpire != "" && !mgr.Has(def.LuaOnExpire) {
			return fmt.Errorf("status %q: lua hook %q is not defined", def.ID, def.LuaOnExpire)
		}
	}
	return nil
}

// Runner drives encounters over shared content with its own dice roller and
// its own Lua VM. One encounter is live per runner at a time; simulation
// workers each own a runner.
type Runner struct {
	content *Content
	scripts *scripting.Manager
	roller  *dice.Roller
	logger  *zap.Logger
}

// NewRunner creates a runner over the loaded content, loading a fresh script
// VM when the content pack has one.
//
// Precondition: content, roller, and logger must be non-nil.
func NewRunner(content *Content, roller *dice.Roller, logger *zap.Logger) (*Runner, error) {
	r := &Runner{
		content: content,
		roller:  roller,
		logger:  logger,
	}
	if content.HasScripts() {
		mgr := scripting.NewManager(roller, logger)
		if err := mgr.Load(content.scriptsDir, scripting.DefaultInstructionLimit); err != nil {
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		r.scripts = mgr
	}
	return r, nil
}

// Scripts returns the runner's scripting manager, nil when the content pack
// has no scripts.
func (r *Runner) Scripts() *scripting.Manager { return r.scripts }

// Close releases the runner's script VM, if any.
func (r *Runner) Close() {
	if r.scripts != nil {
		r.scripts.Close()
	}
}

// NewEncounter builds an encounter and, when scripts are loaded, binds the
// runner's Lua combat callbacks to it. The binding replaces any previous
// encounter of this runner.
//
// Precondition: party and enemies must be non-empty.
func (r *Runner) NewEncounter(party, enemies []*combat.Combatant) (*combat.Encounter, error) {
	resolver := combat.NewResolver(r.roller, r.content.Statuses, r.logger)

	var hooks combat.ScriptHooks
	if r.scripts != nil {
		resolver.Predicate = r.scripts.Predicate
		hooks = &hookDispatcher{mgr: r.scripts}
	}

	enc, err := combat.NewEncounter(party, enemies, resolver, r.content.Skills, r.roller, hooks, r.logger)
	if err != nil {
		return nil, err
	}
	if r.scripts != nil {
		BindEncounter(r.scripts, enc)
	}
	return enc, nil
}
