// Package skill defines declarative combat skills: damage components, resource
// costs and gains, status applications, and status-conditioned variants.
package skill

import (
	"fmt"

	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/resource"
)

// ArchetypeCommon marks skills usable by every archetype (potions, cleanse).
const ArchetypeCommon = "common"

// Target selects which combatants a skill may be aimed at.
type Target string

const (
	TargetHostile     Target = "hostile"
	TargetFriendly    Target = "friendly"
	TargetSelf        Target = "self"
	TargetAllHostile  Target = "all_hostile"
	TargetAllFriendly Target = "all_friendly"
)

// Valid reports whether t names a known targeting mode.
func (t Target) Valid() bool {
	switch t {
	case TargetHostile, TargetFriendly, TargetSelf, TargetAllHostile, TargetAllFriendly:
		return true
	}
	return false
}

// Multi reports whether the mode hits every combatant on the chosen side.
func (t Target) Multi() bool {
	return t == TargetAllHostile || t == TargetAllFriendly
}

// Cost is a typed resource amount, used for both costs and gains.
type Cost struct {
	Resource resource.Kind `yaml:"resource"`
	Amount   int           `yaml:"amount"`
}

// Application describes one status a skill applies.
type Application struct {
	Status    string `yaml:"status"`
	Duration  int    `yaml:"duration"`
	Stacks    int    `yaml:"stacks"`    // 0 -> 1
	Magnitude int    `yaml:"magnitude"` // 0 -> definition default
	// To is "target" (default) or "caster".
	To string `yaml:"to"`
}

// Condition is a predicate over the caster's and target's active status sets,
// optionally extended by a named Lua predicate.
type Condition struct {
	TargetHas []string `yaml:"target_has"`
	CasterHas []string `yaml:"caster_has"`
	Lua       string   `yaml:"lua"`
}

// Specificity counts the condition's clauses. Variant selection prefers the
// variant with the highest specificity among those whose conditions hold.
func (c Condition) Specificity() int {
	n := len(c.TargetHas) + len(c.CasterHas)
	if c.Lua != "" {
		n++
	}
	return n
}

// Variant is a conditional override of the skill's base effect.
// Nil fields inherit from the base skill.
type Variant struct {
	When       Condition       `yaml:"when"`
	Multiplier *float64        `yaml:"multiplier"`
	Damage     *string         `yaml:"damage"`
	Hits       *int            `yaml:"hits"`
	Element    *damage.Element `yaml:"element"`
	// Cost, when non-nil, replaces the base cost for the cast. An amount of
	// zero makes the variant free. Affordability at selection time is still
	// judged on the base cost.
	Cost *Cost `yaml:"cost"`
	// Applies, when non-nil, replaces the base application list.
	Applies []Application `yaml:"applies"`
}

// Definition is one declarative skill, loaded from YAML.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Archetype   string `yaml:"archetype"` // owning archetype ID or "common"
	Description string `yaml:"description"`

	Target       Target          `yaml:"target"`
	RandomTarget bool            `yaml:"random_target"`
	Distance     damage.Distance `yaml:"distance"`
	Element      damage.Element  `yaml:"element"`

	// Damage is a dice expression per hit; empty means no damage component.
	Damage     string  `yaml:"damage"`
	Multiplier float64 `yaml:"multiplier"` // 0 -> 1.0
	Hits       int     `yaml:"hits"`       // 0 -> 1

	Cost *Cost `yaml:"cost"`
	Gain *Cost `yaml:"gain"`
	// DrainFraction converts that fraction of damage dealt into the caster's
	// gain resource (Nanovampire battery drain).
	DrainFraction float64 `yaml:"drain_fraction"`

	Applies []Application `yaml:"applies"`
	Removes []string      `yaml:"removes"`
	Cleanse bool          `yaml:"cleanse"`
	Revive  bool          `yaml:"revive"`

	Variants []Variant `yaml:"variants"`
}

// Validate checks the definition's self-contained invariants. Cross-references
// to archetypes and statuses are checked by Registry.CrossValidate.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("skill: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("skill %q: name must not be empty", d.ID)
	}
	if d.Archetype == "" {
		return fmt.Errorf("skill %q: archetype must not be empty", d.ID)
	}
	if !d.Target.Valid() {
		return fmt.Errorf("skill %q: unknown target %q", d.ID, d.Target)
	}
	if !d.Distance.Valid() {
		return fmt.Errorf("skill %q: unknown distance %q", d.ID, d.Distance)
	}
	if !d.Element.Valid() {
		return fmt.Errorf("skill %q: unknown element %q", d.ID, d.Element)
	}
	if d.Damage != "" {
		if _, err := dice.Parse(d.Damage); err != nil {
			return fmt.Errorf("skill %q: damage: %w", d.ID, err)
		}
	}
	if d.Multiplier < 0 {
		return fmt.Errorf("skill %q: multiplier must be >= 0", d.ID)
	}
	if d.Hits < 0 {
		return fmt.Errorf("skill %q: hits must be >= 0", d.ID)
	}
	if d.Cost != nil {
		if !d.Cost.Resource.Valid() {
			return fmt.Errorf("skill %q: cost resource %q unknown", d.ID, d.Cost.Resource)
		}
		if d.Cost.Amount < 1 {
			return fmt.Errorf("skill %q: cost amount must be >= 1", d.ID)
		}
	}
	if d.Gain != nil {
		if !d.Gain.Resource.Valid() {
			return fmt.Errorf("skill %q: gain resource %q unknown", d.ID, d.Gain.Resource)
		}
		if d.Gain.Amount < 1 {
			return fmt.Errorf("skill %q: gain amount must be >= 1", d.ID)
		}
	}
	if d.DrainFraction < 0 || d.DrainFraction > 1 {
		return fmt.Errorf("skill %q: drain_fraction must be in [0, 1]", d.ID)
	}
	if d.DrainFraction > 0 && d.Gain == nil {
		return fmt.Errorf("skill %q: drain_fraction requires a gain resource", d.ID)
	}
	for i, a := range d.Applies {
		if err := validateApplication(d.ID, a); err != nil {
			return fmt.Errorf("skill %q: applies[%d]: %w", d.ID, i, err)
		}
	}
	for i, v := range d.Variants {
		if v.When.Specificity() == 0 {
			return fmt.Errorf("skill %q: variants[%d]: empty condition", d.ID, i)
		}
		if v.Damage != nil && *v.Damage != "" {
			if _, err := dice.Parse(*v.Damage); err != nil {
				return fmt.Errorf("skill %q: variants[%d]: damage: %w", d.ID, i, err)
			}
		}
		if v.Multiplier != nil && *v.Multiplier < 0 {
			return fmt.Errorf("skill %q: variants[%d]: multiplier must be >= 0", d.ID, i)
		}
		if v.Element != nil && !v.Element.Valid() {
			return fmt.Errorf("skill %q: variants[%d]: unknown element %q", d.ID, i, *v.Element)
		}
		if v.Cost != nil {
			if !v.Cost.Resource.Valid() {
				return fmt.Errorf("skill %q: variants[%d]: cost resource %q unknown", d.ID, i, v.Cost.Resource)
			}
			if v.Cost.Amount < 0 {
				return fmt.Errorf("skill %q: variants[%d]: cost amount must be >= 0", d.ID, i)
			}
		}
		for j, a := range v.Applies {
			if err := validateApplication(d.ID, a); err != nil {
				return fmt.Errorf("skill %q: variants[%d].applies[%d]: %w", d.ID, i, j, err)
			}
		}
	}
	return nil
}

func validateApplication(skillID string, a Application) error {
	if a.Status == "" {
		return fmt.Errorf("status must not be empty")
	}
	if a.Duration < -1 || a.Duration == 0 {
		return fmt.Errorf("status %q: duration must be >= 1 or -1 for permanent", a.Status)
	}
	if a.Stacks < 0 {
		return fmt.Errorf("status %q: stacks must be >= 0", a.Status)
	}
	switch a.To {
	case "", "target", "caster":
	default:
		return fmt.Errorf("status %q: to must be \"target\" or \"caster\", got %q", a.Status, a.To)
	}
	return nil
}

// BaseMultiplier returns the skill's multiplier with the zero-value default.
func (d *Definition) BaseMultiplier() float64 {
	if d.Multiplier == 0 {
		return 1.0
	}
	return d.Multiplier
}

// BaseHits returns the skill's hit count with the zero-value default.
func (d *Definition) BaseHits() int {
	if d.Hits == 0 {
		return 1
	}
	return d.Hits
}

// CostAmount returns the cost for the given resource kind, 0 if the skill has
// no cost or a cost in another resource.
func (d *Definition) CostAmount(kind resource.Kind) int {
	if d.Cost == nil || d.Cost.Resource != kind {
		return 0
	}
	return d.Cost.Amount
}
