package skill

import "github.com/neonreach/engine/internal/game/damage"

// StatusQuery answers whether a combatant currently has every listed status.
type StatusQuery interface {
	HasAll(ids ...string) bool
}

// PredicateFunc evaluates a named Lua predicate against the current encounter
// state. A nil PredicateFunc treats every Lua clause as false.
type PredicateFunc func(name string) (bool, error)

// Effective is the skill as it resolves this turn, after variant selection.
type Effective struct {
	Skill      *Definition
	Variant    int // index into Skill.Variants, -1 for the base skill
	Multiplier float64
	Damage     string
	Hits       int
	Element    damage.Element
	Cost       *Cost
	Applies    []Application
}

// Resolve selects the variant whose condition holds with the highest
// specificity. Ties go to the earliest declared variant; when no condition
// holds the base skill applies unchanged.
func (d *Definition) Resolve(caster, target StatusQuery, pred PredicateFunc) (Effective, error) {
	eff := Effective{
		Skill:      d,
		Variant:    -1,
		Multiplier: d.BaseMultiplier(),
		Damage:     d.Damage,
		Hits:       d.BaseHits(),
		Element:    d.Element,
		Cost:       d.Cost,
		Applies:    d.Applies,
	}

	best := -1
	bestSpec := 0
	for i, v := range d.Variants {
		ok, err := v.When.holds(caster, target, pred)
		if err != nil {
			return Effective{}, err
		}
		if !ok {
			continue
		}
		if spec := v.When.Specificity(); spec > bestSpec {
			best, bestSpec = i, spec
		}
	}
	if best < 0 {
		return eff, nil
	}

	v := d.Variants[best]
	eff.Variant = best
	if v.Multiplier != nil {
		eff.Multiplier = *v.Multiplier
	}
	if v.Damage != nil {
		eff.Damage = *v.Damage
	}
	if v.Hits != nil {
		eff.Hits = *v.Hits
	}
	if v.Element != nil {
		eff.Element = *v.Element
	}
	if v.Cost != nil {
		eff.Cost = v.Cost
	}
	if v.Applies != nil {
		eff.Applies = v.Applies
	}
	return eff, nil
}

func (c Condition) holds(caster, target StatusQuery, pred PredicateFunc) (bool, error) {
	if len(c.TargetHas) > 0 {
		if target == nil || !target.HasAll(c.TargetHas...) {
			return false, nil
		}
	}
	if len(c.CasterHas) > 0 {
		if caster == nil || !caster.HasAll(c.CasterHas...) {
			return false, nil
		}
	}
	if c.Lua != "" {
		if pred == nil {
			return false, nil
		}
		ok, err := pred(c.Lua)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
