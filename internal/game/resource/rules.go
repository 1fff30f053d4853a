package resource

import "fmt"

// Trigger names a combat event that can drive resource generation or decay.
type Trigger string

// Trigger events fired by the encounter loop and effect resolver.
const (
	TriggerMeleeHit      Trigger = "melee_hit"      // caster landed a melee hit
	TriggerRangedHit     Trigger = "ranged_hit"     // caster landed a ranged hit
	TriggerDamageTaken   Trigger = "damage_taken"   // combatant took damage
	TriggerTurnStart     Trigger = "turn_start"     // combatant's turn began
	TriggerStatusExpired Trigger = "status_expired" // a status on the combatant ran out
	TriggerKill          Trigger = "kill"           // caster downed a target
)

// Valid reports whether t names a known trigger event.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerMeleeHit, TriggerRangedHit, TriggerDamageTaken,
		TriggerTurnStart, TriggerStatusExpired, TriggerKill:
		return true
	}
	return false
}

// Rule is one declarative resource-flow rule: when Trigger fires for a
// combatant, Delta is applied to their pool of the given Kind in Clamp mode.
// Rules are archetype data, not code; the resolver stays archetype-agnostic.
type Rule struct {
	Trigger Trigger `yaml:"trigger"`
	Kind    Kind    `yaml:"resource"`
	Delta   int     `yaml:"delta"`
	// Status restricts a status_expired rule to one status ID.
	// Empty matches any expiring status. Ignored for other triggers.
	Status string `yaml:"status,omitempty"`
}

// Validate checks the rule's fields.
func (r Rule) Validate() error {
	if !r.Trigger.Valid() {
		return fmt.Errorf("rule: unknown trigger %q", r.Trigger)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("rule: unknown resource %q", r.Kind)
	}
	if r.Delta == 0 {
		return fmt.Errorf("rule %s/%s: delta must be non-zero", r.Trigger, r.Kind)
	}
	if r.Status != "" && r.Trigger != TriggerStatusExpired {
		return fmt.Errorf("rule %s/%s: status filter only valid on %s", r.Trigger, r.Kind, TriggerStatusExpired)
	}
	return nil
}

// RuleSet is the ordered collection of one archetype's trigger rules.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet builds a RuleSet, validating every rule.
//
// Postcondition: Returns a non-nil RuleSet or the first rule's validation error.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &RuleSet{rules: cp}, nil
}

// Rules returns a copy of the rule list in declaration order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Fire applies every rule matching event to set, in declaration order.
// Deltas land in Clamp mode: generation never crosses a pool bound, and rules
// for pools the set does not own are skipped.
//
// Postcondition: Returns one Result per rule that touched a pool.
func (rs *RuleSet) Fire(event Trigger, set *Set) []Result {
	return rs.FireStatus(event, "", set)
}

// FireStatus is Fire with a status ID for status_expired events. Rules with a
// status filter only match when it equals statusID.
func (rs *RuleSet) FireStatus(event Trigger, statusID string, set *Set) []Result {
	var results []Result
	for _, r := range rs.rules {
		if r.Trigger != event {
			continue
		}
		if r.Trigger == TriggerStatusExpired && r.Status != "" && r.Status != statusID {
			continue
		}
		if !set.Has(r.Kind) {
			continue
		}
		// Clamp mode on an owned pool cannot fail.
		res, _ := set.ApplyDelta(r.Kind, r.Delta, Clamp)
		results = append(results, res)
	}
	return results
}
