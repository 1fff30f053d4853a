package combat

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/neonreach/engine/internal/game/damage"
	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/game/skill"
	"github.com/neonreach/engine/internal/game/status"
)

// ErrInvalidSkillSelection marks a caller error: the skill was not equipped,
// not affordable, blocked by a status, or aimed at an illegal target. The
// selecting layer must filter these before calling Resolve; the caster's turn
// is not consumed.
var ErrInvalidSkillSelection = errors.New("invalid skill selection")

// HitResult records one hit of a skill against one target.
type HitResult struct {
	TargetID string
	Evaded   bool
	Crit     bool
	// Roll is the damage dice total before modifiers; 0 for non-damage skills.
	Roll int
	// Damage is the final damage dealt, after all multipliers.
	Damage int
	// Healing is the health restored by a healing-element hit.
	Healing int
}

// TargetOutcome aggregates everything a skill did to one target.
type TargetOutcome struct {
	TargetID string
	// Variant is the index of the skill variant that applied, -1 for base.
	Variant  int
	Hits     []HitResult
	Damage   int
	Healing  int
	Applied  []string
	Removed  []string
	Cleansed []string
	Revived  bool
	Killed   bool
	// Resources lists the target's own trigger-driven pool changes
	// (damage_taken rules); the caster's land in Outcome.Resources.
	Resources []resource.Result
}

// Outcome is the full record of one skill resolution, for logging, the
// encounter transcript, and persistence.
type Outcome struct {
	CasterID  string
	SkillID   string
	Targets   []TargetOutcome
	Resources []resource.Result
	// CasterApplied lists statuses the skill put on the caster itself.
	CasterApplied []string
}

// TotalDamage sums damage across all targets.
func (o *Outcome) TotalDamage() int {
	total := 0
	for _, t := range o.Targets {
		total += t.Damage
	}
	return total
}

// LuaPredicate evaluates a named Lua predicate for one caster/target pair.
// The scripting manager's Predicate method satisfies this signature.
type LuaPredicate func(name, casterID, targetID string) (bool, error)

// Resolver resolves skill selections into state mutations and Outcome records.
// It owns no combatant state; the encounter loop passes combatants in.
type Resolver struct {
	roller   *dice.Roller
	statuses *status.Registry
	logger   *zap.Logger

	// Predicate evaluates named Lua clauses in skill variant conditions.
	// nil treats every Lua clause as unsatisfied.
	Predicate LuaPredicate
}

// NewResolver creates a Resolver.
//
// Precondition: roller, statuses, and logger must be non-nil.
func NewResolver(roller *dice.Roller, statuses *status.Registry, logger *zap.Logger) *Resolver {
	return &Resolver{
		roller:   roller,
		statuses: statuses,
		logger:   logger,
	}
}

// predicateFor binds the Lua predicate to one caster/target pair, in the
// name-only form variant selection consumes.
func (r *Resolver) predicateFor(caster, target *Combatant) skill.PredicateFunc {
	if r.Predicate == nil {
		return nil
	}
	return func(name string) (bool, error) {
		return r.Predicate(name, caster.ID, target.ID)
	}
}

// Resolve applies def cast by caster at targets and returns the Outcome.
//
// Validation failures (not equipped, unaffordable, status-blocked) return an
// error wrapping ErrInvalidSkillSelection and leave all state untouched, so
// the caller can fall back to another selection without consuming the turn.
//
// Precondition: caster must be alive; targets must match the skill's
// targeting mode and already be filtered for side.
// Postcondition: On success the cost is paid, every effect is applied, and
// trigger rules for melee_hit/ranged_hit/damage_taken/kill have fired.
func (r *Resolver) Resolve(caster *Combatant, targets []*Combatant, def *skill.Definition) (*Outcome, error) {
	if err := r.validate(caster, targets, def); err != nil {
		return nil, err
	}

	out := &Outcome{CasterID: caster.ID, SkillID: def.ID}

	effs := make([]skill.Effective, len(targets))
	for i, target := range targets {
		eff, err := def.Resolve(caster.Statuses, target.Statuses, r.predicateFor(caster, target))
		if err != nil {
			return nil, fmt.Errorf("resolving skill %q variants: %w", def.ID, err)
		}
		effs[i] = eff
	}

	// Pay the cost before any effect lands; Strict mode rejects the whole
	// delta rather than leaving a partially paid skill. A variant may override
	// the cost, so the charge comes from the first target's resolved form.
	if cost := effs[0].Cost; cost != nil && cost.Amount > 0 {
		res, err := caster.Pools.ApplyDelta(cost.Resource, -cost.Amount, resource.Strict)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSkillSelection, def.ID, err)
		}
		out.Resources = append(out.Resources, res)
	}

	totalDamage := 0
	for i, target := range targets {
		to := r.applyToTarget(caster, target, effs[i], out)
		totalDamage += to.Damage
		out.Targets = append(out.Targets, to)
	}

	// Fixed gain, then damage drain.
	if def.Gain != nil {
		gain := def.Gain.Amount
		if def.DrainFraction > 0 {
			gain += int(math.Round(float64(totalDamage) * def.DrainFraction))
		}
		if caster.Pools.Has(def.Gain.Resource) {
			res, _ := caster.Pools.ApplyDelta(def.Gain.Resource, gain, resource.Clamp)
			out.Resources = append(out.Resources, res)
		}
	}

	r.logger.Debug("skill resolved",
		zap.String("caster", caster.ID),
		zap.String("skill", def.ID),
		zap.Int("targets", len(out.Targets)),
		zap.Int("damage", totalDamage),
	)
	return out, nil
}

func (r *Resolver) validate(caster *Combatant, targets []*Combatant, def *skill.Definition) error {
	if !caster.Alive() {
		return fmt.Errorf("%w: caster %s is downed", ErrInvalidSkillSelection, caster.ID)
	}
	if !caster.HasSkill(def.ID) {
		return fmt.Errorf("%w: %s does not know %s", ErrInvalidSkillSelection, caster.ID, def.ID)
	}
	if status.IsActionRestricted(caster.Statuses, string(def.Distance)) {
		return fmt.Errorf("%w: %s attacks are blocked by a status", ErrInvalidSkillSelection, def.Distance)
	}
	if def.ID != caster.BasicAttack && status.IsActionRestricted(caster.Statuses, "skill") {
		return fmt.Errorf("%w: skills are blocked by a status", ErrInvalidSkillSelection)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s requires a target", ErrInvalidSkillSelection, def.ID)
	}
	if !def.Target.Multi() && len(targets) > 1 {
		return fmt.Errorf("%w: %s is single-target", ErrInvalidSkillSelection, def.ID)
	}
	for _, t := range targets {
		if def.Revive {
			if t.Alive() {
				return fmt.Errorf("%w: %s is not downed", ErrInvalidSkillSelection, t.ID)
			}
		} else if !t.Alive() {
			return fmt.Errorf("%w: %s is downed", ErrInvalidSkillSelection, t.ID)
		}
	}
	if def.Cost != nil && !caster.Pools.CanAfford(def.Cost.Resource, def.Cost.Amount) {
		return fmt.Errorf("%w: cannot afford %d %s for %s",
			ErrInvalidSkillSelection, def.Cost.Amount, def.Cost.Resource, def.ID)
	}
	return nil
}

func (r *Resolver) applyToTarget(caster, target *Combatant, eff skill.Effective, out *Outcome) TargetOutcome {
	to := TargetOutcome{TargetID: target.ID, Variant: eff.Variant}

	if eff.Skill.Revive {
		target.Revive(target.MaxHealth / 2)
		to.Revived = true
	}

	for hit := 0; hit < eff.Hits && eff.Damage != ""; hit++ {
		if !target.Alive() {
			break
		}
		hr := r.resolveHit(caster, target, eff)
		to.Hits = append(to.Hits, hr)
		to.Damage += hr.Damage
		to.Healing += hr.Healing

		if hr.Damage > 0 {
			r.fireHitTriggers(caster, target, eff, &to, out)
		}
		if target.Downed {
			to.Killed = true
			appendResults(out, caster.Rules.Fire(resource.TriggerKill, caster.Pools))
			break
		}
	}

	for _, a := range eff.Applies {
		r.applyStatus(caster, target, eff.Skill.ID, a, &to, out)
	}
	for _, id := range eff.Skill.Removes {
		if target.Statuses.Has(id) {
			target.Statuses.Remove(id)
			to.Removed = append(to.Removed, id)
		}
	}
	if eff.Skill.Cleanse {
		to.Cleansed = target.Statuses.Cleanse()
	}
	return to
}

func (r *Resolver) resolveHit(caster, target *Combatant, eff skill.Effective) HitResult {
	hr := HitResult{TargetID: target.ID}
	roll := r.roller.Roll(dice.MustParse(eff.Damage))
	hr.Roll = roll.Total()

	if eff.Element == damage.Healing {
		amount := int(math.Round(float64(hr.Roll) * eff.Multiplier))
		target.Heal(amount)
		hr.Healing = amount
		return hr
	}

	if dice.Chance(r.roller.Source(), target.Evade) {
		hr.Evaded = true
		return hr
	}

	// Damage pipeline: (roll + attack) scaled by the skill multiplier, the
	// attack/defense ratio clamped to [0.5, 1.0], elemental resistance, and
	// status-driven dealt/taken multipliers. Crits double the final amount.
	raw := float64(hr.Roll + caster.Attack)
	raw *= eff.Multiplier
	raw *= defenseRatio(caster.Attack, target.Defense)
	raw *= target.Resists.Multiplier(eff.Element)
	raw *= status.DamageDealtMultiplier(caster.Statuses)
	raw *= status.DamageTakenMultiplier(target.Statuses)
	if dice.Chance(r.roller.Source(), caster.Crit) {
		hr.Crit = true
		raw *= 2
	}

	dmg := int(math.Round(raw))
	if dmg < 1 {
		dmg = 1
	}
	target.ApplyDamage(dmg)
	hr.Damage = dmg
	return hr
}

// defenseRatio scales damage by attack versus defense, bounded so defense can
// at most halve incoming damage and never amplify it.
func defenseRatio(attack, defense int) float64 {
	if defense <= 0 {
		return 1.0
	}
	ratio := float64(attack) / float64(defense)
	if ratio < 0.5 {
		return 0.5
	}
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

func (r *Resolver) fireHitTriggers(caster, target *Combatant, eff skill.Effective, to *TargetOutcome, out *Outcome) {
	switch eff.Skill.Distance {
	case damage.Melee:
		appendResults(out, caster.Rules.Fire(resource.TriggerMeleeHit, caster.Pools))
	case damage.Ranged:
		appendResults(out, caster.Rules.Fire(resource.TriggerRangedHit, caster.Pools))
	}
	to.Resources = append(to.Resources, target.Rules.Fire(resource.TriggerDamageTaken, target.Pools)...)
}

func (r *Resolver) applyStatus(caster, target *Combatant, skillID string, a skill.Application, to *TargetOutcome, out *Outcome) {
	def, ok := r.statuses.Get(a.Status)
	if !ok {
		// Content cross-validation rejects unknown statuses at load time.
		r.logger.Error("skill references unknown status",
			zap.String("skill", skillID),
			zap.String("status", a.Status),
		)
		return
	}
	recipient := target
	if a.To == "caster" {
		recipient = caster
	}
	if !recipient.Alive() {
		return
	}
	stacks := a.Stacks
	if stacks == 0 {
		stacks = 1
	}
	if err := recipient.Statuses.ApplyFrom(def, stacks, a.Duration, a.Magnitude, caster.ID); err != nil {
		r.logger.Warn("status apply failed", zap.String("status", a.Status), zap.Error(err))
		return
	}
	if recipient == caster {
		out.CasterApplied = append(out.CasterApplied, a.Status)
	} else {
		to.Applied = append(to.Applied, a.Status)
	}
}

func appendResults(out *Outcome, results []resource.Result) {
	out.Resources = append(out.Resources, results...)
}
