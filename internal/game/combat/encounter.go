package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/resource"
	"github.com/neonreach/engine/internal/game/skill"
	"github.com/neonreach/engine/internal/game/status"
)

// State is the encounter's position in the turn cycle.
type State int

const (
	AwaitingInput State = iota
	ResolvingSkill
	ApplyingStatusTicks
	CheckingEndCondition
	EncounterEnded
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case ResolvingSkill:
		return "resolving_skill"
	case ApplyingStatusTicks:
		return "applying_status_ticks"
	case CheckingEndCondition:
		return "checking_end_condition"
	case EncounterEnded:
		return "encounter_ended"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of an encounter.
type Result int

const (
	ResultUndecided Result = iota
	ResultVictory
	ResultDefeat
)

// String returns a human-readable result label.
func (r Result) String() string {
	switch r {
	case ResultVictory:
		return "victory"
	case ResultDefeat:
		return "defeat"
	default:
		return "undecided"
	}
}

// Selection is one actor's chosen skill and targets for a turn.
type Selection struct {
	SkillID   string
	TargetIDs []string
}

// Selector chooses an action for the current actor. Player input and enemy
// policies both implement it.
type Selector interface {
	Select(e *Encounter, actor *Combatant) (Selection, error)
}

// ScriptHooks dispatches status Lua hooks. Implementations wrap the scripting
// manager; a nil ScriptHooks disables Lua status behavior.
type ScriptHooks interface {
	CallStatusHook(fn, combatantID string)
}

// Event is one entry of the encounter transcript.
type Event struct {
	Round   int
	ActorID string
	Kind    string // "skill", "skipped", "dot", "expired", "ended"
	Outcome *Outcome
	Note    string
}

// Encounter is the live state of one battle: party versus enemies, in
// initiative order, driven one turn at a time by Step.
//
// Encounter is not safe for concurrent use; each simulation worker owns its
// encounters exclusively.
type Encounter struct {
	ID         string
	Combatants []*Combatant
	Round      int
	Events     []Event

	state     State
	result    Result
	turnIndex int

	resolver *Resolver
	skills   *skill.Registry
	roller   *dice.Roller
	scripts  ScriptHooks
	logger   *zap.Logger
}

// NewEncounter creates an encounter from party and enemy combatants, rolls
// initiative, and sorts the turn order.
//
// Precondition: both sides must be non-empty; resolver, skills, roller, and
// logger must be non-nil. scripts may be nil.
func NewEncounter(party, enemies []*Combatant, resolver *Resolver, skills *skill.Registry, roller *dice.Roller, scripts ScriptHooks, logger *zap.Logger) (*Encounter, error) {
	if len(party) == 0 || len(enemies) == 0 {
		return nil, errors.New("encounter requires at least one combatant per side")
	}
	all := make([]*Combatant, 0, len(party)+len(enemies))
	all = append(all, party...)
	all = append(all, enemies...)

	RollInitiative(all, roller.Source())
	SortByInitiative(all)

	return &Encounter{
		ID:         uuid.NewString(),
		Combatants: all,
		Round:      1,
		state:      AwaitingInput,
		resolver:   resolver,
		skills:     skills,
		roller:     roller,
		scripts:    scripts,
		logger:     logger,
	}, nil
}

// State returns the current state machine position.
func (e *Encounter) State() State { return e.state }

// Result returns the encounter result; ResultUndecided until EncounterEnded.
func (e *Encounter) Result() Result { return e.result }

// Ended reports whether the encounter has reached a terminal state.
func (e *Encounter) Ended() bool { return e.state == EncounterEnded }

// Combatant returns the combatant with the given ID, or (nil, false).
func (e *Encounter) Combatant(id string) (*Combatant, bool) {
	for _, c := range e.Combatants {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// CurrentActor returns the combatant whose turn it is, skipping downed
// combatants, or nil when the encounter has ended.
func (e *Encounter) CurrentActor() *Combatant {
	if e.Ended() {
		return nil
	}
	for range e.Combatants {
		c := e.Combatants[e.turnIndex]
		if c.Alive() {
			return c
		}
		e.advance()
	}
	return nil
}

// LivingOpponents returns the living combatants on the other side from c.
func (e *Encounter) LivingOpponents(c *Combatant) []*Combatant {
	var out []*Combatant
	for _, o := range e.Combatants {
		if o.Kind != c.Kind && o.Alive() {
			out = append(out, o)
		}
	}
	return out
}

// LivingAllies returns the living combatants on c's side, including c.
func (e *Encounter) LivingAllies(c *Combatant) []*Combatant {
	var out []*Combatant
	for _, o := range e.Combatants {
		if o.Kind == c.Kind && o.Alive() {
			out = append(out, o)
		}
	}
	return out
}

// DownedAllies returns the downed combatants on c's side.
func (e *Encounter) DownedAllies(c *Combatant) []*Combatant {
	var out []*Combatant
	for _, o := range e.Combatants {
		if o.Kind == c.Kind && !o.Alive() {
			out = append(out, o)
		}
	}
	return out
}

// Step runs one actor's full turn: turn-start resource rules, action
// selection and resolution (with basic-attack fallback on an invalid
// selection), the actor's status ticks, and the end-condition check.
//
// Precondition: selector must be non-nil.
// Postcondition: Either the turn advanced to the next living actor or the
// encounter ended; events were appended for everything that happened.
func (e *Encounter) Step(selector Selector) error {
	if e.Ended() {
		return errors.New("encounter already ended")
	}
	actor := e.CurrentActor()
	if actor == nil {
		// Everyone downed at once can only happen via DoT; call it a defeat.
		e.end(ResultDefeat)
		return nil
	}

	actor.Rules.Fire(resource.TriggerTurnStart, actor.Pools)

	if status.IsFullyRestricted(actor.Statuses) {
		e.addEvent(Event{Round: e.Round, ActorID: actor.ID, Kind: "skipped", Note: "unable to act"})
	} else {
		e.state = ResolvingSkill
		if err := e.resolveAction(selector, actor); err != nil {
			e.state = AwaitingInput
			return err
		}
	}

	e.state = ApplyingStatusTicks
	e.tickStatuses(actor)

	e.state = CheckingEndCondition
	if e.checkEnd() {
		return nil
	}

	e.state = AwaitingInput
	e.advance()
	return nil
}

// Run drives the encounter to completion with the given selector, bounded by
// maxRounds. Returns the result; encounters that outlast maxRounds end as
// ResultUndecided, a draw rather than a defeat.
func (e *Encounter) Run(selector Selector, maxRounds int) (Result, error) {
	for !e.Ended() {
		if maxRounds > 0 && e.Round > maxRounds {
			e.addEvent(Event{Round: e.Round, Kind: "ended", Note: fmt.Sprintf("round limit %d reached", maxRounds)})
			e.end(ResultUndecided)
			break
		}
		if err := e.Step(selector); err != nil {
			return ResultUndecided, err
		}
	}
	return e.result, nil
}

func (e *Encounter) resolveAction(selector Selector, actor *Combatant) error {
	sel, err := selector.Select(e, actor)
	if err != nil {
		return fmt.Errorf("selecting action for %s: %w", actor.ID, err)
	}

	out, err := e.resolveSelection(actor, sel)
	if errors.Is(err, ErrInvalidSkillSelection) {
		// Fall back to the basic attack on the first living opponent.
		e.logger.Debug("selection rejected, falling back to basic attack",
			zap.String("actor", actor.ID),
			zap.String("skill", sel.SkillID),
			zap.Error(err),
		)
		opponents := e.LivingOpponents(actor)
		if len(opponents) == 0 {
			return nil
		}
		fallback := Selection{SkillID: actor.BasicAttack, TargetIDs: []string{opponents[0].ID}}
		out, err = e.resolveSelection(actor, fallback)
	}
	if err != nil {
		return err
	}
	e.addEvent(Event{Round: e.Round, ActorID: actor.ID, Kind: "skill", Outcome: out})
	return nil
}

func (e *Encounter) resolveSelection(actor *Combatant, sel Selection) (*Outcome, error) {
	def, ok := e.skills.Get(sel.SkillID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown skill %q", ErrInvalidSkillSelection, sel.SkillID)
	}

	targets, err := e.expandTargets(actor, def, sel.TargetIDs)
	if err != nil {
		return nil, err
	}
	return e.resolver.Resolve(actor, targets, def)
}

// expandTargets maps a selection's target IDs to combatants and enforces the
// skill's targeting mode. Multi-target modes ignore the selection and expand
// to every living combatant on the proper side; random targeting picks from
// the legal pool with the encounter's dice source.
func (e *Encounter) expandTargets(actor *Combatant, def *skill.Definition, ids []string) ([]*Combatant, error) {
	switch def.Target {
	case skill.TargetSelf:
		return []*Combatant{actor}, nil
	case skill.TargetAllHostile:
		return e.LivingOpponents(actor), nil
	case skill.TargetAllFriendly:
		return e.LivingAllies(actor), nil
	}

	pool := e.LivingOpponents(actor)
	if def.Target == skill.TargetFriendly {
		if def.Revive {
			pool = e.DownedAllies(actor)
		} else {
			pool = e.LivingAllies(actor)
		}
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: no legal target for %s", ErrInvalidSkillSelection, def.ID)
	}

	if def.RandomTarget {
		return []*Combatant{pool[e.roller.Source().Intn(len(pool))]}, nil
	}

	if len(ids) != 1 {
		return nil, fmt.Errorf("%w: %s needs exactly one target", ErrInvalidSkillSelection, def.ID)
	}
	for _, c := range pool {
		if c.ID == ids[0] {
			return []*Combatant{c}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not a legal target for %s", ErrInvalidSkillSelection, ids[0], def.ID)
}

// tickStatuses advances the actor's status durations: DoT damage first, then
// duration decrement, then expiry reactions (resource rules and Lua hooks).
func (e *Encounter) tickStatuses(actor *Combatant) {
	if !actor.Alive() {
		return
	}

	for _, a := range actor.Statuses.All() {
		if a.Def.DoT != nil {
			e.applyDoT(actor, a)
		}
		if a.Def.LuaOnTick != "" && e.scripts != nil {
			e.scripts.CallStatusHook(a.Def.LuaOnTick, actor.ID)
		}
	}

	for _, exp := range actor.Statuses.Tick() {
		actor.Rules.FireStatus(resource.TriggerStatusExpired, exp.ID, actor.Pools)
		// The caster of the status reacts too (Netrunner RAM is freed when a
		// DoT it planted runs out).
		if exp.AppliedBy != "" && exp.AppliedBy != actor.ID {
			if applier, ok := e.Combatant(exp.AppliedBy); ok && applier.Alive() {
				applier.Rules.FireStatus(resource.TriggerStatusExpired, exp.ID, applier.Pools)
			}
		}
		if exp.Def.LuaOnExpire != "" && e.scripts != nil {
			e.scripts.CallStatusHook(exp.Def.LuaOnExpire, actor.ID)
		}
		e.addEvent(Event{Round: e.Round, ActorID: actor.ID, Kind: "expired", Note: exp.ID})
	}
}

// applyDoT rolls the status's per-stack damage and applies it through the
// target's elemental resistance. DoT ignores evade and cannot crit.
func (e *Encounter) applyDoT(c *Combatant, a *status.Active) {
	roll := e.roller.Roll(dice.MustParse(a.Def.DoT.Damage))
	raw := float64(roll.Total()*a.Stacks) * c.Resists.Multiplier(a.Def.DoT.Element)
	dmg := int(math.Round(raw))
	if dmg < 1 {
		dmg = 1
	}
	c.ApplyDamage(dmg)
	e.addEvent(Event{
		Round:   e.Round,
		ActorID: c.ID,
		Kind:    "dot",
		Note:    fmt.Sprintf("%s dealt %d %s damage", a.Def.ID, dmg, a.Def.DoT.Element),
	})
}

func (e *Encounter) checkEnd() bool {
	enemies, party := false, false
	for _, c := range e.Combatants {
		if !c.Alive() {
			continue
		}
		if c.IsParty() {
			party = true
		} else {
			enemies = true
		}
	}
	switch {
	case !party:
		e.end(ResultDefeat)
		return true
	case !enemies:
		e.end(ResultVictory)
		return true
	}
	return false
}

func (e *Encounter) end(r Result) {
	e.state = EncounterEnded
	e.result = r
	e.addEvent(Event{Round: e.Round, Kind: "ended", Note: r.String()})
	e.logger.Debug("encounter ended",
		zap.String("encounter", e.ID),
		zap.String("result", r.String()),
		zap.Int("rounds", e.Round),
	)
}

func (e *Encounter) advance() {
	e.turnIndex++
	if e.turnIndex >= len(e.Combatants) {
		e.turnIndex = 0
		e.Round++
		// Haste and slow applied during the round take effect now.
		RefreshInitiative(e.Combatants)
		SortByInitiative(e.Combatants)
	}
}

func (e *Encounter) addEvent(ev Event) {
	e.Events = append(e.Events, ev)
}
