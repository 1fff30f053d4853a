package character

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neonreach/engine/internal/game/archetype"
	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/status"
)

// MaxEquippedSkills bounds the equipped subset of an archetype's skill list.
const MaxEquippedSkills = 4

// Build constructs a fresh level-1 Character from an archetype.
//
// The equipped skills must be a subset of the archetype's skill list, at most
// MaxEquippedSkills long; an empty list equips the first skills the archetype
// declares.
//
// Precondition: name must be non-empty; arch must have passed Validate.
// Postcondition: Returns a Character ready for persistence, or a non-nil error.
func Build(name string, arch *archetype.Definition, skills []string) (*Character, error) {
	if name == "" {
		return nil, errors.New("character name must not be empty")
	}
	if arch == nil {
		return nil, errors.New("archetype must not be nil")
	}

	if len(skills) == 0 {
		skills = arch.Skills
		if len(skills) > MaxEquippedSkills {
			skills = skills[:MaxEquippedSkills]
		}
	}
	if len(skills) > MaxEquippedSkills {
		return nil, fmt.Errorf("at most %d skills may be equipped, got %d", MaxEquippedSkills, len(skills))
	}
	for _, id := range skills {
		if !knowsSkill(arch, id) {
			return nil, fmt.Errorf("archetype %q does not grant skill %q", arch.ID, id)
		}
	}

	equipped := make([]string, len(skills))
	copy(equipped, skills)

	return &Character{
		ID:        uuid.NewString(),
		Name:      name,
		Archetype: arch.ID,
		Level:     1,
		MaxHealth: arch.Stats.MaxHealth,
		Health:    arch.Stats.MaxHealth,
		Skills:    equipped,
	}, nil
}

func knowsSkill(arch *archetype.Definition, id string) bool {
	for _, s := range arch.Skills {
		if s == id {
			return true
		}
	}
	return false
}

// Combatant materialises the character into a live encounter combatant:
// fresh resource pools at their initial values, the archetype's trigger
// rules, an empty status set, and stats scaled to the character's level.
//
// Precondition: c.Archetype must match arch.ID.
// Postcondition: The returned combatant shares no mutable state with c.
func Combatant(c *Character, arch *archetype.Definition) (*combat.Combatant, error) {
	if c.Archetype != arch.ID {
		return nil, fmt.Errorf("character %q is archetype %q, not %q", c.Name, c.Archetype, arch.ID)
	}

	skills := make([]string, len(c.Skills))
	copy(skills, c.Skills)

	return &combat.Combatant{
		ID:          c.ID,
		Kind:        combat.KindParty,
		Name:        c.Name,
		Archetype:   arch.ID,
		MaxHealth:   c.MaxHealth,
		Health:      c.Health,
		Attack:      arch.Stats.Attack + (c.Level - 1),
		Defense:     arch.Stats.Defense + (c.Level - 1),
		Speed:       arch.Stats.Speed,
		Crit:        arch.Stats.Crit,
		Evade:       arch.Stats.Evade,
		Resists:     arch.Resists,
		Pools:       arch.BuildPools(),
		Rules:       arch.BuildRules(),
		Statuses:    status.NewActiveSet(),
		BasicAttack: arch.BasicAttack,
		Skills:      skills,
	}, nil
}
