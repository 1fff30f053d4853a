// Package character defines the persistent character model, experience and
// leveling rules, and the builder that turns a stored character into a live
// combatant.
package character

import "time"

// MaxLevel is the highest attainable character level.
const MaxLevel = 10

// levelThresholds[n] is the total experience required to reach level n+1.
var levelThresholds = [MaxLevel]int{0, 100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500}

// LevelForExperience returns the level a character with xp total experience
// holds, in [1, MaxLevel].
//
// Precondition: xp >= 0.
func LevelForExperience(xp int) int {
	level := 1
	for i := 1; i < MaxLevel; i++ {
		if xp >= levelThresholds[i] {
			level = i + 1
		}
	}
	return level
}

// ExperienceForLevel returns the total experience required for level.
//
// Precondition: level in [1, MaxLevel].
func ExperienceForLevel(level int) int {
	return levelThresholds[level-1]
}

// HealthPerLevel is the max-health growth applied on each level gained.
const HealthPerLevel = 10

// Character represents a party member's persistent state across encounters.
//
// ID is set by the persistence layer; an empty ID indicates an unsaved
// character.
type Character struct {
	ID        string
	Name      string
	Archetype string // archetype ID

	Level      int
	Experience int

	MaxHealth int
	Health    int

	// Skills is the equipped subset of the archetype's skill list.
	Skills []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GainExperience adds xp and applies any level-ups: each level gained adds
// HealthPerLevel to max health and restores the character to full health.
// Returns the number of levels gained.
//
// Precondition: xp >= 0.
// Postcondition: Level is consistent with Experience; Health <= MaxHealth.
func (c *Character) GainExperience(xp int) int {
	c.Experience += xp
	newLevel := LevelForExperience(c.Experience)
	gained := newLevel - c.Level
	if gained > 0 {
		c.Level = newLevel
		c.MaxHealth += HealthPerLevel * gained
		c.Health = c.MaxHealth
	}
	return gained
}
