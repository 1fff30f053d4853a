package status

// DamageDealtMultiplier returns the net multiplier on damage the combatant
// deals, from all active statuses. Each status contributes
// (1 + DamageDealtPct*Stacks/100); contributions multiply.
//
// Postcondition: Returns >= 0.
func DamageDealtMultiplier(s *ActiveSet) float64 {
	return pctMultiplier(s, func(d *Definition) int { return d.DamageDealtPct })
}

// DamageTakenMultiplier returns the net multiplier on damage the combatant
// takes, from all active statuses (shell reduces it, frozen may raise it).
//
// Postcondition: Returns >= 0.
func DamageTakenMultiplier(s *ActiveSet) float64 {
	return pctMultiplier(s, func(d *Definition) int { return d.DamageTakenPct })
}

func pctMultiplier(s *ActiveSet, pct func(*Definition) int) float64 {
	total := 1.0
	for _, a := range s.statuses {
		p := pct(a.Def)
		if p == 0 {
			continue
		}
		m := 1.0 + float64(p*a.Stacks)/100.0
		if m < 0 {
			m = 0
		}
		total *= m
	}
	return total
}

// SpeedDelta returns the net initiative shift from all active statuses,
// stack-scaled. Haste contributes positive, slow negative.
func SpeedDelta(s *ActiveSet) int {
	total := 0
	for _, a := range s.statuses {
		total += a.Def.SpeedDelta * a.Stacks
	}
	return total
}

// IsActionRestricted reports whether the given action class ("melee",
// "ranged", or "skill") is blocked by any active status.
func IsActionRestricted(s *ActiveSet, action string) bool {
	for _, a := range s.statuses {
		for _, r := range a.Def.RestrictActions {
			if r == action {
				return true
			}
		}
	}
	return false
}

// IsFullyRestricted reports whether every action class is blocked, meaning
// the combatant loses their turn (stunned).
func IsFullyRestricted(s *ActiveSet) bool {
	return IsActionRestricted(s, "melee") &&
		IsActionRestricted(s, "ranged") &&
		IsActionRestricted(s, "skill")
}
