package engine

import (
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// PartialEstimate is the skill-point feasibility estimate for a partial
// assignment. PointsNeeded is the minimum base points required so far;
// Feasible is false only when no completion can be feasible.
type PartialEstimate struct {
	Feasible     bool
	PointsNeeded int
	PointBudget  int
}

// Surplus returns how many points past the budget the partial already
// demands; zero for feasible partials. Used as a closeness ordering key.
func (e PartialEstimate) Surplus() int {
	if e.PointsNeeded <= e.PointBudget {
		return 0
	}
	return e.PointsNeeded - e.PointBudget
}

// SkillAssignment holds the base points assigned per skill.
type SkillAssignment [gear.NumSkills]int

// Total returns the summed assigned points.
func (a SkillAssignment) Total() int {
	n := 0
	for _, v := range a {
		n += v
	}
	return n
}

// BuildSummary is the full derived-metric summary of a complete assignment.
type BuildSummary struct {
	// Totals holds the summed identification values over all nine slots,
	// keyed by identification name.
	Totals map[string]float64

	// FinalAttackSpeed is the weapon's base tier shifted by summed
	// attack-tier bonuses, clamped to the valid range.
	FinalAttackSpeed gear.AttackSpeed

	// SkillAssignment is the base point distribution that satisfies every
	// item requirement, when one exists.
	SkillAssignment SkillAssignment

	// SkillPointsOK reports whether the assignment is wearable within the
	// point budget.
	SkillPointsOK bool

	// PointsNeeded is the minimum base points the build demands.
	PointsNeeded int
}

// Total returns the summed identification value for a key, zero if absent.
func (s *BuildSummary) Total(key string) float64 {
	return s.Totals[key]
}
