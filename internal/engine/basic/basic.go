// Package basic provides the reference evaluator and scorer: plain summed
// identifications, a greedy skill-point assignment, and a weighted-sum
// objective. The optimizer depends only on the engine interfaces, so richer
// evaluators can replace this package without touching the search.
package basic

import (
	"sort"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/engine"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// Evaluator is the reference engine.Evaluator implementation.
type Evaluator struct{}

// NewEvaluator creates the reference evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

var _ engine.Evaluator = (*Evaluator)(nil)

// skillNeeds computes, per skill, the minimum base points that satisfy every
// equipped item's requirement. An item's own skill bonus cannot help meet its
// own requirement, only bonuses from the other equipped items can.
func skillNeeds(snap *catalog.Snapshot, assignment gear.SlotAssignment) (needs [gear.NumSkills]int, ok bool) {
	var bonusTotal [gear.NumSkills]int
	items := make([]gear.Item, 0, gear.NumSlots)
	for _, id := range assignment {
		if id == "" {
			continue
		}
		it, found := snap.Item(id)
		if !found {
			return needs, false
		}
		items = append(items, it)
		for s := 0; s < gear.NumSkills; s++ {
			bonusTotal[s] += it.SkillBonus[s]
		}
	}

	for _, it := range items {
		for s := 0; s < gear.NumSkills; s++ {
			if it.SkillReqs[s] == 0 {
				continue
			}
			need := it.SkillReqs[s] - bonusTotal[s] + it.SkillBonus[s]
			if need > needs[s] {
				needs[s] = need
			}
		}
	}
	for s := 0; s < gear.NumSkills; s++ {
		if needs[s] < 0 {
			needs[s] = 0
		}
	}
	return needs, true
}

// EvaluatePartial estimates skill-point feasibility of a partial assignment.
func (e *Evaluator) EvaluatePartial(snap *catalog.Snapshot, assignment gear.SlotAssignment, pointBudget int) engine.PartialEstimate {
	needs, ok := skillNeeds(snap, assignment)
	est := engine.PartialEstimate{PointBudget: pointBudget}
	if !ok {
		return est
	}

	total := 0
	feasible := true
	for s := 0; s < gear.NumSkills; s++ {
		total += needs[s]
		if needs[s] > gear.SkillCap {
			feasible = false
		}
	}
	est.PointsNeeded = total
	est.Feasible = feasible && total <= pointBudget
	return est
}

// EvaluateFull computes the derived-metric summary for a complete assignment.
func (e *Evaluator) EvaluateFull(snap *catalog.Snapshot, assignment gear.SlotAssignment, pointBudget int) *engine.BuildSummary {
	summary := &engine.BuildSummary{
		Totals:           make(map[string]float64),
		FinalAttackSpeed: gear.SpeedNormal,
	}

	atkTier := 0
	base := gear.SpeedNormal
	for slot, id := range assignment {
		if id == "" {
			continue
		}
		it, found := snap.Item(id)
		if !found {
			continue
		}
		for k, v := range it.Idents {
			summary.Totals[k] += v
		}
		atkTier += it.AttackTier()
		if gear.Slot(slot) == gear.SlotWeapon {
			base = it.AttackSpeed
		}
	}
	summary.FinalAttackSpeed = gear.ClampSpeed(int(base) + atkTier)

	needs, _ := skillNeeds(snap, assignment)
	total := 0
	feasible := true
	for s := 0; s < gear.NumSkills; s++ {
		summary.SkillAssignment[s] = needs[s]
		total += needs[s]
		if needs[s] > gear.SkillCap {
			feasible = false
		}
	}
	summary.PointsNeeded = total
	summary.SkillPointsOK = feasible && total <= pointBudget

	return summary
}

// Scorer is the reference engine.Scorer implementation: a weighted sum over
// summary totals.
type Scorer struct{}

// NewScorer creates the reference scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

var _ engine.Scorer = (*Scorer)(nil)

// Score computes the weighted objective and its per-dimension breakdown.
// Keys are accumulated in sorted order so the float sum is reproducible.
func (s *Scorer) Score(summary *engine.BuildSummary, weights map[string]float64) (float64, map[string]float64) {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	score := 0.0
	breakdown := make(map[string]float64, len(keys))
	for _, k := range keys {
		part := weights[k] * summary.Total(k)
		breakdown[k] = part
		score += part
	}
	return score, breakdown
}
