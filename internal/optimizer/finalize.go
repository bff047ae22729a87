package optimizer

import (
	"math"
	"sort"

	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// finalizeNodes re-validates every complete assignment against all hard
// constraints, evaluates, deduplicates by canonical key, scores, and sorts.
// Some constraints cannot be bound-pruned incrementally, so everything is
// checked again here as defense in depth.
func (s *Search) finalizeNodes(p *Plan, nodes []*node) ([]*Candidate, RejectionTally) {
	var tally RejectionTally
	var out []*Candidate
	seen := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		if !n.assign.Complete() {
			tally.OtherItem++
			continue
		}
		if !s.itemsLegal(n.assign) {
			tally.OtherItem++
			continue
		}
		if !s.mustIncludePresent(n.assign) {
			tally.OtherItem++
			continue
		}
		if !s.setCountsLegal(n.assign) {
			tally.OtherItem++
			continue
		}
		if !s.requiredMajorsPresent(n.assign) {
			tally.MajorID++
			continue
		}

		summary := s.eval.EvaluateFull(s.snap, n.assign, s.cons.Filters.SkillPointBudget)
		if !summary.SkillPointsOK {
			tally.SPInfeasible++
			continue
		}
		if p.atk.active && !p.atk.acceptable[summary.FinalAttackSpeed] {
			tally.AttackSpeed++
			continue
		}
		if !s.thresholdsHold(p, summary.Totals) {
			tally.Threshold++
			continue
		}

		key := CanonicalKey(n.assign)
		if seen[key] {
			tally.Duplicate++
			continue
		}
		seen[key] = true

		score, breakdown := s.scorer.Score(summary, p.weights)
		out = append(out, &Candidate{
			Assignment: n.assign,
			Score:      score,
			Breakdown:  breakdown,
			Summary:    summary,
			Key:        key,
		})
	}

	// Score descending with a fully deterministic tie-break so two runs with
	// identical inputs produce bit-identical ordering.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	return out, tally
}

// itemsLegal re-checks global per-item legality for every placed item,
// locked slots included.
func (s *Search) itemsLegal(a gear.SlotAssignment) bool {
	f := &s.cons.Filters
	for slot, id := range a {
		if id == "" {
			return false
		}
		it, ok := s.snap.Item(id)
		if !ok {
			return false
		}
		if it.Category != gear.Slot(slot).Category() {
			return false
		}
		for _, ex := range f.ExcludedIDs {
			if ex == id {
				return false
			}
		}
		if !s.cons.TierAllowed(it.Tier) {
			return false
		}
		if f.Level > 0 && it.Level > f.Level {
			return false
		}
		if f.Class != "" && it.ClassReq != "" && it.ClassReq != f.Class {
			return false
		}
		if f.MinPowderSlots > 0 && it.Category.HasPowderSlots() && it.PowderSlots < f.MinPowderSlots {
			return false
		}
		if hasAnyMajorID(&it, f.ExcludedMajorIDs) {
			return false
		}
	}
	return true
}

func (s *Search) mustIncludePresent(a gear.SlotAssignment) bool {
	for _, id := range s.cons.Filters.MustIncludeIDs {
		if !a.Contains(id) {
			return false
		}
	}
	return true
}

func (s *Search) setCountsLegal(a gear.SlotAssignment) bool {
	counts := make(map[string]int)
	for _, id := range a {
		if it, ok := s.snap.Item(id); ok && it.SetID != "" {
			counts[it.SetID]++
		}
	}
	for setID, n := range counts {
		if info, ok := s.snap.Set(setID); ok && info.CountIllegal(n) {
			return false
		}
	}
	return true
}

func (s *Search) requiredMajorsPresent(a gear.SlotAssignment) bool {
	for _, want := range s.cons.Filters.RequiredMajorIDs {
		found := false
		for _, id := range a {
			if it, ok := s.snap.Item(id); ok && it.HasMajorID(want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// thresholdsHold verifies every configured min/max against the fully
// evaluated totals.
func (s *Search) thresholdsHold(p *Plan, totals map[string]float64) bool {
	for i := range p.thr {
		b := &p.thr[i]
		v := totals[b.key]
		if !math.IsInf(b.min, -1) && v < b.min {
			return false
		}
		if !math.IsInf(b.max, 1) && v > b.max {
			return false
		}
	}
	return true
}
