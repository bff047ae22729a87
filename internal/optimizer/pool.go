package optimizer

import (
	"math"
	"sort"

	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// poolViewBonus is how many extra pool entries each additional ranking view
// earns beyond the configured top-K.
const poolViewBonus = 3

// buildPool returns the ordered candidate item ids for one slot. The list
// interleaves several independently sorted views of the legal item set so
// items that satisfy hard constraints are not crowded out by items that
// merely maximize the soft objective. Must-include items of the slot's
// category are pinned to the front. Pure function of catalog + constraints
// (+ optional pinned allowlist).
func (s *Search) buildPool(slot gear.Slot, p *Plan, pinned map[string]bool) []string {
	legal := s.legalItems(slot, pinned)
	if len(legal) == 0 {
		return nil
	}

	views := s.poolViews(legal, p)
	target := p.topK + poolViewBonus*(len(views)-1)
	if target > len(legal) {
		target = len(legal)
	}

	out := make([]string, 0, target)
	seen := make(map[string]bool, target)

	// Must-include items first so the beam tries them before any distractor.
	for _, id := range s.cons.Filters.MustIncludeIDs {
		for i := range legal {
			if legal[i].ID == id && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	// Round-robin across the views until the pool-size target is met.
	cursors := make([]int, len(views))
	for len(out) < target {
		advanced := false
		for v := range views {
			if len(out) >= target {
				break
			}
			for cursors[v] < len(views[v]) {
				id := legal[views[v][cursors[v]]].ID
				cursors[v]++
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
					advanced = true
					break
				}
			}
		}
		if !advanced {
			break
		}
	}
	return out
}

// legalItems filters the slot's category by the hard per-item rules.
func (s *Search) legalItems(slot gear.Slot, pinned map[string]bool) []gear.Item {
	f := &s.cons.Filters
	cat := slot.Category()

	excluded := make(map[string]bool, len(f.ExcludedIDs))
	for _, id := range f.ExcludedIDs {
		excluded[id] = true
	}
	must := make(map[string]bool, len(f.MustIncludeIDs))
	for _, id := range f.MustIncludeIDs {
		must[id] = true
	}

	var out []gear.Item
	for _, id := range s.snap.CategoryItems(cat) {
		it, _ := s.snap.Item(id)
		if excluded[id] {
			continue
		}
		if pinned != nil && !pinned[id] && !must[id] {
			continue
		}
		if !s.cons.TierAllowed(it.Tier) {
			continue
		}
		if f.Level > 0 && it.Level > f.Level {
			continue
		}
		if f.Class != "" && it.ClassReq != "" && it.ClassReq != f.Class {
			continue
		}
		if f.MinPowderSlots > 0 && cat.HasPowderSlots() && it.PowderSlots < f.MinPowderSlots {
			continue
		}
		if hasAnyMajorID(&it, f.ExcludedMajorIDs) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func hasAnyMajorID(it *gear.Item, ids []string) bool {
	for _, id := range ids {
		if it.HasMajorID(id) {
			return true
		}
	}
	return false
}

// poolViews builds the independently sorted views over the legal item set.
// Each view is an index permutation of legal, sorted by a precomputed
// per-item metric with an id tie-break, so pool order is fully
// deterministic.
func (s *Search) poolViews(legal []gear.Item, p *Plan) [][]int {
	var views [][]int

	add := func(metric []float64, descending bool) {
		view := make([]int, len(legal))
		for i := range view {
			view[i] = i
		}
		sort.Slice(view, func(i, j int) bool {
			a, b := view[i], view[j]
			if metric[a] != metric[b] {
				if descending {
					return metric[a] > metric[b]
				}
				return metric[a] < metric[b]
			}
			return legal[a].ID < legal[b].ID
		})
		views = append(views, view)
	}

	metric := func(fn func(it *gear.Item) float64) []float64 {
		m := make([]float64, len(legal))
		for i := range legal {
			m[i] = fn(&legal[i])
		}
		return m
	}

	// Best rough objective score.
	add(metric(p.rough), true)

	// Lowest stat requirements: easiest to wear.
	add(metric(func(it *gear.Item) float64 { return float64(it.TotalSkillReq()) }), false)

	// Best skill-point support.
	add(metric(func(it *gear.Item) float64 { return float64(it.TotalSkillBonus()) }), true)

	// Generic utility: summed positive identifications.
	add(metric(positiveIdentSum), true)

	// Attack-tier movement in the preferred direction, when a final speed
	// target is configured.
	if p.atk.active {
		atk := metric(func(it *gear.Item) float64 { return float64(it.AttackTier()) })
		switch p.atk.direction {
		case directionDown:
			add(atk, false)
		case directionUp:
			add(atk, true)
		default:
			abs := make([]float64, len(atk))
			for i, v := range atk {
				abs[i] = math.Abs(v)
			}
			add(abs, true)
		}
	}

	// Support for overcapped requirements: skills some fixed item demands
	// past the assignable cap can only be met with bonus support.
	if overcap := s.overcapSkills(); len(overcap) > 0 {
		add(metric(func(it *gear.Item) float64 {
			return float64(overcapSupport(it, overcap))
		}), true)
	}

	// Best (and worst, for max-bounded keys) contribution per threshold key.
	for i := range p.thr {
		b := p.thr[i]
		vals := metric(func(it *gear.Item) float64 { return it.Ident(b.key) })
		if !math.IsInf(b.min, -1) {
			add(vals, true)
		}
		if !math.IsInf(b.max, 1) {
			add(vals, false)
		}
	}

	return views
}

// positiveIdentSum sums an item's positive identifications in sorted key
// order so the float total is reproducible.
func positiveIdentSum(it *gear.Item) float64 {
	keys := make([]string, 0, len(it.Idents))
	for k := range it.Idents {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0.0
	for _, k := range keys {
		if v := it.Idents[k]; v > 0 {
			total += v
		}
	}
	return total
}

// overcapSkills returns the skills some locked or must-include item requires
// past the assignable cap.
func (s *Search) overcapSkills() []gear.Skill {
	var fixed []gear.Item
	for _, slot := range gear.AllSlots {
		if s.cons.IsLocked(slot) {
			if it, ok := s.snap.Item(s.cons.Locks.Base[slot]); ok {
				fixed = append(fixed, it)
			}
		}
	}
	for _, id := range s.cons.Filters.MustIncludeIDs {
		if it, ok := s.snap.Item(id); ok {
			fixed = append(fixed, it)
		}
	}

	var out []gear.Skill
	for sk := gear.Skill(0); sk < gear.NumSkills; sk++ {
		for i := range fixed {
			if fixed[i].SkillReqs[sk] > gear.SkillCap {
				out = append(out, sk)
				break
			}
		}
	}
	return out
}

func overcapSupport(it *gear.Item, skills []gear.Skill) int {
	total := 0
	for _, sk := range skills {
		total += it.SkillBonus[sk]
	}
	return total
}
