package optimizer

import (
	"context"
	"math"
	"sort"

	"github.com/KirkDiggler/loadout-api/internal/engine"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/errors"
)

// setCounts tracks how many pieces of each set a partial assignment wears.
// It is a small sorted slice so extending a node copies it cheaply and
// deterministically.
type setCounts []setCount

type setCount struct {
	id string
	n  int
}

func (c setCounts) get(id string) int {
	for i := range c {
		if c[i].id == id {
			return c[i].n
		}
	}
	return 0
}

// inc returns a fresh copy with the count for id incremented. Sibling nodes
// must never share mutable state, so the receiver is left untouched.
func (c setCounts) inc(id string) setCounts {
	out := make(setCounts, len(c), len(c)+1)
	copy(out, c)
	for i := range out {
		if out[i].id == id {
			out[i].n++
			return out
		}
	}
	out = append(out, setCount{id: id, n: 1})
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// node is one partial assignment in the beam. Every running total is the
// exact sum over the items placed so far; a node is never retroactively
// corrected, only discarded. Nodes live for exactly one stage.
type node struct {
	assign     gear.SlotAssignment
	score      float64 // cumulative heuristic score
	bound      float64 // score + best-case remaining contribution
	weaponBase int     // -1 until the weapon slot is filled
	atkTier    int
	spBonus    [gear.NumSkills]int
	spMaxReq   [gear.NumSkills]int
	thr        []float64 // per threshold key, aligned with Plan.thr
	sets       setCounts
	est        engine.PartialEstimate
	key        string
}

// focusDeficit is the total bonus support still missing for requirements
// past the assignable cap.
func (n *node) focusDeficit() int {
	total := 0
	for sk := 0; sk < gear.NumSkills; sk++ {
		if d := n.spMaxReq[sk] - gear.SkillCap - n.spBonus[sk]; d > 0 {
			total += d
		}
	}
	return total
}

// thrNeed is how much summed contribution the node still needs to meet every
// configured minimum. Smaller is closer to satisfying the hard targets.
func (n *node) thrNeed(p *Plan) float64 {
	total := 0.0
	for i := range p.thr {
		if math.IsInf(p.thr[i].min, -1) {
			continue
		}
		if d := p.thr[i].min - n.thr[i]; d > 0 {
			total += d
		}
	}
	return total
}

// RunBeam executes one staged beam pass over the plan. A zero-candidate
// report is a diagnosed outcome; only cancellation returns an error.
func (s *Search) RunBeam(ctx context.Context, p *Plan) (*Report, error) {
	report := &Report{}
	beam := []*node{p.root}
	budgetExhausted := false

	for pos := range p.order {
		if err := ctx.Err(); err != nil {
			return nil, errors.FromContext(err)
		}

		branchCap := s.branchCap(p, len(beam), len(p.order)-pos)
		var children []*node

		for _, parent := range beam {
			expanded := 0
			for _, itemID := range p.pools[p.order[pos]] {
				if expanded >= branchCap {
					break
				}
				if s.processed >= p.maxStates {
					budgetExhausted = true
					break
				}
				child, ok := s.extend(p, parent, pos, itemID)
				if !ok {
					continue
				}
				expanded++
				children = append(children, child)
			}
			if budgetExhausted {
				break
			}
		}

		if len(children) == 0 {
			report.Reason = ReasonSearchPruned
			if budgetExhausted {
				report.Detail = "expansion budget exhausted at slot " + p.order[pos].String()
			} else {
				report.Detail = "no legal expansion at slot " + p.order[pos].String()
			}
			report.ProcessedStates = s.processed
			s.emit(ProgressEvent{
				Phase:         PhaseDiagnostics,
				SlotsExpanded: pos,
				SlotsTotal:    len(p.order),
				Reason:        report.Reason,
				Detail:        report.Detail,
			})
			return report, nil
		}

		beam = s.mergeLanes(p, children)

		s.emit(ProgressEvent{
			Phase:         PhaseBeamSearch,
			BeamSize:      len(beam),
			SlotsExpanded: pos + 1,
			SlotsTotal:    len(p.order),
			Preview:       preview(beam),
		})
	}

	report.Candidates, report.Rejections = s.finalizeNodes(p, beam)
	report.ProcessedStates = s.processed
	if report.Empty() {
		report.Reason = ReasonSearchPruned
		report.Detail = "all complete assignments failed final validation"
		if report.Rejections.SPInfeasible > 0 && report.Rejections.SPInfeasible >= report.Rejections.Total()/2 {
			report.Reason = ReasonSPInfeasible
			report.Detail = "most complete assignments were skill-point infeasible"
		}
	}
	return report, nil
}

// branchCap derives the per-node expansion cap for a stage from the
// remaining absolute budget spread across remaining nodes and stages.
func (s *Search) branchCap(p *Plan, beamSize, remainingStages int) int {
	remaining := p.maxStates - s.processed
	if remaining < 1 {
		remaining = 1
	}
	branchCap := remaining / (beamSize * remainingStages)
	if branchCap < s.cons.Budgets.BranchCapMin {
		branchCap = s.cons.Budgets.BranchCapMin
	}
	if branchCap > s.cons.Budgets.BranchCapMax {
		branchCap = s.cons.Budgets.BranchCapMax
	}
	return branchCap
}

// extend places itemID into the stage slot of parent, running every eager
// rejection first. Eager rejects consume no expansion budget. The returned
// child shares no mutable state with its parent or siblings.
func (s *Search) extend(p *Plan, parent *node, pos int, itemID string) (*node, bool) {
	it, ok := s.snap.Item(itemID)
	if !ok {
		return nil, false
	}
	slot := p.order[pos]

	// Set-piece legality: reject a count that is illegal now and cannot be
	// repaired by any remaining pool.
	var sets setCounts
	if it.SetID != "" {
		count := parent.sets.get(it.SetID) + 1
		if info, known := s.snap.Set(it.SetID); known && info.CountIllegal(count) {
			if p.bounds.setAvail[it.SetID][pos+1] == 0 {
				return nil, false
			}
		}
	}

	// Attack-target reachability.
	weaponBase := parent.weaponBase
	if slot == gear.SlotWeapon {
		weaponBase = int(it.AttackSpeed)
	}
	atkTier := parent.atkTier + it.AttackTier()
	if !p.atk.reachable(weaponBase, atkTier, p.bounds.atkMin[pos+1], p.bounds.atkMax[pos+1]) {
		return nil, false
	}

	// Overcap support: a requirement past the assignable cap must be covered
	// by bonuses; reject when even the best remaining support cannot close
	// the deficit.
	var spBonus, spMaxReq [gear.NumSkills]int
	for sk := 0; sk < gear.NumSkills; sk++ {
		spBonus[sk] = parent.spBonus[sk] + it.SkillBonus[sk]
		spMaxReq[sk] = parent.spMaxReq[sk]
		if it.SkillReqs[sk] > spMaxReq[sk] {
			spMaxReq[sk] = it.SkillReqs[sk]
		}
		if over := spMaxReq[sk] - gear.SkillCap; over > 0 {
			if over-spBonus[sk] > p.bounds.spMax[sk][pos+1] {
				return nil, false
			}
		}
	}

	// Arbitrary numeric thresholds.
	thr := make([]float64, len(p.thr))
	for i := range p.thr {
		thr[i] = parent.thr[i] + it.Ident(p.thr[i].key)
		if thr[i]+p.bounds.thrMax[i][pos+1] < p.thr[i].min {
			return nil, false
		}
		if thr[i]+p.bounds.thrMin[i][pos+1] > p.thr[i].max {
			return nil, false
		}
	}

	if it.SetID != "" {
		sets = parent.sets.inc(it.SetID)
	} else {
		sets = parent.sets
	}

	child := &node{
		assign:     parent.assign, // array copy: fresh assignment per child
		score:      parent.score + p.rough(&it),
		weaponBase: weaponBase,
		atkTier:    atkTier,
		spBonus:    spBonus,
		spMaxReq:   spMaxReq,
		thr:        thr,
		sets:       sets,
	}
	child.assign[slot] = itemID
	child.bound = child.score + p.bounds.scoreMax[pos+1]
	child.est = s.eval.EvaluatePartial(s.snap, child.assign, s.cons.Filters.SkillPointBudget)
	child.key = CanonicalKey(child.assign)
	s.processed++
	return child, true
}

// mergeLanes keeps the stage's survivors. A single sort order cannot protect
// both the best-objective nodes and the nodes most likely to satisfy strict
// thresholds, so survivors are drawn from two lanes: the primary lane gets
// roughly the configured share of the width, the hard lane fills the rest,
// and leftovers come from the primary order. Deduplicated by canonical
// partial key.
func (s *Search) mergeLanes(p *Plan, children []*node) []*node {
	width := p.width
	if len(children) <= width {
		// Still sort for deterministic downstream order.
		sortPrimary(p, children)
		return dedupeByKey(children, width)
	}

	primary := make([]*node, len(children))
	copy(primary, children)
	sortPrimary(p, primary)

	hard := make([]*node, len(children))
	copy(hard, children)
	sortHard(p, hard)

	primaryQuota := int(p.share*float64(width) + 0.5)

	out := make([]*node, 0, width)
	taken := make(map[string]bool, width)
	take := func(lane []*node, limit int) {
		for _, n := range lane {
			if len(out) >= limit {
				return
			}
			if taken[n.key] {
				continue
			}
			taken[n.key] = true
			out = append(out, n)
		}
	}

	take(primary, primaryQuota)
	take(hard, width)
	take(primary, width)
	return out
}

func sortPrimary(p *Plan, nodes []*node) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if ab, bb := p.atk.bias(a.weaponBase, a.atkTier), p.atk.bias(b.weaponBase, b.atkTier); ab != bb {
			return ab < bb
		}
		if af, bf := a.focusDeficit(), b.focusDeficit(); af != bf {
			return af < bf
		}
		if as, bs := a.est.Surplus(), b.est.Surplus(); as != bs {
			return as < bs
		}
		if a.bound != b.bound {
			return a.bound > b.bound
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.key < b.key
	})
}

func sortHard(p *Plan, nodes []*node) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if at, bt := a.thrNeed(p), b.thrNeed(p); at != bt {
			return at < bt
		}
		if ab, bb := p.atk.bias(a.weaponBase, a.atkTier), p.atk.bias(b.weaponBase, b.atkTier); ab != bb {
			return ab < bb
		}
		if a.bound != b.bound {
			return a.bound > b.bound
		}
		return a.key < b.key
	})
}

func dedupeByKey(nodes []*node, width int) []*node {
	out := make([]*node, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.key] {
			continue
		}
		seen[n.key] = true
		out = append(out, n)
		if len(out) >= width {
			break
		}
	}
	return out
}

func preview(beam []*node) []CandidatePreview {
	n := 3
	if len(beam) < n {
		n = len(beam)
	}
	out := make([]CandidatePreview, n)
	for i := 0; i < n; i++ {
		out[i] = CandidatePreview{Assignment: beam[i].assign, Bound: beam[i].bound}
	}
	return out
}

// CanonicalKey returns the normalized representation of an assignment used
// for deduplication: slots in fixed order with the two ring assignments
// sorted, so builds differing only by a ring swap collapse to one key.
func CanonicalKey(a gear.SlotAssignment) string {
	r1, r2 := a[gear.SlotRing1], a[gear.SlotRing2]
	if r2 < r1 {
		a[gear.SlotRing1], a[gear.SlotRing2] = r2, r1
	}
	size := 0
	for _, id := range a {
		size += len(id) + 1
	}
	buf := make([]byte, 0, size)
	for i, id := range a {
		if i > 0 {
			buf = append(buf, '|')
		}
		buf = append(buf, id...)
	}
	return string(buf)
}
