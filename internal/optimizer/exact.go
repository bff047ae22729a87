package optimizer

import (
	"context"
	"sort"
	"time"

	"github.com/KirkDiggler/loadout-api/internal/errors"
)

// exactProgressEvery is how many completed assignments pass between
// exact-search progress events.
const exactProgressEvery = 512

type dfsFrame struct {
	n    *node
	next int
}

// RunExact brute-forces the full space spanned by the candidate pools with
// an explicit-stack depth-first traversal. It is only called when the
// product of pool sizes is provably small, and it guarantees true-optimal
// results among the sampled pools. The same eager pruning as the beam
// applies; pruned branches cannot contain a legal assignment, so optimality
// over the pools is preserved.
func (s *Search) RunExact(ctx context.Context, p *Plan) (*Report, error) {
	report := &Report{}
	if len(p.order) == 0 {
		report.Candidates, report.Rejections = s.finalizeNodes(p, []*node{p.root})
		report.ProcessedStates = s.processed
		return report, nil
	}

	var complete []*node
	stack := make([]dfsFrame, 1, len(p.order)+1)
	stack[0] = dfsFrame{n: p.root}

	for len(stack) > 0 {
		pos := len(stack) - 1
		fr := &stack[pos]
		pool := p.pools[p.order[pos]]
		if fr.next >= len(pool) {
			stack = stack[:pos]
			continue
		}
		id := pool[fr.next]
		fr.next++

		child, ok := s.extend(p, fr.n, pos, id)
		if !ok {
			continue
		}
		if pos+1 < len(p.order) {
			stack = append(stack, dfsFrame{n: child})
			continue
		}

		// One candidate assignment completed; cancellation is polled here.
		if err := ctx.Err(); err != nil {
			return nil, errors.FromContext(err)
		}
		complete = append(complete, child)
		if len(complete)%exactProgressEvery == 0 {
			s.emit(ProgressEvent{
				Phase:         PhaseExactSearch,
				SlotsExpanded: len(p.order),
				SlotsTotal:    len(p.order),
				Detail:        "enumerating candidate pools",
			})
		}
	}

	report.Candidates, report.Rejections = s.finalizeNodes(p, complete)
	report.ProcessedStates = s.processed
	if report.Empty() {
		report.Reason = ReasonSearchPruned
		report.Detail = "exhaustive enumeration found no valid assignment"
	}
	return report, nil
}

// RunFallback is the absolute last resort: a deterministic depth-first
// search in sorted pool order with the same pruning, returning as soon as it
// accumulates topN valid candidates or the wall-clock cap elapses. The cap
// is advisory: it is checked per completed assignment and cannot preempt an
// in-flight expansion.
func (s *Search) RunFallback(ctx context.Context, p *Plan, timeout time.Duration, topN int) (*Report, error) {
	report := &Report{}
	if len(p.order) == 0 {
		report.Candidates, report.Rejections = s.finalizeNodes(p, []*node{p.root})
		report.ProcessedStates = s.processed
		return report, nil
	}

	start := s.clk.Now()
	var valid []*Candidate
	seen := make(map[string]bool)
	timedOut := false

	stack := make([]dfsFrame, 1, len(p.order)+1)
	stack[0] = dfsFrame{n: p.root}

	for len(stack) > 0 && !timedOut && len(valid) < topN {
		pos := len(stack) - 1
		fr := &stack[pos]
		pool := p.pools[p.order[pos]]
		if fr.next >= len(pool) {
			stack = stack[:pos]
			continue
		}
		id := pool[fr.next]
		fr.next++

		child, ok := s.extend(p, fr.n, pos, id)
		if !ok {
			continue
		}
		if pos+1 < len(p.order) {
			stack = append(stack, dfsFrame{n: child})
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, errors.FromContext(err)
		}
		if s.clk.Now().Sub(start) > timeout {
			timedOut = true
			break
		}

		cands, tally := s.finalizeNodes(p, []*node{child})
		report.Rejections.SPInfeasible += tally.SPInfeasible
		report.Rejections.MajorID += tally.MajorID
		report.Rejections.AttackSpeed += tally.AttackSpeed
		report.Rejections.Threshold += tally.Threshold
		report.Rejections.OtherItem += tally.OtherItem
		if len(cands) == 0 {
			continue
		}
		c := cands[0]
		if seen[c.Key] {
			report.Rejections.Duplicate++
			continue
		}
		seen[c.Key] = true
		valid = append(valid, c)
	}

	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Score != valid[j].Score {
			return valid[i].Score > valid[j].Score
		}
		return valid[i].Key < valid[j].Key
	})
	report.Candidates = valid
	report.ProcessedStates = s.processed
	if timedOut {
		report.Reason = ReasonFallbackTimeout
		report.Detail = "fallback wall-clock cap elapsed"
	} else if report.Empty() {
		report.Reason = ReasonSearchPruned
		report.Detail = "fallback search exhausted the pools without a valid assignment"
	}
	return report, nil
}
