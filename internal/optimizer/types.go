// Package optimizer implements the beam-search loadout engine: candidate
// pool construction, admissible bound oracles, the staged beam search, exact
// enumeration for provably small spaces, a wall-clock-capped deterministic
// fallback, and final validation, deduplication, and scoring.
package optimizer

import (
	"github.com/KirkDiggler/loadout-api/internal/engine"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// ReasonCode is a machine-readable diagnostic attached to zero-result
// outcomes and progress events so callers can present actionable guidance
// without re-deriving it from raw counts.
type ReasonCode string

// Diagnostic reason codes.
const (
	ReasonEmptyPool           ReasonCode = "empty_pool"
	ReasonUnsatAttackTarget   ReasonCode = "unsat_attack_target"
	ReasonUnsatThreshold      ReasonCode = "unsat_threshold"
	ReasonSPInfeasible        ReasonCode = "sp_infeasible"
	ReasonSearchPruned        ReasonCode = "search_pruned"
	ReasonFallbackTimeout     ReasonCode = "fallback_timeout"
	ReasonMustIncludeConflict ReasonCode = "must_include_conflict"
)

// Phase identifies which engine stage a progress event came from.
type Phase string

// Progress phases.
const (
	PhaseBeamSearch  Phase = "beam-search"
	PhaseExactSearch Phase = "exact-search"
	PhaseDiagnostics Phase = "diagnostics"
)

// CandidatePreview is a small live view of a top in-progress partial.
type CandidatePreview struct {
	Assignment gear.SlotAssignment
	Bound      float64
}

// ProgressEvent is the payload delivered to the progress callback.
type ProgressEvent struct {
	RunID           string
	Phase           Phase
	ProcessedStates int
	BeamSize        int
	SlotsExpanded   int
	SlotsTotal      int
	Detail          string
	Reason          ReasonCode
	Preview         []CandidatePreview
}

// ProgressFunc receives progress events. It is invoked synchronously from
// the search loop and must return quickly.
type ProgressFunc func(ProgressEvent)

// Candidate is a complete, fully validated assignment. Candidates are
// produced only by the finalizer and are immutable afterwards.
type Candidate struct {
	Assignment gear.SlotAssignment
	Score      float64
	Breakdown  map[string]float64
	Summary    *engine.BuildSummary
	Key        string
}

// RejectionTally counts finalizer rejections by category.
type RejectionTally struct {
	SPInfeasible int
	MajorID      int
	Duplicate    int
	AttackSpeed  int
	Threshold    int
	OtherItem    int
}

// Total returns the summed rejection count.
func (t RejectionTally) Total() int {
	return t.SPInfeasible + t.MajorID + t.Duplicate + t.AttackSpeed + t.Threshold + t.OtherItem
}

// Report is the outcome of one search attempt. A zero-candidate report is a
// normal, diagnosed outcome, not an error.
type Report struct {
	Candidates      []*Candidate
	Reason          ReasonCode
	Detail          string
	ProcessedStates int
	Rejections      RejectionTally
}

// Empty reports whether the attempt produced no candidates.
func (r *Report) Empty() bool {
	return len(r.Candidates) == 0
}
