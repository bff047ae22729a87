// Package engine defines the build-evaluation collaborators the optimizer
// depends on: the evaluator that turns slot assignments into derived combat
// metrics and a skill-point verdict, and the scorer that turns those metrics
// plus configured weights into a scalar.
package engine

//go:generate mockgen -destination=mock/mock_engine.go -package=enginemock github.com/KirkDiggler/loadout-api/internal/engine Evaluator,Scorer

import (
	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// Evaluator computes derived build metrics. EvaluatePartial runs in the hot
// beam loop on slot-incomplete assignments, so it takes no context and
// allocates nothing it can avoid; EvaluateFull runs once per surviving
// complete assignment in the finalizer.
type Evaluator interface {
	// EvaluatePartial estimates skill-point feasibility of a partial
	// assignment. Items placed later can add bonuses that repair an
	// estimate, so the result is an ordering signal for the beam, never a
	// pruning rule.
	EvaluatePartial(snap *catalog.Snapshot, assignment gear.SlotAssignment, pointBudget int) PartialEstimate

	// EvaluateFull computes the full derived-metric summary for a complete
	// assignment, including the authoritative skill-point verdict.
	EvaluateFull(snap *catalog.Snapshot, assignment gear.SlotAssignment, pointBudget int) *BuildSummary
}

// Scorer turns a build summary and objective weights into a scalar score
// plus a per-dimension breakdown keyed by weight name.
type Scorer interface {
	Score(summary *BuildSummary, weights map[string]float64) (float64, map[string]float64)
}
