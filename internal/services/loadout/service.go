// Package loadout defines the interface for loadout optimization operations
package loadout

//go:generate mockgen -destination=mock/mock_service.go -package=loadoutmock github.com/KirkDiggler/loadout-api/internal/services/loadout Service

import (
	"context"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/optimizer"
)

// Service defines the interface for loadout optimization
type Service interface {
	// Optimize searches the catalog for the best legal loadouts under the
	// given constraints. A zero-candidate output with a reason code is a
	// normal outcome; the returned error is non-nil only for invalid input
	// or cancellation.
	Optimize(ctx context.Context, input *OptimizeInput) (*OptimizeOutput, error)
}

// OptimizeInput defines the request for an optimization run
type OptimizeInput struct {
	Snapshot    *catalog.Snapshot
	Constraints *constraints.Constraints
	Progress    optimizer.ProgressFunc // optional
}

// OptimizeOutput defines the response for an optimization run
type OptimizeOutput struct {
	// Candidates is the ranked result list, bounded by the TopN budget.
	Candidates []*optimizer.Candidate

	// Reason and Detail diagnose a zero-candidate outcome.
	Reason optimizer.ReasonCode
	Detail string

	// Attempt names the tier that produced the results (or the last tier
	// tried), e.g. "exact", "fast", "deep", "threshold-biased", "fallback".
	Attempt string

	RunID           string
	ProcessedStates int
	Rejections      optimizer.RejectionTally
}
