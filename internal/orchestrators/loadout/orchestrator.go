// Package loadout implements the loadout optimization orchestrator: the
// top-level driver that runs the fast beam pass and escalates through the
// rescue ladder when it comes back empty.
package loadout

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/engine"
	"github.com/KirkDiggler/loadout-api/internal/errors"
	"github.com/KirkDiggler/loadout-api/internal/optimizer"
	"github.com/KirkDiggler/loadout-api/internal/pkg/clock"
	"github.com/KirkDiggler/loadout-api/internal/pkg/idgen"
	loadoutsvc "github.com/KirkDiggler/loadout-api/internal/services/loadout"
)

// Config holds the dependencies for the loadout orchestrator
type Config struct {
	Evaluator engine.Evaluator
	Scorer    engine.Scorer
	Clock     clock.Clock     // optional, defaults to the system clock
	IDGen     idgen.Generator // optional, defaults to UUID run ids
	Logger    *slog.Logger    // optional, defaults to slog.Default
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	if c.Evaluator == nil {
		vb.RequiredField("Evaluator")
	}
	if c.Scorer == nil {
		vb.RequiredField("Scorer")
	}
	return vb.Build()
}

// Orchestrator implements the loadout.Service interface
type Orchestrator struct {
	eval   engine.Evaluator
	scorer engine.Scorer
	clk    clock.Clock
	idgen  idgen.Generator
	logger *slog.Logger
}

// New creates a new loadout orchestrator
func New(cfg *Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	o := &Orchestrator{
		eval:   cfg.Evaluator,
		scorer: cfg.Scorer,
		clk:    cfg.Clock,
		idgen:  cfg.IDGen,
		logger: cfg.Logger,
	}
	if o.clk == nil {
		o.clk = clock.New()
	}
	if o.idgen == nil {
		o.idgen = idgen.NewUUID("run")
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// Ensure Orchestrator implements the Service interface
var _ loadoutsvc.Service = (*Orchestrator)(nil)

// attempt is one rung of the rescue ladder. The ladder is a flat list and
// every rung carries its tier index, so termination is structurally obvious:
// there is no re-entrant rescue call to guard with a flag.
type attempt struct {
	name      string
	overrides optimizer.Overrides
}

// Optimize runs the full search pipeline: static checks, exact enumeration
// for provably small spaces, the fast beam pass, the rescue ladder, the
// threshold-biased re-run, and the wall-clock-capped deterministic fallback.
func (o *Orchestrator) Optimize(ctx context.Context, input *loadoutsvc.OptimizeInput) (*loadoutsvc.OptimizeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument("snapshot is required")
	}
	if input.Constraints == nil {
		return nil, errors.InvalidArgument("constraints are required")
	}

	cons := input.Constraints
	runID := o.idgen.Generate()
	log := o.logger.With("run_id", runID, "catalog_size", input.Snapshot.Size())

	search, err := optimizer.New(&optimizer.Config{
		Snapshot:    input.Snapshot,
		Constraints: cons,
		Evaluator:   o.eval,
		Scorer:      o.scorer,
		Clock:       o.clk,
		Progress:    input.Progress,
		RunID:       runID,
	})
	if err != nil {
		return nil, err
	}

	base := search.BuildPlan(optimizer.Overrides{})

	// Static bound checks: configuration problems are zero-result
	// diagnostics with a reason code, never errors.
	if code, detail, ok := search.StaticCheck(base); !ok {
		log.Info("optimize rejected by static checks", "reason", string(code), "detail", detail)
		if input.Progress != nil {
			input.Progress(optimizer.ProgressEvent{
				RunID:  runID,
				Phase:  optimizer.PhaseDiagnostics,
				Reason: code,
				Detail: detail,
			})
		}
		return &loadoutsvc.OptimizeOutput{
			Reason:  code,
			Detail:  detail,
			Attempt: "static-check",
			RunID:   runID,
		}, nil
	}

	// Small spaces skip heuristics entirely: exhaustive enumeration is both
	// cheaper and true-optimal among the sampled pools.
	if product := base.PoolProduct(); product <= cons.Budgets.ExactEnumThreshold {
		log.Info("pool product below exact threshold, enumerating", "product", product)
		report, err := search.RunExact(ctx, base)
		if err != nil {
			return nil, err
		}
		return o.output(runID, "exact", cons, report), nil
	}

	var lastReport *optimizer.Report
	for tier, att := range o.ladder(cons) {
		if err := ctx.Err(); err != nil {
			return nil, errors.FromContext(err)
		}

		plan := base
		if tier > 0 {
			plan = search.BuildPlan(att.overrides)
		}
		report, err := search.RunBeam(ctx, plan)
		if err != nil {
			return nil, err
		}
		lastReport = report
		if !report.Empty() {
			log.Info("beam attempt succeeded",
				"tier", tier, "attempt", att.name, "candidates", len(report.Candidates))
			return o.output(runID, att.name, cons, report), nil
		}
		log.Info("beam attempt empty",
			"tier", tier, "attempt", att.name,
			"reason", string(report.Reason), "detail", report.Detail)

		if cons.Budgets.RescueDisabled {
			break
		}
	}

	if !cons.Budgets.RescueDisabled {
		// Last resort: deterministic, wall-clock-capped depth-first search.
		fallbackPlan := search.BuildPlan(optimizer.Overrides{
			TopKPerSlot: cons.Budgets.TopKPerSlot / 2,
		})
		report, err := search.RunFallback(ctx, fallbackPlan, cons.Budgets.FallbackTimeout, cons.Budgets.TopN)
		if err != nil {
			return nil, err
		}
		if !report.Empty() || lastReport == nil {
			return o.output(runID, "fallback", cons, report), nil
		}
		if report.Reason == optimizer.ReasonFallbackTimeout {
			lastReport = report
		}
	}

	if lastReport == nil {
		lastReport = &optimizer.Report{Reason: optimizer.ReasonSearchPruned}
	}
	return o.output(runID, "exhausted", cons, lastReport), nil
}

// ladder builds the attempt list for the configured strategy. Tier 0 is the
// fast pass with user budgets; later tiers escalate width and budget. When
// explicit thresholds are configured, a single threshold-biased attempt with
// rebalanced weights closes the ladder.
func (o *Orchestrator) ladder(cons *constraints.Constraints) []attempt {
	b := cons.Budgets

	fast := attempt{name: "fast"}
	deep := attempt{name: "deep", overrides: optimizer.Overrides{
		BeamWidth: 2 * b.BeamWidth,
		MaxStates: 4 * b.MaxStates,
	}}
	brute := attempt{name: "bruteforce", overrides: optimizer.Overrides{
		BeamWidth:   4 * b.BeamWidth,
		MaxStates:   8 * b.MaxStates,
		TopKPerSlot: 2 * b.TopKPerSlot,
	}}
	feas := attempt{name: "feasibility", overrides: optimizer.Overrides{
		BeamWidth:        2 * b.BeamWidth,
		MaxStates:        4 * b.MaxStates,
		PrimaryLaneShare: 0.35,
	}}

	var out []attempt
	if cons.Strategy == constraints.StrategyConstraintFirst {
		out = []attempt{fast, feas, deep, brute}
	} else {
		out = []attempt{fast, deep, brute, feas}
	}
	if cons.Budgets.RescueDisabled {
		return out[:1]
	}

	if cons.HasThresholds() {
		out = append(out, attempt{name: "threshold-biased", overrides: optimizer.Overrides{
			Weights:   thresholdBiasedWeights(cons),
			BeamWidth: 2 * b.BeamWidth,
			MaxStates: 6 * b.MaxStates,
		}})
	}
	return out
}

// thresholdBiasedWeights rebalances the objective toward the dimensions that
// carry hard thresholds, so the beam stops sacrificing them for raw score.
func thresholdBiasedWeights(cons *constraints.Constraints) map[string]float64 {
	out := make(map[string]float64, len(cons.Weights)+len(cons.Targets.Thresholds))
	mean := 0.0
	for k, w := range cons.Weights {
		out[k] = w
		if w < 0 {
			mean -= w
		} else {
			mean += w
		}
	}
	if len(cons.Weights) > 0 {
		mean /= float64(len(cons.Weights))
	}
	if mean == 0 {
		mean = 1
	}

	for _, t := range cons.Targets.Thresholds {
		switch {
		case t.Min != nil:
			out[t.Key] += 2 * mean
		case t.Max != nil:
			out[t.Key] -= 2 * mean
		}
	}
	return out
}

func (o *Orchestrator) output(runID, name string, cons *constraints.Constraints, report *optimizer.Report) *loadoutsvc.OptimizeOutput {
	cands := report.Candidates
	if len(cands) > cons.Budgets.TopN {
		cands = cands[:cons.Budgets.TopN]
	}
	return &loadoutsvc.OptimizeOutput{
		Candidates:      cands,
		Reason:          report.Reason,
		Detail:          report.Detail,
		Attempt:         name,
		RunID:           runID,
		ProcessedStates: report.ProcessedStates,
		Rejections:      report.Rejections,
	}
}
