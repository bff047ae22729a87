package loadout_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/engine/basic"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/errors"
	"github.com/KirkDiggler/loadout-api/internal/optimizer"
	loadoutorc "github.com/KirkDiggler/loadout-api/internal/orchestrators/loadout"
	loadoutsvc "github.com/KirkDiggler/loadout-api/internal/services/loadout"
	"github.com/KirkDiggler/loadout-api/internal/testutils"
)

type OrchestratorTestSuite struct {
	suite.Suite
	orc *loadoutorc.Orchestrator
	ctx context.Context
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()

	orc, err := loadoutorc.New(&loadoutorc.Config{
		Evaluator: basic.NewEvaluator(),
		Scorer:    basic.NewScorer(),
	})
	s.Require().NoError(err)
	s.orc = orc
}

func (s *OrchestratorTestSuite) constraints(cfg *constraints.Config) *constraints.Constraints {
	cons, err := constraints.New(cfg)
	s.Require().NoError(err)
	return cons
}

func (s *OrchestratorTestSuite) TestNew() {
	testCases := []struct {
		name    string
		config  *loadoutorc.Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "success",
			config: &loadoutorc.Config{
				Evaluator: basic.NewEvaluator(),
				Scorer:    basic.NewScorer(),
			},
		},
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
			errMsg:  "config cannot be nil",
		},
		{
			name: "missing evaluator",
			config: &loadoutorc.Config{
				Scorer: basic.NewScorer(),
			},
			wantErr: true,
			errMsg:  "Evaluator",
		},
		{
			name: "missing scorer",
			config: &loadoutorc.Config{
				Evaluator: basic.NewEvaluator(),
			},
			wantErr: true,
			errMsg:  "Scorer",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			orc, err := loadoutorc.New(tc.config)
			if tc.wantErr {
				s.Require().Error(err)
				s.Contains(err.Error(), tc.errMsg)
				s.Nil(orc)
			} else {
				s.NoError(err)
				s.NotNil(orc)
			}
		})
	}
}

func (s *OrchestratorTestSuite) TestOptimizeValidatesInput() {
	snap := testutils.BasicCatalog(s.T(), 2)
	cons := s.constraints(&constraints.Config{})

	testCases := []struct {
		name  string
		input *loadoutsvc.OptimizeInput
	}{
		{name: "nil input", input: nil},
		{name: "missing snapshot", input: &loadoutsvc.OptimizeInput{Constraints: cons}},
		{name: "missing constraints", input: &loadoutsvc.OptimizeInput{Snapshot: snap}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			out, err := s.orc.Optimize(s.ctx, tc.input)
			s.Require().Error(err)
			s.True(errors.IsInvalidArgument(err))
			s.Nil(out)
		})
	}
}

func (s *OrchestratorTestSuite) TestSmallSpacesUseExactEnumeration() {
	snap := testutils.BasicCatalog(s.T(), 2)
	out, err := s.orc.Optimize(s.ctx, &loadoutsvc.OptimizeInput{
		Snapshot: snap,
		Constraints: s.constraints(&constraints.Config{
			Weights: map[string]float64{"mr": 1},
			Budgets: constraints.Budgets{TopN: 3},
		}),
	})
	s.Require().NoError(err)

	s.Equal("exact", out.Attempt)
	s.Len(out.Candidates, 3)
	s.InDelta(18.0, out.Candidates[0].Score, 1e-9)
	s.True(strings.HasPrefix(out.RunID, "run_"))
}

func (s *OrchestratorTestSuite) TestLargeSpacesUseBeam() {
	snap := testutils.BasicCatalog(s.T(), 6)
	out, err := s.orc.Optimize(s.ctx, &loadoutsvc.OptimizeInput{
		Snapshot: snap,
		Constraints: s.constraints(&constraints.Config{
			Weights: map[string]float64{"mr": 1},
		}),
	})
	s.Require().NoError(err)

	s.Equal("fast", out.Attempt)
	s.Require().NotEmpty(out.Candidates)
	s.LessOrEqual(len(out.Candidates), constraints.DefaultTopN)
	s.InDelta(54.0, out.Candidates[0].Score, 1e-9)
}

func (s *OrchestratorTestSuite) TestStaticCheckShortCircuits() {
	min999 := 999.0
	snap := testutils.BasicCatalog(s.T(), 4)

	var events []optimizer.ProgressEvent
	out, err := s.orc.Optimize(s.ctx, &loadoutsvc.OptimizeInput{
		Snapshot: snap,
		Constraints: s.constraints(&constraints.Config{
			Targets: constraints.Targets{
				Thresholds: []constraints.Threshold{{Key: "mr", Min: &min999}},
			},
		}),
		Progress: func(ev optimizer.ProgressEvent) { events = append(events, ev) },
	})
	s.Require().NoError(err)

	s.Empty(out.Candidates)
	s.Equal("static-check", out.Attempt)
	s.Equal(optimizer.ReasonUnsatThreshold, out.Reason)
	s.NotEmpty(out.Detail)
	// Zero states processed: the search never started.
	s.Zero(out.ProcessedStates)

	s.Require().NotEmpty(events)
	s.Equal(optimizer.PhaseDiagnostics, events[len(events)-1].Phase)
}

func (s *OrchestratorTestSuite) TestMustIncludeIsHonored() {
	snap := testutils.BasicCatalog(s.T(), 2)
	out, err := s.orc.Optimize(s.ctx, &loadoutsvc.OptimizeInput{
		Snapshot: snap,
		Constraints: s.constraints(&constraints.Config{
			Weights: map[string]float64{"mr": 1},
			Filters: constraints.Filters{MustIncludeIDs: []string{"ring-1"}},
		}),
	})
	s.Require().NoError(err)

	s.Require().NotEmpty(out.Candidates)
	for _, c := range out.Candidates {
		s.True(c.Assignment.Contains("ring-1"), "candidate %s misses the must-include ring", c.Key)
	}
}

func (s *OrchestratorTestSuite) TestUnsatisfiableFinalizerExhaustsLadder() {
	snap := testutils.BasicCatalog(s.T(), 6)
	out, err := s.orc.Optimize(s.ctx, &loadoutsvc.OptimizeInput{
		Snapshot: snap,
		Constraints: s.constraints(&constraints.Config{
			Weights: map[string]float64{"mr": 1},
			// No catalog item carries this major ability, which only the
			// finalizer can detect.
			Filters: constraints.Filters{RequiredMajorIDs: []string{"sorcery"}},
			Budgets: constraints.Budgets{RescueDisabled: true},
		}),
	})
	s.Require().NoError(err)

	s.Empty(out.Candidates)
	s.Equal("exhausted", out.Attempt)
	s.NotZero(out.Rejections.MajorID)
}

func (s *OrchestratorTestSuite) TestProgressEventsCarryRunID() {
	snap := testutils.BasicCatalog(s.T(), 6)

	var events []optimizer.ProgressEvent
	out, err := s.orc.Optimize(s.ctx, &loadoutsvc.OptimizeInput{
		Snapshot: snap,
		Constraints: s.constraints(&constraints.Config{
			Weights: map[string]float64{"mr": 1},
		}),
		Progress: func(ev optimizer.ProgressEvent) { events = append(events, ev) },
	})
	s.Require().NoError(err)

	// One event per expanded slot on the fast pass.
	s.Require().GreaterOrEqual(len(events), gear.NumSlots)
	for _, ev := range events {
		s.Equal(out.RunID, ev.RunID)
		s.Equal(optimizer.PhaseBeamSearch, ev.Phase)
	}
}

func (s *OrchestratorTestSuite) TestCancellation() {
	snap := testutils.BasicCatalog(s.T(), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.orc.Optimize(ctx, &loadoutsvc.OptimizeInput{
		Snapshot:    snap,
		Constraints: s.constraints(&constraints.Config{}),
	})
	s.Require().Error(err)
	s.True(errors.IsCanceled(err))
	s.Nil(out)
}
