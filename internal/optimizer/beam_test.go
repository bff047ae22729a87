package optimizer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/optimizer"
	"github.com/KirkDiggler/loadout-api/internal/testutils"
)

type BeamTestSuite struct {
	suite.Suite
	ctx context.Context
}

func TestBeamSuite(t *testing.T) {
	suite.Run(t, new(BeamTestSuite))
}

func (s *BeamTestSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *BeamTestSuite) TestFindsDominantBuild() {
	snap := testutils.BasicCatalog(s.T(), 6)
	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)
	s.Require().False(report.Empty())

	// Item 6 strictly dominates in every category, so the best build wears it
	// everywhere, rings included.
	top := report.Candidates[0]
	s.InDelta(54.0, top.Score, 1e-9)
	for _, slot := range gear.AllSlots {
		s.Equal(fmt.Sprintf("%s-6", slot.Category()), top.Assignment.Get(slot))
	}

	// Sorted by score descending with unique canonical keys.
	seen := make(map[string]bool)
	for i, c := range report.Candidates {
		if i > 0 {
			s.GreaterOrEqual(report.Candidates[i-1].Score, c.Score)
		}
		s.False(seen[c.Key], "duplicate canonical key %s", c.Key)
		seen[c.Key] = true
	}
}

func (s *BeamTestSuite) TestDeterministicAcrossRuns() {
	run := func() *optimizer.Report {
		snap := testutils.BasicCatalog(s.T(), 5)
		search := newSearch(s.T(), snap, &constraints.Config{
			Weights: map[string]float64{"mr": 1, "hp": 0.25},
		})
		report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
		s.Require().NoError(err)
		return report
	}

	first := run()
	second := run()

	s.Require().Equal(len(first.Candidates), len(second.Candidates))
	for i := range first.Candidates {
		s.Equal(first.Candidates[i].Key, second.Candidates[i].Key)
		s.Equal(first.Candidates[i].Score, second.Candidates[i].Score)
	}
	s.Equal(first.ProcessedStates, second.ProcessedStates)
}

func (s *BeamTestSuite) TestRespectsBeamWidthAndBudget() {
	snap := testutils.BasicCatalog(s.T(), 6)
	search := newSearch(s.T(), snap, &constraints.Config{
		Budgets: constraints.Budgets{MaxStates: 30},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)

	s.LessOrEqual(report.ProcessedStates, 30)
	s.True(report.Empty())
	s.Equal(optimizer.ReasonSearchPruned, report.Reason)
	s.Contains(report.Detail, "budget exhausted")
}

func (s *BeamTestSuite) TestThresholdMinimumHolds() {
	min30 := 30.0
	snap := testutils.BasicCatalog(s.T(), 4)
	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"hp": 1},
		Targets: constraints.Targets{
			Thresholds: []constraints.Threshold{{Key: "mr", Min: &min30}},
		},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)
	s.Require().False(report.Empty())

	for _, c := range report.Candidates {
		s.GreaterOrEqual(c.Summary.Total("mr"), 30.0)
	}
}

func (s *BeamTestSuite) TestThresholdMaximumHolds() {
	max12 := 12.0
	snap := testutils.BasicCatalog(s.T(), 4)
	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Targets: constraints.Targets{
			Thresholds: []constraints.Threshold{{Key: "mr", Max: &max12}},
		},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)
	s.Require().False(report.Empty())

	// The objective pushes mr up; the hard maximum must still win.
	for _, c := range report.Candidates {
		s.LessOrEqual(c.Summary.Total("mr"), 12.0)
	}
}

func (s *BeamTestSuite) TestHardLaneProtectsThresholdBuilds() {
	// Six distractors per category dominate the objective; the lone def
	// carrier per category scores poorly but is the only way to reach the
	// minimum. On a narrow beam the primary ordering alone would discard
	// every def-carrying node long before the eager bounds start biting, so
	// survival here depends on the hard lane.
	b := testutils.NewCatalog()
	for _, cat := range []gear.Category{
		gear.CategoryHelmet, gear.CategoryChestplate, gear.CategoryLeggings,
		gear.CategoryBoots, gear.CategoryRing, gear.CategoryBracelet,
		gear.CategoryNecklace, gear.CategoryWeapon,
	} {
		b.Add(testutils.NewItem(string(cat)+"-def", cat).Ident("def", 5).Ident("mr", 1).Build())
		for k := 1; k <= 6; k++ {
			b.Add(testutils.NewItem(fmt.Sprintf("%s-mr-%d", cat, k), cat).
				Ident("mr", float64(10+k)).Build())
		}
	}
	snap := b.Build(s.T())

	min30 := 30.0
	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Targets: constraints.Targets{
			Thresholds: []constraints.Threshold{{Key: "def", Min: &min30}},
		},
		// helmet-def alone contributes 5, nowhere near the minimum.
		Filters: constraints.Filters{MustIncludeIDs: []string{"helmet-def"}},
		Budgets: constraints.Budgets{BeamWidth: 16},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)
	s.Require().False(report.Empty())

	for _, c := range report.Candidates {
		s.True(c.Assignment.Contains("helmet-def"), "candidate %s misses the must-include item", c.Key)
		s.GreaterOrEqual(c.Summary.Total("def"), 30.0)
	}
}

func (s *BeamTestSuite) TestAttackTargetSteersWeaponChoice() {
	b := sevenPieces(testutils.NewCatalog(), 1)
	b.Add(testutils.NewItem("ring-base", gear.CategoryRing).Ident("mr", 1).Build())
	// The normal-speed weapon scores far better, but only the fast weapon can
	// satisfy the target.
	b.Add(testutils.NewItem("w-norm", gear.CategoryWeapon).Ident("mr", 10).Build())
	b.Add(testutils.NewItem("w-fast", gear.CategoryWeapon).Speed(gear.SpeedFast).Ident("mr", 1).Build())
	snap := b.Build(s.T())

	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Targets: constraints.Targets{
			Attack: &constraints.AttackTarget{
				AllowedSpeeds: []gear.AttackSpeed{gear.SpeedFast},
			},
		},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)
	s.Require().False(report.Empty())

	for _, c := range report.Candidates {
		s.Equal("w-fast", c.Assignment.Get(gear.SlotWeapon))
		s.Equal(gear.SpeedFast, c.Summary.FinalAttackSpeed)
	}
}

func (s *BeamTestSuite) TestIllegalSetCountsRejected() {
	b := sevenPieces(testutils.NewCatalog(), 1)
	b.Add(testutils.NewItem("w-base", gear.CategoryWeapon).Ident("mr", 1).Build())
	b.Add(testutils.NewItem("ring-plain", gear.CategoryRing).Ident("mr", 1).Build())
	b.Add(testutils.NewItem("ring-s1", gear.CategoryRing).Set("twin").Ident("mr", 100).Build())
	b.Add(testutils.NewItem("ring-s2", gear.CategoryRing).Set("twin").Ident("mr", 100).Build())
	b.AddSet(gear.SetInfo{ID: "twin", IllegalCounts: []int{1}})
	snap := b.Build(s.T())

	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)
	s.Require().False(report.Empty())

	for _, c := range report.Candidates {
		pieces := 0
		for _, id := range []string{c.Assignment.Get(gear.SlotRing1), c.Assignment.Get(gear.SlotRing2)} {
			if it, ok := snap.Item(id); ok && it.SetID == "twin" {
				pieces++
			}
		}
		s.NotEqual(1, pieces, "single set piece is illegal: %s", c.Key)
	}

	// The paired set rings dominate the objective.
	s.InDelta(207.0, report.Candidates[0].Score, 1e-9)
}

func (s *BeamTestSuite) TestLockedSlotIsPreserved() {
	snap := testutils.BasicCatalog(s.T(), 3)

	base := gear.SlotAssignment{}
	base[gear.SlotHelmet] = "helmet-2"
	var locked [gear.NumSlots]bool
	locked[gear.SlotHelmet] = true

	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Locks:   constraints.Locks{Base: base, Locked: locked},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)
	s.Require().False(report.Empty())

	for _, c := range report.Candidates {
		s.Equal("helmet-2", c.Assignment.Get(gear.SlotHelmet))
	}
	// Locked helmet-2 plus the dominant item everywhere else.
	s.InDelta(26.0, report.Candidates[0].Score, 1e-9)
}

func (s *BeamTestSuite) TestLockedItemFailingPowderFilterRejected() {
	// Locked items bypass the pool filters, so the finalizer must re-check
	// them; the bare helmet fails the powder minimum here.
	b := testutils.NewCatalog()
	b.Add(testutils.NewItem("helmet-bare", gear.CategoryHelmet).Ident("mr", 1).Build())
	b.Add(testutils.NewItem("helmet-pow", gear.CategoryHelmet).PowderSlots(2).Ident("mr", 1).Build())
	for _, cat := range []gear.Category{
		gear.CategoryChestplate, gear.CategoryLeggings, gear.CategoryBoots, gear.CategoryWeapon,
	} {
		b.Add(testutils.NewItem(string(cat)+"-base", cat).PowderSlots(2).Ident("mr", 1).Build())
	}
	for _, cat := range []gear.Category{
		gear.CategoryRing, gear.CategoryBracelet, gear.CategoryNecklace,
	} {
		b.Add(testutils.NewItem(string(cat)+"-base", cat).Ident("mr", 1).Build())
	}
	snap := b.Build(s.T())

	base := gear.SlotAssignment{}
	base[gear.SlotHelmet] = "helmet-bare"
	var locked [gear.NumSlots]bool
	locked[gear.SlotHelmet] = true

	search := newSearch(s.T(), snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Filters: constraints.Filters{MinPowderSlots: 1},
		Locks:   constraints.Locks{Base: base, Locked: locked},
	})

	report, err := search.RunBeam(s.ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().NoError(err)

	s.True(report.Empty())
	s.Equal(optimizer.ReasonSearchPruned, report.Reason)
	s.NotZero(report.Rejections.OtherItem)
}

func (s *BeamTestSuite) TestCancellation() {
	snap := testutils.BasicCatalog(s.T(), 6)
	search := newSearch(s.T(), snap, &constraints.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := search.RunBeam(ctx, search.BuildPlan(optimizer.Overrides{}))
	s.Require().Error(err)
	s.Nil(report)
}
