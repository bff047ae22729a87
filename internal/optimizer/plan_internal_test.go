package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/engine/basic"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/pkg/clock"
	"github.com/KirkDiggler/loadout-api/internal/testutils"
)

func planSearch(t *testing.T, snap *catalog.Snapshot, cfg *constraints.Config) *Search {
	t.Helper()
	cons, err := constraints.New(cfg)
	require.NoError(t, err)
	s, err := New(&Config{
		Snapshot:    snap,
		Constraints: cons,
		Evaluator:   basic.NewEvaluator(),
		Scorer:      basic.NewScorer(),
		Clock:       clock.New(),
	})
	require.NoError(t, err)
	return s
}

func TestOrderSlotsWeaponFirstWhenAttackActive(t *testing.T) {
	snap := testutils.BasicCatalog(t, 4)
	tierMin := 4
	s := planSearch(t, snap, &constraints.Config{
		Targets: constraints.Targets{
			Attack: &constraints.AttackTarget{TierMin: &tierMin},
		},
	})

	plan := s.BuildPlan(Overrides{})
	require.Equal(t, gear.SlotWeapon, plan.order[0])

	// Without an attack target the weapon keeps its pool-size-based position.
	s2 := planSearch(t, snap, &constraints.Config{})
	plan2 := s2.BuildPlan(Overrides{})
	require.NotEqual(t, gear.SlotWeapon, plan2.order[0])
}

func TestPoolPinsMustIncludeFirst(t *testing.T) {
	snap := testutils.BasicCatalog(t, 5)
	s := planSearch(t, snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Filters: constraints.Filters{MustIncludeIDs: []string{"ring-1"}},
	})

	plan := s.BuildPlan(Overrides{})
	require.NotEmpty(t, plan.pools[gear.SlotRing1])
	require.Equal(t, "ring-1", plan.pools[gear.SlotRing1][0])
	require.Equal(t, "ring-1", plan.pools[gear.SlotRing2][0])
}

func TestPoolRespectsTopK(t *testing.T) {
	snap := testutils.BasicCatalog(t, 30)
	s := planSearch(t, snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Budgets: constraints.Budgets{TopKPerSlot: 6},
	})

	plan := s.BuildPlan(Overrides{})
	for _, slot := range plan.order {
		// Each extra ranking view may add a few entries past top-K, but the
		// pool stays well under the full category size.
		require.LessOrEqual(t, len(plan.pools[slot]), 6+poolViewBonus*8)
		require.Less(t, len(plan.pools[slot]), 30)
	}
}

func TestPoolAppliesItemFilters(t *testing.T) {
	b := testutils.NewCatalog()
	b.Add(testutils.NewItem("h-ok", gear.CategoryHelmet).Build())
	b.Add(testutils.NewItem("h-mythic", gear.CategoryHelmet).Tier(gear.TierMythic).Build())
	b.Add(testutils.NewItem("h-highlvl", gear.CategoryHelmet).Level(90).Build())
	b.Add(testutils.NewItem("h-mage", gear.CategoryHelmet).Class("mage").Build())
	b.Add(testutils.NewItem("h-excluded", gear.CategoryHelmet).Build())
	b.Add(testutils.NewItem("h-cursed", gear.CategoryHelmet).MajorID("curse").Build())
	b.Add(testutils.NewItem("h-nopowder", gear.CategoryHelmet).Build())
	b.Add(testutils.NewItem("h-powder", gear.CategoryHelmet).PowderSlots(2).Build())
	snap := b.Build(t)

	s := planSearch(t, snap, &constraints.Config{
		Filters: constraints.Filters{
			AllowedTiers:     []gear.Tier{gear.TierCommon},
			ExcludedIDs:      []string{"h-excluded"},
			ExcludedMajorIDs: []string{"curse"},
			Class:            "warrior",
			Level:            50,
			MinPowderSlots:   2,
		},
	})

	plan := s.BuildPlan(Overrides{})
	require.Equal(t, []string{"h-powder"}, plan.pools[gear.SlotHelmet])
}

func TestBoundTablesSuffixSums(t *testing.T) {
	min1 := 1.0
	snap := testutils.BasicCatalog(t, 3)
	s := planSearch(t, snap, &constraints.Config{
		Weights: map[string]float64{"mr": 1},
		Targets: constraints.Targets{
			Thresholds: []constraints.Threshold{{Key: "mr", Min: &min1}},
		},
	})

	plan := s.BuildPlan(Overrides{})
	b := plan.bounds
	n := len(plan.order)

	// The empty suffix contributes nothing.
	require.Zero(t, b.scoreMax[n])
	require.Zero(t, b.atkMin[n])
	require.Zero(t, b.atkMax[n])
	require.Zero(t, b.thrMax[0][n])

	// Best rough score per slot is item 3 (mr 3, weight 1), nine slots deep.
	require.InDelta(t, 27.0, b.scoreMax[0], 1e-9)
	require.InDelta(t, 27.0, b.thrMax[0][0], 1e-9)
	require.InDelta(t, 9.0, b.thrMin[0][0], 1e-9)

	// Suffix tables shrink monotonically toward the empty suffix.
	for pos := 0; pos < n; pos++ {
		require.GreaterOrEqual(t, b.scoreMax[pos], b.scoreMax[pos+1])
		require.GreaterOrEqual(t, b.thrMax[0][pos], b.thrMax[0][pos+1])
	}
}

func TestSetAvailabilitySuffix(t *testing.T) {
	b := testutils.NewCatalog()
	for _, cat := range []gear.Category{
		gear.CategoryHelmet, gear.CategoryChestplate, gear.CategoryLeggings,
		gear.CategoryBoots, gear.CategoryBracelet, gear.CategoryNecklace,
		gear.CategoryWeapon,
	} {
		b.Add(testutils.NewItem(string(cat)+"-base", cat).Build())
	}
	b.Add(testutils.NewItem("ring-s1", gear.CategoryRing).Set("twin").Build())
	b.Add(testutils.NewItem("ring-plain", gear.CategoryRing).Build())
	b.AddSet(gear.SetInfo{ID: "twin", IllegalCounts: []int{1}})
	snap := b.Build(t)

	s := planSearch(t, snap, &constraints.Config{})
	plan := s.BuildPlan(Overrides{})

	avail, ok := plan.bounds.setAvail["twin"]
	require.True(t, ok)
	n := len(plan.order)
	require.Zero(t, avail[n])
	// Both ring slots can contribute a twin piece.
	require.Equal(t, 2, avail[0])
}

func TestAttackContextCombinators(t *testing.T) {
	snap := testutils.BasicCatalog(t, 2)
	tierMin, tierMax := 1, 2

	andCons, err := constraints.New(&constraints.Config{
		Targets: constraints.Targets{
			Attack: &constraints.AttackTarget{
				AllowedSpeeds: []gear.AttackSpeed{gear.SpeedSlow, gear.SpeedFast},
				TierMin:       &tierMin,
				TierMax:       &tierMax,
				Combinator:    constraints.CombinatorAnd,
			},
		},
	})
	require.NoError(t, err)
	andCtx := buildAttackContext(andCons, snap)
	// Intersection: only slow (tier 2) is both allowed and in range.
	require.True(t, andCtx.acceptable[gear.SpeedSlow])
	require.False(t, andCtx.acceptable[gear.SpeedFast])
	require.False(t, andCtx.acceptable[gear.SpeedVerySlow])

	orCons, err := constraints.New(&constraints.Config{
		Targets: constraints.Targets{
			Attack: &constraints.AttackTarget{
				AllowedSpeeds: []gear.AttackSpeed{gear.SpeedFast},
				TierMin:       &tierMin,
				TierMax:       &tierMax,
				Combinator:    constraints.CombinatorOr,
			},
		},
	})
	require.NoError(t, err)
	orCtx := buildAttackContext(orCons, snap)
	// Union: the range plus the explicitly allowed tier.
	require.True(t, orCtx.acceptable[gear.SpeedVerySlow])
	require.True(t, orCtx.acceptable[gear.SpeedSlow])
	require.True(t, orCtx.acceptable[gear.SpeedFast])
	require.False(t, orCtx.acceptable[gear.SpeedNormal])
	require.False(t, orCtx.acceptable[gear.SpeedSuperFast])
}

func TestAttackBias(t *testing.T) {
	snap := testutils.BasicCatalog(t, 2)
	cons, err := constraints.New(&constraints.Config{
		Targets: constraints.Targets{
			Attack: &constraints.AttackTarget{
				AllowedSpeeds: []gear.AttackSpeed{gear.SpeedFast},
			},
		},
	})
	require.NoError(t, err)
	ctx := buildAttackContext(cons, snap)

	// Distance to the nearest acceptable tier, from either side of it.
	require.Zero(t, ctx.bias(int(gear.SpeedFast), 0))
	require.Equal(t, 1, ctx.bias(int(gear.SpeedNormal), 0))
	require.Equal(t, 1, ctx.bias(int(gear.SpeedVeryFast), 0))
	require.Equal(t, 2, ctx.bias(int(gear.SpeedSuperFast), 0))

	require.Equal(t, directionUp, ctx.biasDirection(int(gear.SpeedNormal), 0))
	require.Equal(t, directionDown, ctx.biasDirection(int(gear.SpeedSuperFast), 0))
	require.Equal(t, directionNone, ctx.biasDirection(int(gear.SpeedFast), 0))
}

func TestAttackContextReachable(t *testing.T) {
	snap := testutils.BasicCatalog(t, 2)
	cons, err := constraints.New(&constraints.Config{
		Targets: constraints.Targets{
			Attack: &constraints.AttackTarget{
				AllowedSpeeds: []gear.AttackSpeed{gear.SpeedFast},
			},
		},
	})
	require.NoError(t, err)
	ctx := buildAttackContext(cons, snap)

	// Weapon equipped at normal: fast is reachable only with +1 available.
	require.True(t, ctx.reachable(int(gear.SpeedNormal), 0, 0, 1))
	require.False(t, ctx.reachable(int(gear.SpeedNormal), 0, 0, 0))
	// Already past the target and nothing can bring it back down.
	require.False(t, ctx.reachable(int(gear.SpeedSuperFast), 1, 0, 0))
	// A negative remaining contribution can.
	require.True(t, ctx.reachable(int(gear.SpeedSuperFast), 1, -3, 0))
}
