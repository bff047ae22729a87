package optimizer

import (
	"math"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// boundTables are the suffix min/max tables that make per-node pruning an
// O(1) bound check. Index i covers every position >= i in the visitation
// order; index len(order) is the empty suffix. Each table draws only from
// the corresponding position's candidate pool, which is what makes the
// bounds admissible: a branch is discarded only when no combination of
// remaining pool items can satisfy the requirement.
type boundTables struct {
	scoreMax []float64   // best remaining rough-score contribution
	atkMin   []int       // worst remaining attack-tier contribution
	atkMax   []int       // best remaining attack-tier contribution
	thrMin   [][]float64 // per threshold key: worst remaining total
	thrMax   [][]float64 // per threshold key: best remaining total
	spMax    [][]int     // per skill: best remaining bonus support
	setAvail map[string][]int
}

// buildBounds precomputes every suffix table for a plan. Pure; runs once
// before the search loop.
func buildBounds(snap *catalog.Snapshot, p *Plan) *boundTables {
	n := len(p.order)
	b := &boundTables{
		scoreMax: make([]float64, n+1),
		atkMin:   make([]int, n+1),
		atkMax:   make([]int, n+1),
		thrMin:   make([][]float64, len(p.thr)),
		thrMax:   make([][]float64, len(p.thr)),
		spMax:    make([][]int, gear.NumSkills),
		setAvail: make(map[string][]int),
	}
	for i := range p.thr {
		b.thrMin[i] = make([]float64, n+1)
		b.thrMax[i] = make([]float64, n+1)
	}
	for sk := 0; sk < gear.NumSkills; sk++ {
		b.spMax[sk] = make([]int, n+1)
	}

	// Collect the set ids any pool can contribute, so availability suffixes
	// exist for every set the search might assemble.
	setHere := make([]map[string]bool, n)
	for pos := 0; pos < n; pos++ {
		setHere[pos] = make(map[string]bool)
		for _, id := range p.pools[p.order[pos]] {
			if it, ok := snap.Item(id); ok && it.SetID != "" {
				setHere[pos][it.SetID] = true
				if _, known := b.setAvail[it.SetID]; !known {
					b.setAvail[it.SetID] = make([]int, n+1)
				}
			}
		}
	}

	for pos := n - 1; pos >= 0; pos-- {
		pool := p.pools[p.order[pos]]

		bestScore := math.Inf(-1)
		atkLo, atkHi := math.MaxInt, math.MinInt
		thrLo := make([]float64, len(p.thr))
		thrHi := make([]float64, len(p.thr))
		for i := range p.thr {
			thrLo[i] = math.Inf(1)
			thrHi[i] = math.Inf(-1)
		}
		var spHi [gear.NumSkills]int
		spSeen := false

		for _, id := range pool {
			it, ok := snap.Item(id)
			if !ok {
				continue
			}
			if r := p.rough(&it); r > bestScore {
				bestScore = r
			}
			t := it.AttackTier()
			if t < atkLo {
				atkLo = t
			}
			if t > atkHi {
				atkHi = t
			}
			for i := range p.thr {
				v := it.Ident(p.thr[i].key)
				if v < thrLo[i] {
					thrLo[i] = v
				}
				if v > thrHi[i] {
					thrHi[i] = v
				}
			}
			if !spSeen {
				spHi = it.SkillBonus
				spSeen = true
			} else {
				for sk := 0; sk < gear.NumSkills; sk++ {
					if it.SkillBonus[sk] > spHi[sk] {
						spHi[sk] = it.SkillBonus[sk]
					}
				}
			}
		}
		if len(pool) == 0 {
			// Empty pools are a static-check failure; keep the tables sane.
			bestScore, atkLo, atkHi = 0, 0, 0
			for i := range p.thr {
				thrLo[i], thrHi[i] = 0, 0
			}
		}

		b.scoreMax[pos] = bestScore + b.scoreMax[pos+1]
		b.atkMin[pos] = atkLo + b.atkMin[pos+1]
		b.atkMax[pos] = atkHi + b.atkMax[pos+1]
		for i := range p.thr {
			b.thrMin[i][pos] = thrLo[i] + b.thrMin[i][pos+1]
			b.thrMax[i][pos] = thrHi[i] + b.thrMax[i][pos+1]
		}
		for sk := 0; sk < gear.NumSkills; sk++ {
			b.spMax[sk][pos] = spHi[sk] + b.spMax[sk][pos+1]
		}
		for setID, avail := range b.setAvail {
			avail[pos] = avail[pos+1]
			if setHere[pos][setID] {
				avail[pos]++
			}
		}
	}

	return b
}

// Preferred search directions toward the nearest acceptable speed tier.
const (
	directionDown = -1
	directionNone = 0
	directionUp   = 1
)

// attackContext is the precomputed attack-speed reachability context: the
// equipped weapon's base tier (or the pool's base range when the weapon slot
// is free), the fixed locked contribution, the acceptable final tier set,
// and a preferred direction used to bias pool and node ordering.
type attackContext struct {
	active     bool
	acceptable [gear.NumAttackSpeeds]bool
	direction  int
	lockedBase int // weapon base tier, -1 while the weapon slot is free
	baseMin    int // over the weapon pool when free
	baseMax    int
}

// buildAttackContext derives the acceptable final tier set from the target's
// two sub-constraints and their combinator.
func buildAttackContext(cons *constraints.Constraints, snap *catalog.Snapshot) *attackContext {
	ctx := &attackContext{lockedBase: -1}
	target := cons.Targets.Attack
	if !target.Active() {
		return ctx
	}
	ctx.active = true

	hasAllowed := len(target.AllowedSpeeds) > 0
	hasRange := target.TierMin != nil || target.TierMax != nil
	allowed := [gear.NumAttackSpeeds]bool{}
	for _, sp := range target.AllowedSpeeds {
		allowed[sp] = true
	}
	lo, hi := 0, gear.NumAttackSpeeds-1
	if target.TierMin != nil {
		lo = *target.TierMin
	}
	if target.TierMax != nil {
		hi = *target.TierMax
	}

	for tier := 0; tier < gear.NumAttackSpeeds; tier++ {
		inAllowed := allowed[tier]
		inRange := tier >= lo && tier <= hi
		if target.Combinator == constraints.CombinatorOr {
			ctx.acceptable[tier] = (hasAllowed && inAllowed) || (hasRange && inRange)
		} else {
			ctx.acceptable[tier] = (!hasAllowed || inAllowed) && (!hasRange || inRange)
		}
	}

	lockedAtk := 0
	base := int(gear.SpeedNormal) // provisional while the weapon slot is free
	for _, slot := range gear.AllSlots {
		if !cons.IsLocked(slot) {
			continue
		}
		it, ok := snap.Item(cons.Locks.Base[slot])
		if !ok {
			continue
		}
		lockedAtk += it.AttackTier()
		if slot == gear.SlotWeapon {
			ctx.lockedBase = int(it.AttackSpeed)
			base = ctx.lockedBase
		}
	}
	ctx.baseMin, ctx.baseMax = base, base
	ctx.direction = ctx.biasDirection(base, lockedAtk)
	return ctx
}

// finishWeaponRange records the weapon pool's base-speed range once pools
// exist. Only meaningful while the weapon slot is free.
func (a *attackContext) finishWeaponRange(snap *catalog.Snapshot, weaponPool []string) {
	if !a.active || a.lockedBase >= 0 || len(weaponPool) == 0 {
		return
	}
	lo, hi := math.MaxInt, math.MinInt
	for _, id := range weaponPool {
		if it, ok := snap.Item(id); ok {
			base := int(it.AttackSpeed)
			if base < lo {
				lo = base
			}
			if base > hi {
				hi = base
			}
		}
	}
	a.baseMin, a.baseMax = lo, hi
}

// anyAcceptable reports whether the target admits at least one final tier.
func (a *attackContext) anyAcceptable() bool {
	for _, ok := range a.acceptable {
		if ok {
			return true
		}
	}
	return false
}

// reachable reports whether any acceptable final tier is still achievable
// given the cumulative tier so far and the bound oracle's remaining range.
func (a *attackContext) reachable(weaponBase, cum, minRem, maxRem int) bool {
	if !a.active {
		return true
	}
	baseLo, baseHi := a.baseMin, a.baseMax
	if weaponBase >= 0 {
		baseLo, baseHi = weaponBase, weaponBase
	}
	lo := int(gear.ClampSpeed(baseLo + cum + minRem))
	hi := int(gear.ClampSpeed(baseHi + cum + maxRem))
	for tier := lo; tier <= hi; tier++ {
		if a.acceptable[tier] {
			return true
		}
	}
	return false
}

// bias returns the distance from the current projected final tier to the
// nearest acceptable tier; zero when the target is inactive or satisfied.
func (a *attackContext) bias(weaponBase, cum int) int {
	if !a.active {
		return 0
	}
	base := a.baseMin
	if weaponBase >= 0 {
		base = weaponBase
	}
	cur := int(gear.ClampSpeed(base + cum))
	best := gear.NumAttackSpeeds
	for tier := 0; tier < gear.NumAttackSpeeds; tier++ {
		if !a.acceptable[tier] {
			continue
		}
		if d := absInt(tier - cur); d < best {
			best = d
		}
	}
	return best
}

func (a *attackContext) biasDirection(base, cum int) int {
	cur := int(gear.ClampSpeed(base + cum))
	if a.acceptable[cur] {
		return directionNone
	}
	bestDist, dir := gear.NumAttackSpeeds, directionNone
	for tier := 0; tier < gear.NumAttackSpeeds; tier++ {
		if !a.acceptable[tier] {
			continue
		}
		if d := absInt(tier - cur); d < bestDist {
			bestDist = d
			switch {
			case tier < cur:
				dir = directionDown
			case tier > cur:
				dir = directionUp
			default:
				dir = directionNone
			}
		}
	}
	return dir
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
