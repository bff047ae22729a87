package optimizer

import (
	"math"
	"sort"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/constraints"
	"github.com/KirkDiggler/loadout-api/internal/engine"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/errors"
	"github.com/KirkDiggler/loadout-api/internal/pkg/clock"
)

// Config holds the dependencies for a Search.
type Config struct {
	Snapshot    *catalog.Snapshot
	Constraints *constraints.Constraints
	Evaluator   engine.Evaluator
	Scorer      engine.Scorer
	Clock       clock.Clock
	Progress    ProgressFunc // optional
	RunID       string       // optional, carried on progress events
}

// Validate ensures all required dependencies are provided.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	if cfg.Snapshot == nil {
		vb.RequiredField("Snapshot")
	}
	if cfg.Constraints == nil {
		vb.RequiredField("Constraints")
	}
	if cfg.Evaluator == nil {
		vb.RequiredField("Evaluator")
	}
	if cfg.Scorer == nil {
		vb.RequiredField("Scorer")
	}
	if cfg.Clock == nil {
		vb.RequiredField("Clock")
	}
	return vb.Build()
}

// Search runs beam, exact, and fallback attempts over one catalog snapshot
// and one constraints object. It is single-threaded and keeps a monotonic
// processed-state counter across attempts.
type Search struct {
	snap      *catalog.Snapshot
	cons      *constraints.Constraints
	eval      engine.Evaluator
	scorer    engine.Scorer
	clk       clock.Clock
	progress  ProgressFunc
	runID     string
	processed int
}

// New creates a Search.
func New(cfg *Config) (*Search, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Search{
		snap:     cfg.Snapshot,
		cons:     cfg.Constraints,
		eval:     cfg.Evaluator,
		scorer:   cfg.Scorer,
		clk:      cfg.Clock,
		progress: cfg.Progress,
		runID:    cfg.RunID,
	}, nil
}

func (s *Search) emit(ev ProgressEvent) {
	if s.progress == nil {
		return
	}
	ev.RunID = s.runID
	ev.ProcessedStates = s.processed
	s.progress(ev)
}

// Overrides adjusts budgets and weights for one attempt. Zero values fall
// back to the constraints' budgets; a nil Weights map falls back to the
// configured objective weights. Pinned, when non-nil, restricts pools to the
// listed item ids (must-include items are always admitted).
type Overrides struct {
	Weights          map[string]float64
	BeamWidth        int
	TopKPerSlot      int
	MaxStates        int
	PrimaryLaneShare float64
	Pinned           map[string]bool
}

// thresholdBound is the merged numeric bound for one threshold key.
type thresholdBound struct {
	key string
	min float64 // -Inf when absent
	max float64 // +Inf when absent
}

// Plan is everything one attempt precomputes before its search loop runs:
// candidate pools, the slot visitation order, the bound tables, and the
// attack-speed reachability context. Plans are cheap relative to the search
// and are rebuilt per attempt because pools depend on attempt weights.
type Plan struct {
	weights   map[string]float64
	wkeys     []string // sorted, so float accumulation order is reproducible
	width     int
	topK      int
	maxStates int
	share     float64 // primary-lane share of the beam width

	order     []gear.Slot
	pools     [gear.NumSlots][]string
	emptySlot gear.Slot
	hasEmpty  bool

	thr    []thresholdBound
	bounds *boundTables
	atk    *attackContext
	root   *node
}

// BuildPlan precomputes pools, visitation order, bound tables, and the
// attack context for one attempt.
func (s *Search) BuildPlan(o Overrides) *Plan {
	p := &Plan{
		weights:   s.cons.Weights,
		width:     s.cons.Budgets.BeamWidth,
		topK:      s.cons.Budgets.TopKPerSlot,
		maxStates: s.cons.Budgets.MaxStates,
		share:     s.cons.Budgets.PrimaryLaneShare,
	}
	if o.Weights != nil {
		p.weights = o.Weights
	}
	if o.BeamWidth > 0 {
		p.width = o.BeamWidth
	}
	if o.TopKPerSlot > 0 {
		p.topK = o.TopKPerSlot
	}
	if o.MaxStates > 0 {
		p.maxStates = o.MaxStates
	}
	if o.PrimaryLaneShare > 0 {
		p.share = o.PrimaryLaneShare
	}
	p.wkeys = make([]string, 0, len(p.weights))
	for k := range p.weights {
		p.wkeys = append(p.wkeys, k)
	}
	sort.Strings(p.wkeys)

	p.thr = mergeThresholds(s.cons)
	p.atk = buildAttackContext(s.cons, s.snap)

	for _, slot := range s.cons.FreeSlots() {
		pool := s.buildPool(slot, p, o.Pinned)
		p.pools[slot] = pool
		if len(pool) == 0 && !p.hasEmpty {
			p.hasEmpty = true
			p.emptySlot = slot
		}
	}

	p.atk.finishWeaponRange(s.snap, p.pools[gear.SlotWeapon])
	p.order = s.orderSlots(p)
	p.bounds = buildBounds(s.snap, p)
	p.root = s.rootNode(p)
	return p
}

// mergeThresholds collapses duplicate threshold keys: the effective minimum
// is the largest configured minimum, the effective maximum the smallest.
func mergeThresholds(cons *constraints.Constraints) []thresholdBound {
	byKey := make(map[string]*thresholdBound)
	for _, t := range cons.Targets.Thresholds {
		b, ok := byKey[t.Key]
		if !ok {
			b = &thresholdBound{key: t.Key, min: math.Inf(-1), max: math.Inf(1)}
			byKey[t.Key] = b
		}
		if t.Min != nil && *t.Min > b.min {
			b.min = *t.Min
		}
		if t.Max != nil && *t.Max < b.max {
			b.max = *t.Max
		}
	}

	out := make([]thresholdBound, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// orderSlots picks the visitation order: slots with smaller pools or more
// potential to move a hard constraint are filled earlier. The weapon goes
// first whenever an attack target is active and the weapon is free, because
// every later reachability check needs the base speed pinned down.
func (s *Search) orderSlots(p *Plan) []gear.Slot {
	free := s.cons.FreeSlots()

	pri := make(map[gear.Slot]int, len(free))
	for _, slot := range free {
		pool := p.pools[slot]
		v := len(pool)
		if p.atk.active {
			if slot == gear.SlotWeapon {
				v = math.MinInt32
			} else {
				v -= 8 * s.poolMaxAbsAtk(pool)
			}
		}
		for i := range p.thr {
			if !math.IsInf(p.thr[i].min, -1) && s.poolMaxIdent(pool, p.thr[i].key) > 0 {
				v -= 4
			}
		}
		pri[slot] = v
	}

	sort.SliceStable(free, func(i, j int) bool {
		if pri[free[i]] != pri[free[j]] {
			return pri[free[i]] < pri[free[j]]
		}
		return free[i] < free[j]
	})
	return free
}

func (s *Search) poolMaxAbsAtk(pool []string) int {
	best := 0
	for _, id := range pool {
		if it, ok := s.snap.Item(id); ok {
			t := it.AttackTier()
			if t < 0 {
				t = -t
			}
			if t > best {
				best = t
			}
		}
	}
	return best
}

func (s *Search) poolMaxIdent(pool []string, key string) float64 {
	best := math.Inf(-1)
	for _, id := range pool {
		if it, ok := s.snap.Item(id); ok {
			if v := it.Ident(key); v > best {
				best = v
			}
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

// PoolProduct returns the product of per-slot pool sizes, saturating at
// MaxInt to keep the exact-enumeration comparison safe.
func (p *Plan) PoolProduct() int {
	product := 1
	for _, slot := range p.order {
		n := len(p.pools[slot])
		if n == 0 {
			return 0
		}
		if product > math.MaxInt/n {
			return math.MaxInt
		}
		product *= n
	}
	return product
}

// StaticCheck runs the pre-search bound checks. A failed check is a normal
// zero-result outcome with a reason code, never an error.
func (s *Search) StaticCheck(p *Plan) (ReasonCode, string, bool) {
	if p.hasEmpty {
		return ReasonEmptyPool, "no legal items for slot " + p.emptySlot.String(), false
	}

	if code, detail, ok := s.checkLocks(); !ok {
		return code, detail, false
	}
	if code, detail, ok := s.checkMustInclude(p); !ok {
		return code, detail, false
	}

	if p.atk.active {
		if !p.atk.anyAcceptable() {
			return ReasonUnsatAttackTarget, "attack target admits no final speed tier", false
		}
		if !p.atk.reachable(p.root.weaponBase, p.root.atkTier, p.bounds.atkMin[0], p.bounds.atkMax[0]) {
			return ReasonUnsatAttackTarget, "attack target unreachable from candidate pools", false
		}
	}

	for i := range p.thr {
		b := &p.thr[i]
		have := p.root.thr[i]
		if have+p.bounds.thrMax[i][0] < b.min {
			return ReasonUnsatThreshold, "threshold " + b.key + " minimum exceeds maximum reachable total", false
		}
		if have+p.bounds.thrMin[i][0] > b.max {
			return ReasonUnsatThreshold, "threshold " + b.key + " maximum below minimum reachable total", false
		}
	}

	return "", "", true
}

// checkLocks verifies every locked slot resolves to a catalog item, so a
// stale lock is diagnosed up front instead of surfacing as a generic
// finalizer rejection.
func (s *Search) checkLocks() (ReasonCode, string, bool) {
	for _, slot := range gear.AllSlots {
		if !s.cons.IsLocked(slot) {
			continue
		}
		id := s.cons.Locks.Base[slot]
		if _, ok := s.snap.Item(id); !ok {
			return ReasonMustIncludeConflict, "locked item " + id + " for slot " + slot.String() + " not in catalog", false
		}
	}
	return "", "", true
}

// checkMustInclude verifies every must-include item can actually be placed:
// it must survive the pool filters for some free slot of its category, or
// already sit in a locked slot, and the category must have enough positions
// for all of them.
func (s *Search) checkMustInclude(p *Plan) (ReasonCode, string, bool) {
	need := make(map[gear.Category][]string)
	for _, id := range s.cons.Filters.MustIncludeIDs {
		it, ok := s.snap.Item(id)
		if !ok {
			return ReasonMustIncludeConflict, "must-include item " + id + " not in catalog", false
		}
		locked := false
		for _, slot := range gear.AllSlots {
			if s.cons.IsLocked(slot) && s.cons.Locks.Base[slot] == id {
				locked = true
				break
			}
		}
		if locked {
			continue
		}
		need[it.Category] = append(need[it.Category], id)
	}

	for cat, ids := range need {
		capacity := 0
		for _, slot := range p.order {
			if slot.Category() != cat {
				continue
			}
			capacity++
			for _, id := range ids {
				if !poolContains(p.pools[slot], id) {
					return ReasonMustIncludeConflict, "must-include item " + id + " fails the configured filters", false
				}
			}
		}
		if len(ids) > capacity {
			return ReasonMustIncludeConflict, "more must-include " + string(cat) + " items than open slots", false
		}
	}

	return "", "", true
}

func poolContains(pool []string, id string) bool {
	for _, v := range pool {
		if v == id {
			return true
		}
	}
	return false
}

// rootNode builds the search root from the locked slots.
func (s *Search) rootNode(p *Plan) *node {
	n := &node{
		weaponBase: -1,
		thr:        make([]float64, len(p.thr)),
	}
	for _, slot := range gear.AllSlots {
		if !s.cons.IsLocked(slot) {
			continue
		}
		id := s.cons.Locks.Base[slot]
		it, ok := s.snap.Item(id)
		if !ok {
			continue
		}
		n.assign[slot] = id
		n.score += p.rough(&it)
		n.atkTier += it.AttackTier()
		if slot == gear.SlotWeapon {
			n.weaponBase = int(it.AttackSpeed)
		}
		for sk := 0; sk < gear.NumSkills; sk++ {
			n.spBonus[sk] += it.SkillBonus[sk]
			if it.SkillReqs[sk] > n.spMaxReq[sk] {
				n.spMaxReq[sk] = it.SkillReqs[sk]
			}
		}
		for i := range p.thr {
			n.thr[i] += it.Ident(p.thr[i].key)
		}
		if it.SetID != "" {
			n.sets = n.sets.inc(it.SetID)
		}
	}
	n.bound = n.score + p.bounds.scoreMax[0]
	n.est = s.eval.EvaluatePartial(s.snap, n.assign, s.cons.Filters.SkillPointBudget)
	n.key = CanonicalKey(n.assign)
	return n
}

// rough is the additive per-item heuristic the beam steers by. Keys are
// accumulated in sorted order so the float sum is reproducible.
func (p *Plan) rough(it *gear.Item) float64 {
	score := 0.0
	for _, k := range p.wkeys {
		if v := it.Ident(k); v != 0 {
			score += p.weights[k] * v
		}
	}
	return score
}
