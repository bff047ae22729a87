// Package constraints defines the immutable search configuration: objective
// weights, targets, hard filters, locked slots, and search budgets. A
// Constraints value is built once via New and never mutated afterwards.
package constraints

import (
	"sort"
	"time"

	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/errors"
)

// Threshold is one arbitrary numeric target row: the summed identification
// value for Key over all nine slots must fall inside [Min, Max]. Either
// bound may be nil.
type Threshold struct {
	Key string   `yaml:"key"`
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

// Combinator joins the two attack sub-constraints.
type Combinator string

// Attack constraint combinators.
const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// AttackTarget constrains the final attack speed tier. AllowedSpeeds names
// acceptable final tiers; TierMin/TierMax bound the final tier index. When
// both sub-constraints are present Combinator decides whether a build must
// satisfy both or either.
type AttackTarget struct {
	AllowedSpeeds []gear.AttackSpeed `yaml:"allowed_speeds,omitempty"`
	TierMin       *int               `yaml:"tier_min,omitempty"`
	TierMax       *int               `yaml:"tier_max,omitempty"`
	Combinator    Combinator         `yaml:"combinator,omitempty"`
}

// Active reports whether any attack sub-constraint is configured.
func (t *AttackTarget) Active() bool {
	if t == nil {
		return false
	}
	return len(t.AllowedSpeeds) > 0 || t.TierMin != nil || t.TierMax != nil
}

// Targets collects every hard numeric target.
type Targets struct {
	Thresholds []Threshold   `yaml:"thresholds,omitempty"`
	Attack     *AttackTarget `yaml:"attack,omitempty"`
}

// Filters are the hard per-item legality rules.
type Filters struct {
	AllowedTiers     []gear.Tier `yaml:"allowed_tiers,omitempty"`
	ExcludedIDs      []string    `yaml:"excluded_ids,omitempty"`
	MustIncludeIDs   []string    `yaml:"must_include_ids,omitempty"`
	RequiredMajorIDs []string    `yaml:"required_major_ids,omitempty"`
	ExcludedMajorIDs []string    `yaml:"excluded_major_ids,omitempty"`
	MinPowderSlots   int         `yaml:"min_powder_slots,omitempty"`
	Class            string      `yaml:"class,omitempty"`
	Level            int         `yaml:"level,omitempty"`
	SkillPointBudget int         `yaml:"skill_point_budget,omitempty"`
}

// Locks pre-fixes slots that the search must not touch.
type Locks struct {
	Base   gear.SlotAssignment `yaml:"base,omitempty"`
	Locked [gear.NumSlots]bool `yaml:"locked,omitempty"`
}

// Budgets bound the search. The lane share and branch-cap bounds are
// empirically chosen defaults kept configurable on purpose.
type Budgets struct {
	BeamWidth          int           `yaml:"beam_width,omitempty"`
	TopKPerSlot        int           `yaml:"top_k_per_slot,omitempty"`
	MaxStates          int           `yaml:"max_states,omitempty"`
	ExactEnumThreshold int           `yaml:"exact_enum_threshold,omitempty"`
	TopN               int           `yaml:"top_n,omitempty"`
	BranchCapMin       int           `yaml:"branch_cap_min,omitempty"`
	BranchCapMax       int           `yaml:"branch_cap_max,omitempty"`
	PrimaryLaneShare   float64       `yaml:"primary_lane_share,omitempty"`
	FallbackTimeout    time.Duration `yaml:"fallback_timeout,omitempty"`
	RescueDisabled     bool          `yaml:"rescue_disabled,omitempty"`
}

// Default budgets.
const (
	DefaultBeamWidth          = 48
	DefaultTopKPerSlot        = 40
	DefaultMaxStates          = 25000
	DefaultExactEnumThreshold = 4096
	DefaultTopN               = 10
	DefaultBranchCapMin       = 8
	DefaultBranchCapMax       = 96
	DefaultPrimaryLaneShare   = 0.60
	DefaultSkillPointBudget   = 200
	DefaultFallbackTimeout    = 3 * time.Second
)

// Strategy selects the rescue ladder shape.
type Strategy string

// Solver strategies.
const (
	// StrategyDefault escalates objective-first: deep, then bruteforce-ish,
	// then feasibility-biased.
	StrategyDefault Strategy = "default"
	// StrategyConstraintFirst runs the feasibility-biased attempt before the
	// exhaustive-ish ones, for configurations dominated by hard targets.
	StrategyConstraintFirst Strategy = "constraint-first"
)

// Config holds the raw inputs for building a Constraints value.
type Config struct {
	Weights  map[string]float64 `yaml:"weights,omitempty"`
	Targets  Targets            `yaml:"targets,omitempty"`
	Filters  Filters            `yaml:"filters,omitempty"`
	Locks    Locks              `yaml:"locks,omitempty"`
	Budgets  Budgets            `yaml:"budgets,omitempty"`
	Strategy Strategy           `yaml:"strategy,omitempty"`
}

// Validate checks structural validity. Unsatisfiable bounds (inverted tier
// ranges, unreachable thresholds) are deliberately not rejected here: those
// are diagnosed as zero-result outcomes by the static bound checks, never as
// construction errors.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()

	b := cfg.Budgets
	if b.BeamWidth < 0 {
		vb.Field("Budgets.BeamWidth", "must not be negative")
	}
	if b.TopKPerSlot < 0 {
		vb.Field("Budgets.TopKPerSlot", "must not be negative")
	}
	if b.MaxStates < 0 {
		vb.Field("Budgets.MaxStates", "must not be negative")
	}
	if b.TopN < 0 {
		vb.Field("Budgets.TopN", "must not be negative")
	}
	if b.PrimaryLaneShare < 0 || b.PrimaryLaneShare > 1 {
		vb.Field("Budgets.PrimaryLaneShare", "must be in [0, 1]")
	}
	if b.BranchCapMin < 0 || b.BranchCapMax < 0 {
		vb.Field("Budgets.BranchCap", "bounds must not be negative")
	}
	if b.BranchCapMin > 0 && b.BranchCapMax > 0 && b.BranchCapMin > b.BranchCapMax {
		vb.Field("Budgets.BranchCap", "min exceeds max")
	}

	if t := cfg.Targets.Attack; t != nil {
		switch t.Combinator {
		case "", CombinatorAnd, CombinatorOr:
		default:
			vb.Fieldf("Targets.Attack.Combinator", "unknown combinator %q", t.Combinator)
		}
		for _, s := range t.AllowedSpeeds {
			if s < 0 || int(s) >= gear.NumAttackSpeeds {
				vb.Fieldf("Targets.Attack.AllowedSpeeds", "invalid attack speed %d", s)
			}
		}
	}

	for i, th := range cfg.Targets.Thresholds {
		if th.Key == "" {
			vb.Fieldf("Targets.Thresholds", "row %d has empty key", i)
		}
		if th.Min == nil && th.Max == nil {
			vb.Fieldf("Targets.Thresholds", "row %d (%s) has neither min nor max", i, th.Key)
		}
	}

	for s := range cfg.Locks.Locked {
		if cfg.Locks.Locked[s] && cfg.Locks.Base[s] == "" {
			vb.Fieldf("Locks", "slot %s locked without an item", gear.Slot(s))
		}
	}

	switch cfg.Strategy {
	case "", StrategyDefault, StrategyConstraintFirst:
	default:
		vb.Fieldf("Strategy", "unknown strategy %q", cfg.Strategy)
	}

	return vb.Build()
}

// Constraints is the immutable, defaulted search configuration.
type Constraints struct {
	Weights  map[string]float64
	Targets  Targets
	Filters  Filters
	Locks    Locks
	Budgets  Budgets
	Strategy Strategy
}

// New builds a Constraints value from a config, applying defaults.
func New(cfg *Config) (*Constraints, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Constraints{
		Weights:  make(map[string]float64, len(cfg.Weights)),
		Targets:  cfg.Targets,
		Filters:  cfg.Filters,
		Locks:    cfg.Locks,
		Budgets:  cfg.Budgets,
		Strategy: cfg.Strategy,
	}
	if c.Strategy == "" {
		c.Strategy = StrategyDefault
	}
	for k, v := range cfg.Weights {
		c.Weights[k] = v
	}

	b := &c.Budgets
	if b.BeamWidth == 0 {
		b.BeamWidth = DefaultBeamWidth
	}
	if b.TopKPerSlot == 0 {
		b.TopKPerSlot = DefaultTopKPerSlot
	}
	if b.MaxStates == 0 {
		b.MaxStates = DefaultMaxStates
	}
	if b.ExactEnumThreshold == 0 {
		b.ExactEnumThreshold = DefaultExactEnumThreshold
	}
	if b.TopN == 0 {
		b.TopN = DefaultTopN
	}
	if b.BranchCapMin == 0 {
		b.BranchCapMin = DefaultBranchCapMin
	}
	if b.BranchCapMax == 0 {
		b.BranchCapMax = DefaultBranchCapMax
	}
	if b.PrimaryLaneShare == 0 {
		b.PrimaryLaneShare = DefaultPrimaryLaneShare
	}
	if b.FallbackTimeout == 0 {
		b.FallbackTimeout = DefaultFallbackTimeout
	}
	if c.Filters.SkillPointBudget == 0 {
		c.Filters.SkillPointBudget = DefaultSkillPointBudget
	}
	// Copy the attack target before defaulting so the caller's config is
	// never written through the shared pointer.
	if cfg.Targets.Attack != nil {
		atk := *cfg.Targets.Attack
		if atk.Combinator == "" {
			atk.Combinator = CombinatorAnd
		}
		c.Targets.Attack = &atk
	}

	return c, nil
}

// IsLocked reports whether a slot is pre-fixed and excluded from the search.
func (c *Constraints) IsLocked(s gear.Slot) bool {
	return c.Locks.Locked[s]
}

// FreeSlots returns the slots the search must fill, in canonical order.
func (c *Constraints) FreeSlots() []gear.Slot {
	out := make([]gear.Slot, 0, gear.NumSlots)
	for _, s := range gear.AllSlots {
		if !c.IsLocked(s) {
			out = append(out, s)
		}
	}
	return out
}

// HasThresholds reports whether any arbitrary numeric threshold is configured.
func (c *Constraints) HasThresholds() bool {
	return len(c.Targets.Thresholds) > 0
}

// ThresholdKeys returns the distinct threshold keys in sorted order.
func (c *Constraints) ThresholdKeys() []string {
	seen := make(map[string]bool, len(c.Targets.Thresholds))
	keys := make([]string, 0, len(c.Targets.Thresholds))
	for _, t := range c.Targets.Thresholds {
		if !seen[t.Key] {
			seen[t.Key] = true
			keys = append(keys, t.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// WeightKeys returns the objective weight keys in sorted order.
func (c *Constraints) WeightKeys() []string {
	keys := make([]string, 0, len(c.Weights))
	for k := range c.Weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TierAllowed reports whether an item tier passes the tier filter.
func (c *Constraints) TierAllowed(t gear.Tier) bool {
	if len(c.Filters.AllowedTiers) == 0 {
		return true
	}
	for _, allowed := range c.Filters.AllowedTiers {
		if allowed == t {
			return true
		}
	}
	return false
}
