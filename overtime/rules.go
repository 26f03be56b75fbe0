package overtime

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/nbot-engine/generic"
)

// =============================================================================
// RULES - Named, overridable constants of the overtime core
// =============================================================================

// Rules holds every threshold the engine depends on. DefaultRules returns the
// business defaults; factory.RulesFactory builds overrides from JSON.
type Rules struct {
	// Allocation thresholds
	WeeklyThreshold     generic.Amount // hours per workweek before weekly OT (40)
	DailyThreshold      generic.Amount // hours per day before daily OT (8)
	DoubleTimeThreshold generic.Amount // hours per day before double time (12)

	// Jurisdiction tiers. DoubleTimeStates must be a subset of DailyOTStates.
	DailyOTStates    map[generic.Jurisdiction]bool
	DoubleTimeStates map[generic.Jurisdiction]bool

	// KnownJurisdictions lists codes that are expected in the data. Anything
	// else is treated as weekly-only and reported as unknown.
	KnownJurisdictions map[generic.Jurisdiction]bool

	// Staffing
	FTEHours        map[generic.Jurisdiction]generic.Amount // hours per FTE by state (CA 32)
	DefaultFTEHours generic.Amount                          // hours per FTE elsewhere (36)

	// Risk thresholds on OT percentage
	RiskMedium decimal.Decimal // 1
	RiskHigh   decimal.Decimal // 3

	// Pareto
	ParetoCutoff       decimal.Decimal // 80
	AutoSelectMaxSites int             // auto-select the Pareto set when it has at most this many sites (10)

	// Utilization bands on average weekly hours
	OptimalMinHours    generic.Amount // 36
	OptimalMaxHours    generic.Amount // 40
	SubOptimalMinHours generic.Amount // 25
	UnderHoursAlert    generic.Amount // 32

	// Tenure bands in days since hire
	TenureCriticalDays int // 90
	TenureHighDays     int // 179
	TenureMediumDays   int // 365
}

var usJurisdictions = []generic.Jurisdiction{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL", "GA", "HI", "ID",
	"IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO",
	"MT", "NE", "NV", "NH", "NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA",
	"PR", "RI", "SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// DefaultRules returns federal weekly OT plus the CA/AK/NV/CO daily-OT tier
// and the CA double-time tier.
func DefaultRules() Rules {
	known := make(map[generic.Jurisdiction]bool, len(usJurisdictions))
	for _, j := range usJurisdictions {
		known[j] = true
	}
	return Rules{
		WeeklyThreshold:     generic.Hours(40),
		DailyThreshold:      generic.Hours(8),
		DoubleTimeThreshold: generic.Hours(12),
		DailyOTStates:       setOf("CA", "AK", "NV", "CO"),
		DoubleTimeStates:    setOf("CA"),
		KnownJurisdictions:  known,
		FTEHours:            map[generic.Jurisdiction]generic.Amount{"CA": generic.Hours(32)},
		DefaultFTEHours:     generic.Hours(36),
		RiskMedium:          decimal.NewFromInt(1),
		RiskHigh:            decimal.NewFromInt(3),
		ParetoCutoff:        decimal.NewFromInt(80),
		AutoSelectMaxSites:  10,
		OptimalMinHours:     generic.Hours(36),
		OptimalMaxHours:     generic.Hours(40),
		SubOptimalMinHours:  generic.Hours(25),
		UnderHoursAlert:     generic.Hours(32),
		TenureCriticalDays:  90,
		TenureHighDays:      179,
		TenureMediumDays:    365,
	}
}

func setOf(codes ...generic.Jurisdiction) map[generic.Jurisdiction]bool {
	m := make(map[generic.Jurisdiction]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// Validate checks the rule set is internally consistent.
func (r Rules) Validate() error {
	if !r.WeeklyThreshold.IsPositive() || !r.DailyThreshold.IsPositive() {
		return fmt.Errorf("%w: thresholds must be positive", generic.ErrInvalidRules)
	}
	if !r.DoubleTimeThreshold.GreaterThan(r.DailyThreshold) {
		return fmt.Errorf("%w: double-time threshold %s must exceed daily threshold %s",
			generic.ErrInvalidRules, r.DoubleTimeThreshold.Value, r.DailyThreshold.Value)
	}
	for j := range r.DoubleTimeStates {
		if !r.DailyOTStates[j] {
			return fmt.Errorf("%w: double-time state %s lacks daily OT", generic.ErrInvalidRules, j)
		}
	}
	if !r.DefaultFTEHours.IsPositive() {
		return fmt.Errorf("%w: default FTE hours must be positive", generic.ErrInvalidRules)
	}
	for j, h := range r.FTEHours {
		if !h.IsPositive() {
			return fmt.Errorf("%w: FTE hours for %s must be positive", generic.ErrInvalidRules, j)
		}
	}
	if r.RiskHigh.LessThan(r.RiskMedium) {
		return fmt.Errorf("%w: high risk threshold below medium", generic.ErrInvalidRules)
	}
	if !r.ParetoCutoff.IsPositive() || r.ParetoCutoff.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: pareto cutoff must be in (0, 100]", generic.ErrInvalidRules)
	}
	return nil
}

// =============================================================================
// CLASSIFIER - Jurisdiction to rule tier
// =============================================================================

// RuleSet says which daily rules apply in a jurisdiction.
type RuleSet struct {
	HasDailyOT    bool
	HasDoubleTime bool
}

// Tier returns 0 (weekly only), 1 (daily OT) or 2 (daily OT + double time).
func (rs RuleSet) Tier() int {
	switch {
	case rs.HasDoubleTime:
		return 2
	case rs.HasDailyOT:
		return 1
	default:
		return 0
	}
}

// Classify looks up a jurisdiction's rule tier. Unrecognized codes are
// weekly-only. Double time always implies daily OT.
func (r Rules) Classify(code generic.Jurisdiction) RuleSet {
	code = generic.NormalizeJurisdiction(string(code))
	dt := r.DoubleTimeStates[code]
	return RuleSet{
		HasDailyOT:    r.DailyOTStates[code] || dt,
		HasDoubleTime: dt,
	}
}

// IsKnown reports whether the code is an expected jurisdiction.
func (r Rules) IsKnown(code generic.Jurisdiction) bool {
	code = generic.NormalizeJurisdiction(string(code))
	return r.KnownJurisdictions[code] || r.DailyOTStates[code] || r.DoubleTimeStates[code]
}

// FTEHoursFor returns the weekly hours one FTE covers in a jurisdiction.
func (r Rules) FTEHoursFor(code generic.Jurisdiction) generic.Amount {
	if h, ok := r.FTEHours[generic.NormalizeJurisdiction(string(code))]; ok {
		return h
	}
	return r.DefaultFTEHours
}

// SortedStates returns a set's codes in ascending order (for display).
func SortedStates(set map[generic.Jurisdiction]bool) []generic.Jurisdiction {
	out := make([]generic.Jurisdiction, 0, len(set))
	for j, ok := range set {
		if ok {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out
}
