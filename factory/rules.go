/*
Package factory provides JSON to Go overtime rule conversion.

PURPOSE:
  Converts JSON rule definitions into overtime.Rules. Every threshold the
  engine depends on is a named value; this lets operations override them
  per deployment (a rules file, or the API) without code changes.

PARTIAL OVERRIDES:
  Every field is optional. Missing fields keep overtime.DefaultRules()
  values, so a file that only changes the weekly threshold is:
    {"weekly_threshold_hours": 37.5}

JSON SCHEMA:
  {
    "weekly_threshold_hours": 40,
    "daily_threshold_hours": 8,
    "double_time_threshold_hours": 12,
    "daily_ot_states": ["CA", "AK", "NV", "CO"],
    "double_time_states": ["CA"],
    "fte_hours": {"CA": 32},
    "default_fte_hours": 36,
    "risk_medium_pct": 1,
    "risk_high_pct": 3,
    "pareto_cutoff_pct": 80,
    "auto_select_max_sites": 10,
    "utilization": {"optimal_min": 36, "optimal_max": 40, "sub_optimal_min": 25, "under_hours_alert": 32},
    "tenure_days": {"critical": 90, "high": 179, "medium": 365}
  }

USAGE:
  f := factory.NewRulesFactory()
  rules, err := f.ParseRules(jsonString)
  alloc := overtime.NewAllocator(rules)

SEE ALSO:
  - overtime/rules.go: Rules type and defaults
  - cmd/server/main.go: Loads RULES_FILE at startup
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RulesJSON is the JSON representation of a rule set.
type RulesJSON struct {
	WeeklyThreshold     *float64           `json:"weekly_threshold_hours,omitempty"`
	DailyThreshold      *float64           `json:"daily_threshold_hours,omitempty"`
	DoubleTimeThreshold *float64           `json:"double_time_threshold_hours,omitempty"`
	DailyOTStates       []string           `json:"daily_ot_states,omitempty"`
	DoubleTimeStates    []string           `json:"double_time_states,omitempty"`
	ExtraJurisdictions  []string           `json:"extra_jurisdictions,omitempty"` // codes to treat as known
	FTEHours            map[string]float64 `json:"fte_hours,omitempty"`
	DefaultFTEHours     *float64           `json:"default_fte_hours,omitempty"`
	RiskMedium          *float64           `json:"risk_medium_pct,omitempty"`
	RiskHigh            *float64           `json:"risk_high_pct,omitempty"`
	ParetoCutoff        *float64           `json:"pareto_cutoff_pct,omitempty"`
	AutoSelectMaxSites  *int               `json:"auto_select_max_sites,omitempty"`
	Utilization         *UtilizationJSON   `json:"utilization,omitempty"`
	TenureDays          *TenureJSON        `json:"tenure_days,omitempty"`
}

// UtilizationJSON represents the average-weekly-hours bands.
type UtilizationJSON struct {
	OptimalMin      *float64 `json:"optimal_min,omitempty"`
	OptimalMax      *float64 `json:"optimal_max,omitempty"`
	SubOptimalMin   *float64 `json:"sub_optimal_min,omitempty"`
	UnderHoursAlert *float64 `json:"under_hours_alert,omitempty"`
}

// TenureJSON represents tenure bands in days since hire.
type TenureJSON struct {
	Critical *int `json:"critical,omitempty"`
	High     *int `json:"high,omitempty"`
	Medium   *int `json:"medium,omitempty"`
}

// =============================================================================
// RULES FACTORY
// =============================================================================

// RulesFactory converts JSON rule sets to overtime.Rules.
type RulesFactory struct{}

// NewRulesFactory creates a new rules factory.
func NewRulesFactory() *RulesFactory {
	return &RulesFactory{}
}

// ParseRules parses a JSON string into validated Rules.
func (f *RulesFactory) ParseRules(jsonStr string) (overtime.Rules, error) {
	var rj RulesJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return overtime.Rules{}, fmt.Errorf("failed to parse rules JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// LoadFile reads and parses a rules file. An empty path yields the defaults.
func (f *RulesFactory) LoadFile(path string) (overtime.Rules, error) {
	if path == "" {
		return overtime.DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return overtime.Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return f.ParseRules(string(data))
}

// FromJSON applies RulesJSON over the defaults and validates the result.
func (f *RulesFactory) FromJSON(rj RulesJSON) (overtime.Rules, error) {
	r := overtime.DefaultRules()

	setHours(&r.WeeklyThreshold, rj.WeeklyThreshold)
	setHours(&r.DailyThreshold, rj.DailyThreshold)
	setHours(&r.DoubleTimeThreshold, rj.DoubleTimeThreshold)
	setHours(&r.DefaultFTEHours, rj.DefaultFTEHours)

	if rj.DailyOTStates != nil {
		r.DailyOTStates = parseStates(rj.DailyOTStates)
	}
	if rj.DoubleTimeStates != nil {
		r.DoubleTimeStates = parseStates(rj.DoubleTimeStates)
	}
	for _, code := range rj.ExtraJurisdictions {
		r.KnownJurisdictions[generic.NormalizeJurisdiction(code)] = true
	}
	if rj.FTEHours != nil {
		r.FTEHours = make(map[generic.Jurisdiction]generic.Amount, len(rj.FTEHours))
		for code, h := range rj.FTEHours {
			r.FTEHours[generic.NormalizeJurisdiction(code)] = generic.Hours(h)
		}
	}

	setDecimal(&r.RiskMedium, rj.RiskMedium)
	setDecimal(&r.RiskHigh, rj.RiskHigh)
	setDecimal(&r.ParetoCutoff, rj.ParetoCutoff)
	if rj.AutoSelectMaxSites != nil {
		r.AutoSelectMaxSites = *rj.AutoSelectMaxSites
	}

	if u := rj.Utilization; u != nil {
		setHours(&r.OptimalMinHours, u.OptimalMin)
		setHours(&r.OptimalMaxHours, u.OptimalMax)
		setHours(&r.SubOptimalMinHours, u.SubOptimalMin)
		setHours(&r.UnderHoursAlert, u.UnderHoursAlert)
	}
	if t := rj.TenureDays; t != nil {
		setInt(&r.TenureCriticalDays, t.Critical)
		setInt(&r.TenureHighDays, t.High)
		setInt(&r.TenureMediumDays, t.Medium)
	}

	if err := r.Validate(); err != nil {
		return overtime.Rules{}, err
	}
	return r, nil
}

// ToJSON converts Rules to RulesJSON (all fields populated).
func (f *RulesFactory) ToJSON(r overtime.Rules) RulesJSON {
	fte := make(map[string]float64, len(r.FTEHours))
	for code, h := range r.FTEHours {
		fte[string(code)] = h.Float64()
	}
	return RulesJSON{
		WeeklyThreshold:     floatPtr(r.WeeklyThreshold.Float64()),
		DailyThreshold:      floatPtr(r.DailyThreshold.Float64()),
		DoubleTimeThreshold: floatPtr(r.DoubleTimeThreshold.Float64()),
		DailyOTStates:       stateStrings(r.DailyOTStates),
		DoubleTimeStates:    stateStrings(r.DoubleTimeStates),
		FTEHours:            fte,
		DefaultFTEHours:     floatPtr(r.DefaultFTEHours.Float64()),
		RiskMedium:          floatPtr(r.RiskMedium.InexactFloat64()),
		RiskHigh:            floatPtr(r.RiskHigh.InexactFloat64()),
		ParetoCutoff:        floatPtr(r.ParetoCutoff.InexactFloat64()),
		AutoSelectMaxSites:  &r.AutoSelectMaxSites,
		Utilization: &UtilizationJSON{
			OptimalMin:      floatPtr(r.OptimalMinHours.Float64()),
			OptimalMax:      floatPtr(r.OptimalMaxHours.Float64()),
			SubOptimalMin:   floatPtr(r.SubOptimalMinHours.Float64()),
			UnderHoursAlert: floatPtr(r.UnderHoursAlert.Float64()),
		},
		TenureDays: &TenureJSON{
			Critical: &r.TenureCriticalDays,
			High:     &r.TenureHighDays,
			Medium:   &r.TenureMediumDays,
		},
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func setHours(dst *generic.Amount, v *float64) {
	if v != nil {
		*dst = generic.Hours(*v)
	}
}

func setDecimal(dst *decimal.Decimal, v *float64) {
	if v != nil {
		*dst = decimal.NewFromFloat(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func parseStates(codes []string) map[generic.Jurisdiction]bool {
	m := make(map[generic.Jurisdiction]bool, len(codes))
	for _, c := range codes {
		m[generic.NormalizeJurisdiction(c)] = true
	}
	return m
}

func stateStrings(set map[generic.Jurisdiction]bool) []string {
	sorted := overtime.SortedStates(set)
	out := make([]string, len(sorted))
	for i, j := range sorted {
		out[i] = string(j)
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
