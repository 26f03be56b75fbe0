/*
Package staffing turns per-employee overtime allocations into site, customer
and region aggregates, ranks them by OT contribution, and classifies
utilization, tenure and capacity.

KEY CONCEPTS:
  - Aggregate: one row per site (location + jurisdiction), customer or region
  - OT percentage: total OT exposure / total hours * 100, 0 when hours are 0
  - FTE needed: ceil(total hours / hours-per-FTE), 32 in CA, 36 elsewhere
  - Variance: employees - FTE needed, and the capacity status derived from it
  - Risk: low (<1%), medium (1-3%), high (>=3%) on the rounded OT percentage

ROUNDING:
  Sums stay at full decimal precision. OTPercentage is the one value rounded
  here (1 decimal) because risk is keyed on it; everything else is rounded by
  the API layer when rendering.

SEE ALSO:
  - pareto.go: Rank ordering and the 80% flag
  - workforce.go: Utilization, tenure and alerts per employee
*/
package staffing

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
)

// =============================================================================
// TYPES
// =============================================================================

// Level says what an Aggregate groups.
type Level string

const (
	LevelSite     Level = "site"
	LevelCustomer Level = "customer"
	LevelRegion   Level = "region"
)

type RiskCategory string

const (
	RiskLow    RiskCategory = "low"
	RiskMedium RiskCategory = "medium"
	RiskHigh   RiskCategory = "high"
)

type CapacityStatus string

const (
	CapacityBalanced     CapacityStatus = "balanced"
	CapacityUnderstaffed CapacityStatus = "understaffed"
	CapacityOverstaffed  CapacityStatus = "overstaffed"
)

// Aggregate is a site, customer or region rollup.
type Aggregate struct {
	Level Level
	Key   string // location ID (suffixed "/STATE" when it spans jurisdictions), customer code or region name
	Name  string

	// Site attributes (LevelSite); customer/region rollups keep what is common.
	LocationID   generic.LocationID
	State        generic.Jurisdiction
	CustomerCode generic.CustomerCode
	CustomerName string
	Region       string
	SiteManager  string

	SiteCount       int
	EmployeeCount   int
	EmployeesWithOT int

	TotalHours      generic.Amount
	Regular         generic.Amount
	DailyOT         generic.Amount
	DoubleTime      generic.Amount
	WeeklyOT        generic.Amount
	TotalOTExposure generic.Amount

	OTPercentage   decimal.Decimal // rounded to 1 decimal
	RiskCategory   RiskCategory
	FTENeeded      int
	Variance       int
	CapacityStatus CapacityStatus

	Utilization map[UtilizationStatus]int
	Alerts      map[AlertKind]int
	Employees   []EmployeeResult // LevelSite only
}

// Aggregator computes aggregates under a rule set.
type Aggregator struct {
	Rules overtime.Rules
}

// NewAggregator creates an aggregator for the given rules.
func NewAggregator(rules overtime.Rules) *Aggregator {
	return &Aggregator{Rules: rules}
}

// =============================================================================
// SITE AGGREGATION
// =============================================================================

// Site sums employee results into a site aggregate.
func (a *Aggregator) Site(site generic.Site, employees []EmployeeResult) Aggregate {
	agg := Aggregate{
		Level:        LevelSite,
		Key:          string(site.LocationID),
		Name:         string(site.LocationID),
		LocationID:   site.LocationID,
		State:        site.State,
		CustomerCode: site.CustomerCode,
		CustomerName: site.CustomerName,
		Region:       site.Region,
		SiteManager:  site.SiteManager,
		SiteCount:    1,
		Employees:    employees,
	}
	agg.zeroTotals()

	for _, e := range employees {
		agg.EmployeeCount++
		if e.Totals.HasOT() {
			agg.EmployeesWithOT++
		}
		agg.TotalHours = agg.TotalHours.Add(e.Totals.TotalHours)
		agg.Regular = agg.Regular.Add(e.Totals.Regular)
		agg.DailyOT = agg.DailyOT.Add(e.Totals.DailyOT)
		agg.DoubleTime = agg.DoubleTime.Add(e.Totals.DoubleTime)
		agg.WeeklyOT = agg.WeeklyOT.Add(e.Totals.WeeklyOT)
		agg.Utilization[e.Utilization]++
		for _, alert := range e.Alerts {
			agg.Alerts[alert]++
		}
	}
	agg.TotalOTExposure = agg.DailyOT.Add(agg.DoubleTime).Add(agg.WeeklyOT)

	agg.OTPercentage = OTPercentage(agg.TotalOTExposure, agg.TotalHours)
	agg.RiskCategory = a.Risk(agg.OTPercentage)
	agg.FTENeeded = FTENeeded(agg.TotalHours, a.Rules.FTEHoursFor(site.State))
	agg.Variance = agg.EmployeeCount - agg.FTENeeded
	agg.CapacityStatus = Capacity(agg.Variance)
	return agg
}

func (agg *Aggregate) zeroTotals() {
	agg.TotalHours = generic.ZeroHours()
	agg.Regular = generic.ZeroHours()
	agg.DailyOT = generic.ZeroHours()
	agg.DoubleTime = generic.ZeroHours()
	agg.WeeklyOT = generic.ZeroHours()
	agg.TotalOTExposure = generic.ZeroHours()
	agg.Utilization = make(map[UtilizationStatus]int)
	agg.Alerts = make(map[AlertKind]int)
}

// =============================================================================
// ROLLUPS - Customer and region
// =============================================================================

// ByCustomer rolls site aggregates up per customer code.
func (a *Aggregator) ByCustomer(sites []Aggregate) []Aggregate {
	return a.rollup(LevelCustomer, sites, func(s Aggregate) (string, string) {
		name := s.CustomerName
		if name == "" {
			name = string(s.CustomerCode)
		}
		return string(s.CustomerCode), name
	})
}

// ByRegion rolls site aggregates up per region.
func (a *Aggregator) ByRegion(sites []Aggregate) []Aggregate {
	return a.rollup(LevelRegion, sites, func(s Aggregate) (string, string) {
		return s.Region, s.Region
	})
}

// Rollup combines sites into a single aggregate at the given level.
// FTE needed is the sum of site FTEs since each site has its own FTE norm.
func (a *Aggregator) Rollup(level Level, key, name string, sites []Aggregate) Aggregate {
	agg := Aggregate{Level: level, Key: key, Name: name}
	agg.zeroTotals()

	for i, s := range sites {
		if i == 0 {
			agg.CustomerCode, agg.CustomerName, agg.Region = s.CustomerCode, s.CustomerName, s.Region
		} else {
			if agg.CustomerCode != s.CustomerCode {
				agg.CustomerCode, agg.CustomerName = "", ""
			}
			if agg.Region != s.Region {
				agg.Region = ""
			}
		}
		agg.SiteCount += s.SiteCount
		agg.EmployeeCount += s.EmployeeCount
		agg.EmployeesWithOT += s.EmployeesWithOT
		agg.TotalHours = agg.TotalHours.Add(s.TotalHours)
		agg.Regular = agg.Regular.Add(s.Regular)
		agg.DailyOT = agg.DailyOT.Add(s.DailyOT)
		agg.DoubleTime = agg.DoubleTime.Add(s.DoubleTime)
		agg.WeeklyOT = agg.WeeklyOT.Add(s.WeeklyOT)
		agg.FTENeeded += s.FTENeeded
		for k, v := range s.Utilization {
			agg.Utilization[k] += v
		}
		for k, v := range s.Alerts {
			agg.Alerts[k] += v
		}
	}
	agg.TotalOTExposure = agg.DailyOT.Add(agg.DoubleTime).Add(agg.WeeklyOT)
	agg.OTPercentage = OTPercentage(agg.TotalOTExposure, agg.TotalHours)
	agg.RiskCategory = a.Risk(agg.OTPercentage)
	agg.Variance = agg.EmployeeCount - agg.FTENeeded
	agg.CapacityStatus = Capacity(agg.Variance)
	return agg
}

func (a *Aggregator) rollup(level Level, sites []Aggregate, keyOf func(Aggregate) (string, string)) []Aggregate {
	groups := make(map[string][]Aggregate)
	names := make(map[string]string)
	for _, s := range sites {
		key, name := keyOf(s)
		groups[key] = append(groups[key], s)
		if _, ok := names[key]; !ok {
			names[key] = name
		}
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Aggregate, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.Rollup(level, k, names[k], groups[k]))
	}
	return out
}

// =============================================================================
// RATIOS AND CLASSIFICATIONS
// =============================================================================

// OTPercentage returns ot/hours*100 rounded to one decimal, 0 when hours is 0.
func OTPercentage(ot, hours generic.Amount) decimal.Decimal {
	return generic.Percent(ot, hours).Value.Round(1)
}

// Risk classifies an OT percentage.
func (a *Aggregator) Risk(pct decimal.Decimal) RiskCategory {
	switch {
	case pct.GreaterThanOrEqual(a.Rules.RiskHigh):
		return RiskHigh
	case pct.GreaterThanOrEqual(a.Rules.RiskMedium):
		return RiskMedium
	default:
		return RiskLow
	}
}

// FTENeeded returns ceil(hours / hoursPerFTE); 0 when hoursPerFTE is not positive.
func FTENeeded(hours, hoursPerFTE generic.Amount) int {
	if !hoursPerFTE.IsPositive() {
		return 0
	}
	return int(hours.Value.Div(hoursPerFTE.Value).Ceil().IntPart())
}

// balancedBand is the largest |variance| still considered balanced.
const balancedBand = 0.5

// Capacity maps variance (employees - FTE needed) to a status.
func Capacity(variance int) CapacityStatus {
	switch {
	case math.Abs(float64(variance)) <= balancedBand:
		return CapacityBalanced
	case variance < 0:
		return CapacityUnderstaffed
	default:
		return CapacityOverstaffed
	}
}
