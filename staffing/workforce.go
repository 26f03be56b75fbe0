package staffing

import (
	"github.com/shopspring/decimal"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
)

// =============================================================================
// EMPLOYEE RESULTS - Allocation plus workforce classifications
// =============================================================================

type UtilizationStatus string

const (
	UtilizationOptimal    UtilizationStatus = "optimal"     // 36-40 avg weekly hours
	UtilizationSubOptimal UtilizationStatus = "sub_optimal" // 25 to under 36
	UtilizationCritical   UtilizationStatus = "critical"    // under 25 or over 40
)

type TenureRisk string

const (
	TenureCritical TenureRisk = "critical"
	TenureHigh     TenureRisk = "high"
	TenureMedium   TenureRisk = "medium"
	TenureLow      TenureRisk = "low"
	TenureUnknown  TenureRisk = "unknown"
)

type AlertKind string

const (
	AlertOver40         AlertKind = "over_40"
	AlertUnder32        AlertKind = "under_32"
	AlertDailyOT        AlertKind = "daily_ot"
	AlertDoubleTime     AlertKind = "double_time"
	AlertCriticalTenure AlertKind = "critical_tenure"
	AlertHighTenure     AlertKind = "high_tenure"
)

// EmployeeResult is one employee's allocation at one site.
type EmployeeResult struct {
	Name           string
	HireDate       generic.TimePoint
	Totals         overtime.EmployeeWeeklyTotals
	Days           []overtime.PerDayAllocation
	AvgWeeklyHours generic.Amount
	Utilization    UtilizationStatus
	Tenure         TenureRisk
	TenureDays     int
	Alerts         []AlertKind
}

// EmployeeInput carries what Employee needs beyond the allocation.
type EmployeeInput struct {
	Name     string
	HireDate generic.TimePoint // zero when unknown
	Weeks    int               // workweeks in the reporting period
	AsOf     generic.TimePoint // tenure reference date
	Rules    overtime.RuleSet
}

// Employee classifies an allocated employee.
func (a *Aggregator) Employee(alloc overtime.EmployeeAllocation, in EmployeeInput) EmployeeResult {
	weeks := in.Weeks
	if weeks < 1 {
		weeks = 1
	}
	avg := alloc.Totals.TotalHours.Div(decimal.NewFromInt(int64(weeks)))

	res := EmployeeResult{
		Name:           in.Name,
		HireDate:       in.HireDate,
		Totals:         alloc.Totals,
		Days:           alloc.Days,
		AvgWeeklyHours: avg,
		Utilization:    a.Utilization(avg),
		Tenure:         TenureUnknown,
	}
	if !in.HireDate.IsZero() {
		res.TenureDays = generic.DaysBetween(in.HireDate, in.AsOf)
		res.Tenure = a.Tenure(res.TenureDays)
	}
	res.Alerts = a.alerts(res, in.Rules)
	return res
}

// Utilization classifies average weekly hours.
func (a *Aggregator) Utilization(avg generic.Amount) UtilizationStatus {
	r := a.Rules
	switch {
	case !avg.LessThan(r.OptimalMinHours) && !avg.GreaterThan(r.OptimalMaxHours):
		return UtilizationOptimal
	case !avg.LessThan(r.SubOptimalMinHours) && avg.LessThan(r.OptimalMinHours):
		return UtilizationSubOptimal
	default:
		return UtilizationCritical
	}
}

// Tenure classifies days since hire.
func (a *Aggregator) Tenure(days int) TenureRisk {
	r := a.Rules
	switch {
	case days <= r.TenureCriticalDays:
		return TenureCritical
	case days <= r.TenureHighDays:
		return TenureHigh
	case days <= r.TenureMediumDays:
		return TenureMedium
	default:
		return TenureLow
	}
}

func (a *Aggregator) alerts(res EmployeeResult, rs overtime.RuleSet) []AlertKind {
	var out []AlertKind
	if res.Totals.WeeklyOT.IsPositive() {
		out = append(out, AlertOver40)
	}
	if res.AvgWeeklyHours.LessThan(a.Rules.UnderHoursAlert) {
		out = append(out, AlertUnder32)
	}
	if rs.HasDailyOT && res.Totals.DailyOT.IsPositive() {
		out = append(out, AlertDailyOT)
	}
	if rs.HasDoubleTime && res.Totals.DoubleTime.IsPositive() {
		out = append(out, AlertDoubleTime)
	}
	switch res.Tenure {
	case TenureCritical:
		out = append(out, AlertCriticalTenure)
	case TenureHigh:
		out = append(out, AlertHighTenure)
	}
	return out
}

// =============================================================================
// SUMMARIES - Report sections over a set of sites
// =============================================================================

// Summary is the metric block of a report section.
type Summary struct {
	Sites           int
	Employees       int
	EmployeesWithOT int
	TotalHours      generic.Amount
	Regular         generic.Amount
	DailyOT         generic.Amount
	DoubleTime      generic.Amount
	WeeklyOT        generic.Amount
	TotalOT         generic.Amount
	OTPercentage    decimal.Decimal
	RiskCategory    RiskCategory
	FTENeeded       int
	Variance        int
	AvgHoursPerEmp  generic.Amount
	ShareOfTotalOT  decimal.Decimal // this section's OT as % of the reference total
	Capacity        CapacitySummary
}

// CapacitySummary lists the sites out of balance.
type CapacitySummary struct {
	Status       CapacityStatus
	FTEGap       int // |variance| when not balanced
	Understaffed []generic.LocationID
	Overstaffed  []generic.LocationID
}

// Summarize builds a section summary. referenceOT is the OT total the section
// share is computed against (the whole report's OT).
func (a *Aggregator) Summarize(sites []Aggregate, referenceOT generic.Amount) Summary {
	roll := a.Rollup(LevelSite, "", "", sites)

	s := Summary{
		Sites:           len(sites),
		Employees:       roll.EmployeeCount,
		EmployeesWithOT: roll.EmployeesWithOT,
		TotalHours:      roll.TotalHours,
		Regular:         roll.Regular,
		DailyOT:         roll.DailyOT,
		DoubleTime:      roll.DoubleTime,
		WeeklyOT:        roll.WeeklyOT,
		TotalOT:         roll.TotalOTExposure,
		OTPercentage:    roll.OTPercentage,
		RiskCategory:    roll.RiskCategory,
		FTENeeded:       roll.FTENeeded,
		Variance:        roll.Variance,
		AvgHoursPerEmp:  generic.ZeroHours(),
		ShareOfTotalOT:  generic.Percent(roll.TotalOTExposure, referenceOT).Value,
	}
	if roll.EmployeeCount > 0 {
		s.AvgHoursPerEmp = roll.TotalHours.Div(decimal.NewFromInt(int64(roll.EmployeeCount)))
	}

	s.Capacity.Status = roll.CapacityStatus
	if roll.CapacityStatus != CapacityBalanced {
		s.Capacity.FTEGap = roll.Variance
		if s.Capacity.FTEGap < 0 {
			s.Capacity.FTEGap = -s.Capacity.FTEGap
		}
	}
	for _, site := range sites {
		switch site.CapacityStatus {
		case CapacityUnderstaffed:
			s.Capacity.Understaffed = append(s.Capacity.Understaffed, site.LocationID)
		case CapacityOverstaffed:
			s.Capacity.Overstaffed = append(s.Capacity.Overstaffed, site.LocationID)
		}
	}
	return s
}
