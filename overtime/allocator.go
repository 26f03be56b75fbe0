/*
allocator.go - Per-employee overtime allocation

PURPOSE:
  Splits one employee's worked hours for one workweek into four
  non-overlapping categories: regular, daily OT, double time, weekly OT.

KEY CONCEPTS:
  Pass 1 (per day):   daily OT / double time by the jurisdiction's tier
  Pass 2 (per week):  hours over the weekly threshold reclassify regular hours
                      to weekly OT, walking from the last day backward

WHY BACKWARD:
  The most recent regular hours become weekly OT first. Daily OT and double
  time fixed in pass 1 are never touched, so no hour lands in two buckets.

SEVENTH CONSECUTIVE DAY (double-time tier only):
  With 7 dates in the week and days 1-6 all worked, day 7's first
  DailyThreshold hours are daily OT and the rest double time.

INVARIANT:
  regular + daily_ot + double_time + weekly_ot == hours, per day, exactly.

USAGE:
  a := overtime.NewAllocator(overtime.DefaultRules())
  days, err := a.AllocateWeek(week, rules.Classify("CA"))

SEE ALSO:
  - period.go: Splits a reporting period into workweeks
  - rules.go: Thresholds and jurisdiction tiers
*/
package overtime

import (
	"fmt"

	"github.com/warp/nbot-engine/generic"
)

// Allocator applies a Rules set to workweeks. It holds no per-call state.
type Allocator struct {
	Rules Rules
}

// NewAllocator creates an allocator for the given rules.
func NewAllocator(rules Rules) *Allocator {
	return &Allocator{Rules: rules}
}

// AllocateWeek allocates one workweek. days must be strictly chronological,
// carry at most 7 dates and non-negative hours.
func (a *Allocator) AllocateWeek(days []Day, rs RuleSet) ([]PerDayAllocation, error) {
	if err := validateWeek(days); err != nil {
		return nil, err
	}

	out := make([]PerDayAllocation, len(days))

	// =========================================================================
	// PASS 1: daily classification
	// =========================================================================
	seventh := len(days) == generic.DaysPerWeek && sixDayRun(days)
	for idx, d := range days {
		out[idx] = a.classifyDay(d, rs, seventh && idx == generic.DaysPerWeek-1)
	}

	// =========================================================================
	// PASS 2: weekly OT, backward from the last day
	// =========================================================================
	total := generic.ZeroHours()
	for _, d := range days {
		total = total.Add(d.Hours)
	}
	remaining := total.Sub(a.Rules.WeeklyThreshold).Max(generic.ZeroHours())
	for i := len(out) - 1; i >= 0 && remaining.IsPositive(); i-- {
		take := remaining.Min(out[i].Regular)
		out[i].Regular = out[i].Regular.Sub(take)
		out[i].WeeklyOT = out[i].WeeklyOT.Add(take)
		remaining = remaining.Sub(take)
	}

	for _, p := range out {
		if err := p.Check(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *Allocator) classifyDay(d Day, rs RuleSet, seventh bool) PerDayAllocation {
	zero := generic.ZeroHours()
	h := d.Hours
	p := PerDayAllocation{
		Date:       d.Date,
		Total:      h,
		Regular:    h,
		DailyOT:    zero,
		DoubleTime: zero,
		WeeklyOT:   zero,
	}
	if !rs.HasDailyOT && !rs.HasDoubleTime {
		return p
	}

	daily := a.Rules.DailyThreshold
	switch {
	case seventh && rs.HasDoubleTime:
		p.DailyOT = h.Min(daily)
		p.DoubleTime = h.Sub(daily).Max(zero)
	default:
		if rs.HasDoubleTime {
			p.DoubleTime = h.Sub(a.Rules.DoubleTimeThreshold).Max(zero)
		}
		if h.GreaterThan(daily) {
			over := h.Sub(daily)
			if rs.HasDoubleTime {
				// Daily OT covers only the hours between the two thresholds.
				over = over.Min(a.Rules.DoubleTimeThreshold.Sub(daily))
			}
			p.DailyOT = over
		}
	}
	p.Regular = h.Sub(p.DailyOT).Sub(p.DoubleTime).Max(zero)
	return p
}

// sixDayRun reports whether the first six days were all worked.
func sixDayRun(days []Day) bool {
	for _, d := range days[:generic.DaysPerWeek-1] {
		if !d.Hours.IsPositive() {
			return false
		}
	}
	return true
}

func validateWeek(days []Day) error {
	if len(days) > generic.DaysPerWeek {
		return fmt.Errorf("%w: got %d", generic.ErrTooManyDays, len(days))
	}
	for i, d := range days {
		if d.Hours.IsNegative() {
			return &generic.InvalidHoursError{Date: d.Date, Value: d.Hours.Float64(), Err: generic.ErrNegativeHours}
		}
		if i > 0 && !days[i-1].Date.Before(d.Date) {
			return fmt.Errorf("%w: %s follows %s", generic.ErrUnsortedDays, d.Date, days[i-1].Date)
		}
	}
	return nil
}
