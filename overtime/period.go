package overtime

import (
	"fmt"
	"sort"

	"github.com/warp/nbot-engine/generic"
)

// =============================================================================
// PERIOD DRIVER - A reporting period as consecutive workweeks
// =============================================================================

// EmployeeAllocation is one employee's result for a reporting period.
type EmployeeAllocation struct {
	Totals EmployeeWeeklyTotals
	Days   []PerDayAllocation
}

// AllocatePeriod splits an employee's days into 7-day workweeks anchored at
// period.Start and allocates each week independently. Hours spilling past
// period.End (a final overnight shift) form their own trailing week.
func (a *Allocator) AllocatePeriod(emp generic.EmployeeID, days []Day, period generic.Period, rs RuleSet) (EmployeeAllocation, error) {
	weeks := make(map[int][]Day)
	for _, d := range days {
		idx := period.WeekIndex(d.Date)
		weeks[idx] = append(weeks[idx], d)
	}
	order := make([]int, 0, len(weeks))
	for idx := range weeks {
		order = append(order, idx)
	}
	sort.Ints(order)

	var all []PerDayAllocation
	for _, idx := range order {
		week := weeks[idx]
		sort.Slice(week, func(i, j int) bool { return week[i].Date.Before(week[j].Date) })
		alloc, err := a.AllocateWeek(week, rs)
		if err != nil {
			return EmployeeAllocation{}, fmt.Errorf("employee %s week %d: %w", emp, idx, err)
		}
		all = append(all, alloc...)
	}
	return EmployeeAllocation{
		Totals: SumAllocations(emp, all),
		Days:   all,
	}, nil
}
