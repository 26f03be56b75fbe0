package report

import (
	"fmt"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
	"github.com/warp/nbot-engine/staffing"
)

// PreviewRequest is a what-if allocation for one employee's calendar days.
// Days outside the period form their own workweeks.
type PreviewRequest struct {
	EmployeeID generic.EmployeeID
	State      generic.Jurisdiction
	Days       []overtime.Day
	Period     generic.Period // zero: first to last day
}

// PreviewResult is the allocation of a PreviewRequest.
type PreviewResult struct {
	State      generic.Jurisdiction
	RuleSet    overtime.RuleSet
	Known      bool
	Allocation overtime.EmployeeAllocation
	OTPercent  string
}

// Preview allocates one employee's days without touching any store. Days
// are summed per calendar date first, so duplicate dates are allowed.
func (s *Service) Preview(req PreviewRequest) (PreviewResult, error) {
	if len(req.Days) == 0 {
		return PreviewResult{}, fmt.Errorf("preview: %w", generic.ErrNoData)
	}
	daily := make(overtime.DailyHours)
	for _, d := range req.Days {
		if d.Hours.IsNegative() {
			return PreviewResult{}, &generic.InvalidHoursError{
				EmployeeID: req.EmployeeID,
				Date:       d.Date,
				Value:      d.Hours.Float64(),
				Err:        generic.ErrNegativeHours,
			}
		}
		daily.Add(req.EmployeeID, d.Date, d.Hours)
	}
	days := daily.Days(req.EmployeeID)

	period := req.Period
	if period.Start.IsZero() {
		period = generic.Period{Start: days[0].Date, End: days[len(days)-1].Date}
	}

	state := generic.NormalizeJurisdiction(string(req.State))
	rs := s.rules.Classify(state)
	alloc, err := overtime.NewAllocator(s.rules).AllocatePeriod(req.EmployeeID, days, period, rs)
	if err != nil {
		return PreviewResult{}, err
	}
	return PreviewResult{
		State:      state,
		RuleSet:    rs,
		Known:      s.rules.IsKnown(state),
		Allocation: alloc,
		OTPercent:  staffing.OTPercentage(alloc.Totals.TotalOTExposure, alloc.Totals.TotalHours).StringFixed(1),
	}, nil
}
