/*
errors.go - Centralized error types for the NBOT engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input malformation - negative/non-finite hours, unparsable times
  2. Shape errors - too many days for a workweek, unsorted days
  3. Request errors - missing scope, bad selection, unknown mode
  4. Data errors - nothing found for the requested scope

POLICY:
  Input malformation is recovered locally wherever possible (fallback or
  rejecting a single record). Degenerate ratios are defined as zero and never
  reach this file. Only shape violations handed directly to the allocator are
  returned as errors.

USAGE:
  if errors.Is(err, generic.ErrNegativeHours) {
      // reject the single record, keep going
  }

SEE ALSO:
  - overtime/allocator.go: Returns shape and hour errors
  - report/service.go: Returns request and data errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNegativeHours is returned when an hour value is below zero.
	ErrNegativeHours = errors.New("negative hours")

	// ErrNonFiniteHours is returned for NaN or infinite hour values.
	ErrNonFiniteHours = errors.New("non-finite hours")

	// ErrUnparsableTime is returned when a clock time cannot be parsed.
	ErrUnparsableTime = errors.New("unparsable clock time")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrTooManyDays is returned when a workweek carries more than 7 dates.
	ErrTooManyDays = errors.New("workweek has more than 7 distinct dates")

	// ErrUnsortedDays is returned when allocator input is not chronological.
	ErrUnsortedDays = errors.New("days are not in chronological order")

	// ErrScopeRequired is returned when a scope has zero or several selectors.
	ErrScopeRequired = errors.New("exactly one of customer, region or locations is required")

	// ErrUnknownMode is returned for an unsupported report mode.
	ErrUnknownMode = errors.New("unknown report mode")

	// ErrNoData is returned when no shift rows match the scope and period.
	ErrNoData = errors.New("no shift data for scope")

	// ErrNoParetoSelection is returned when none of the selected sites are in the Pareto set.
	ErrNoParetoSelection = errors.New("none of the selected sites are in the pareto set")

	// ErrInvalidRules is returned when a rule set is internally inconsistent.
	ErrInvalidRules = errors.New("invalid overtime rules")

	// ErrAllocationInvariant signals a logic defect: a day's categories do
	// not sum to its hours, or a category went negative.
	ErrAllocationInvariant = errors.New("allocation invariant violated")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidHoursError identifies the record whose hours were rejected.
type InvalidHoursError struct {
	EmployeeID EmployeeID
	Date       TimePoint
	Value      float64
	Err        error
}

func (e *InvalidHoursError) Error() string {
	return fmt.Sprintf("invalid hours %v for employee %s on %s: %v", e.Value, e.EmployeeID, e.Date, e.Err)
}

func (e *InvalidHoursError) Unwrap() error {
	return e.Err
}

// SelectionError lists which selected sites fell outside the Pareto set.
type SelectionError struct {
	Selected  []LocationID
	Available []LocationID
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("none of the selected sites [%s] are in the pareto 80%% list (available: %s)",
		joinIDs(e.Selected, 0), joinIDs(e.Available, 20))
}

func (e *SelectionError) Unwrap() error {
	return ErrNoParetoSelection
}

func joinIDs(ids []LocationID, limit int) string {
	var parts []string
	for i, id := range ids {
		if limit > 0 && i == limit {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, string(id))
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNegativeHours) ||
		errors.Is(err, ErrNonFiniteHours) ||
		errors.Is(err, ErrUnparsableTime) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrTooManyDays) ||
		errors.Is(err, ErrUnsortedDays) ||
		errors.Is(err, ErrScopeRequired) ||
		errors.Is(err, ErrUnknownMode) ||
		errors.Is(err, ErrInvalidRules)
}

// IsNotFound returns true if the error indicates missing data.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoData)
}
