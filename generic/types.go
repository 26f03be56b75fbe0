/*
Package generic provides the domain-agnostic primitives of the NBOT engine.

PURPOSE:
  This package contains the building blocks every other package shares:
  exact hour quantities, calendar days, reporting periods and workweeks,
  clock-time parsing, and the error taxonomy. It knows nothing about
  overtime rules or sites; those live in overtime/ and staffing/.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of hours backed by decimal.Decimal
  - Identifiers: EmployeeID, LocationID, CustomerCode, Jurisdiction
  - Scope: Which slice of the warehouse a report covers

DESIGN PRINCIPLES:
  1. Precision: Hours are decimal.Decimal, never float64, inside the engine
  2. Rounding happens once, at the output boundary (see Amount.Round)
  3. Type Safety: Strong typing for IDs prevents mixing employee/site IDs

USAGE:
  h := generic.Hours(8.5)
  over := h.Sub(generic.Hours(8)).Max(generic.ZeroHours())

SEE ALSO:
  - time.go: TimePoint and clock-time parsing
  - period.go: Period and workweek splitting
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit (always hours for this system)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours   Unit = "hours"
	UnitPercent Unit = "percent"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// Hours is shorthand for an Amount in hours.
func Hours(value float64) Amount { return NewAmount(value, UnitHours) }

// ZeroHours returns 0 hours.
func ZeroHours() Amount { return Amount{Value: decimal.Zero, Unit: UnitHours} }

// HoursFromClock converts an hour/minute pair into fractional hours.
func HoursFromClock(hour, minute int) Amount {
	h := decimal.NewFromInt(int64(hour))
	m := decimal.NewFromInt(int64(minute)).Div(decimal.NewFromInt(60))
	return Amount{Value: h.Add(m), Unit: UnitHours}
}

// CheckedHours converts a raw upstream float into hours, rejecting values the
// engine must never see.
func CheckedHours(value float64) (Amount, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Amount{}, ErrNonFiniteHours
	}
	if value < 0 {
		return Amount{}, ErrNegativeHours
	}
	return Hours(value), nil
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) Round(places int32) Amount    { return Amount{Value: a.Value.Round(places), Unit: a.Unit} }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Float64 returns the value as float64 for display and metrics only.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

// SumAmounts adds amounts together, starting from zero hours.
func SumAmounts(amounts ...Amount) Amount {
	total := ZeroHours()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole Amount) Amount {
	if whole.IsZero() {
		return Amount{Value: decimal.Zero, Unit: UnitPercent}
	}
	return Amount{Value: part.Value.Div(whole.Value).Mul(decimal.NewFromInt(100)), Unit: UnitPercent}
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type LocationID string
type CustomerCode string

// Jurisdiction is a state/region code such as "CA" or "TX".
type Jurisdiction string

// NormalizeJurisdiction upper-cases and trims a raw state code.
func NormalizeJurisdiction(s string) Jurisdiction {
	return Jurisdiction(strings.ToUpper(strings.TrimSpace(s)))
}

// =============================================================================
// SCOPE - Which slice of the warehouse a report covers
// =============================================================================

// Scope selects shift rows. Exactly one selector must be set.
type Scope struct {
	CustomerCode CustomerCode
	Region       string
	LocationIDs  []LocationID
}

// Validate checks that exactly one selector is populated.
func (s Scope) Validate() error {
	set := 0
	if s.CustomerCode != "" {
		set++
	}
	if s.Region != "" {
		set++
	}
	if len(s.LocationIDs) > 0 {
		set++
	}
	if set != 1 {
		return ErrScopeRequired
	}
	return nil
}

// String describes the scope for logs and audit records.
func (s Scope) String() string {
	switch {
	case s.CustomerCode != "":
		return "customer:" + string(s.CustomerCode)
	case s.Region != "":
		return "region:" + s.Region
	case len(s.LocationIDs) > 0:
		ids := make([]string, len(s.LocationIDs))
		for i, id := range s.LocationIDs {
			ids[i] = string(id)
		}
		return "sites:" + strings.Join(ids, ",")
	default:
		return "unscoped"
	}
}

// Matches reports whether a row with the given attributes belongs to the scope.
func (s Scope) Matches(customer CustomerCode, region string, location LocationID) bool {
	switch {
	case s.CustomerCode != "":
		return customer == s.CustomerCode
	case s.Region != "":
		return region == s.Region
	case len(s.LocationIDs) > 0:
		for _, id := range s.LocationIDs {
			if id == location {
				return true
			}
		}
	}
	return false
}
