package staffing

import (
	"github.com/shopspring/decimal"

	"github.com/warp/nbot-engine/generic"
)

// Display precision. Computation stays at full precision; values are
// rounded only when they leave the engine.
const (
	HoursPlaces   = 2
	PercentPlaces = 1
)

// DisplayHours rounds an hour amount for output.
func DisplayHours(a generic.Amount) float64 {
	return a.Value.Round(HoursPlaces).InexactFloat64()
}

// DisplayPercent rounds a percentage for output.
func DisplayPercent(d decimal.Decimal) float64 {
	return d.Round(PercentPlaces).InexactFloat64()
}
