package staffing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/nbot-engine/generic"
)

// =============================================================================
// PARETO RANKER
// =============================================================================

// Ranked is an aggregate annotated with its Pareto position.
type Ranked struct {
	Aggregate
	Rank                 int             // 1-based
	CumulativePercentage decimal.Decimal // full precision
	InPareto             bool
}

var hundred = decimal.NewFromInt(100)

// Rank sorts aggregates by OT exposure (desc), then total hours (desc), then
// key (asc), and flags entries while the cumulative percentage is at most
// cutoff, plus the one entry that first passes it. With zero total OT every
// cumulative percentage is 0 and nothing is flagged. The input is not modified.
func Rank(items []Aggregate, cutoff decimal.Decimal) []Ranked {
	sorted := make([]Aggregate, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.TotalOTExposure.Equal(b.TotalOTExposure) {
			return a.TotalOTExposure.GreaterThan(b.TotalOTExposure)
		}
		if !a.TotalHours.Equal(b.TotalHours) {
			return a.TotalHours.GreaterThan(b.TotalHours)
		}
		return a.Key < b.Key
	})

	grand := generic.ZeroHours()
	for _, a := range sorted {
		grand = grand.Add(a.TotalOTExposure)
	}

	out := make([]Ranked, len(sorted))
	running := generic.ZeroHours()
	prev := decimal.Zero
	for i, a := range sorted {
		out[i] = Ranked{Aggregate: a, Rank: i + 1, CumulativePercentage: decimal.Zero}
		if !grand.IsPositive() {
			continue
		}
		running = running.Add(a.TotalOTExposure)
		// Multiply first so the last entry lands on exactly 100.
		cum := running.Value.Mul(hundred).Div(grand.Value)
		out[i].CumulativePercentage = cum
		out[i].InPareto = cum.LessThanOrEqual(cutoff) || prev.LessThan(cutoff)
		prev = cum
	}
	return out
}

// ParetoSet returns the flagged entries in rank order.
func ParetoSet(ranked []Ranked) []Ranked {
	var out []Ranked
	for _, r := range ranked {
		if r.InPareto {
			out = append(out, r)
		}
	}
	return out
}

// Aggregates strips ranking annotations.
func Aggregates(ranked []Ranked) []Aggregate {
	out := make([]Aggregate, len(ranked))
	for i, r := range ranked {
		out[i] = r.Aggregate
	}
	return out
}
