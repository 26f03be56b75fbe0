// Package metrics provides Prometheus metrics for the NBOT engine.
// It covers normalization health, allocation and report latency, and the
// business-facing OT totals of the latest report per scope.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// =============================================================================
// BUSINESS METRICS - Latest report per scope
// =============================================================================

// TotalOTHours tracks total OT exposure of the latest report per scope.
var TotalOTHours = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "nbot",
	Name:      "total_ot_hours",
	Help:      "Total OT exposure (daily OT + double time + weekly OT) of the latest report for a scope",
}, []string{"scope"})

// ParetoSites tracks how many sites make up the 80% set.
var ParetoSites = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "nbot",
	Name:      "pareto_sites",
	Help:      "Number of sites flagged in the Pareto 80% set of the latest report for a scope",
}, []string{"scope"})

// ReportsTotal counts report runs by mode and outcome.
var ReportsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nbot",
	Name:      "reports_total",
	Help:      "Report runs by mode and status",
}, []string{"mode", "status"})

// =============================================================================
// ENGINE METRICS - Normalization and allocation health
// =============================================================================

// ShiftsNormalized counts shift records folded into daily hours.
var ShiftsNormalized = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "nbot",
	Name:      "shifts_normalized_total",
	Help:      "Shift records folded into calendar-day hours",
})

// ShiftFallbacks counts shifts whose times could not be parsed.
var ShiftFallbacks = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "nbot",
	Name:      "shift_fallbacks_total",
	Help:      "Shift records with unparsable times attributed whole to their work date",
})

// RecordsRejected counts dropped shift records by reason.
var RecordsRejected = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nbot",
	Name:      "records_rejected_total",
	Help:      "Shift records rejected for invalid hours, by reason",
}, []string{"reason"})

// UnknownJurisdictions counts sites whose state code was not recognized.
var UnknownJurisdictions = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "nbot",
	Name:      "unknown_jurisdictions_total",
	Help:      "Sites with an unrecognized jurisdiction defaulted to weekly-only rules",
})

// AllocationDurationSeconds tracks time to allocate all employees of a report.
var AllocationDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "nbot",
	Name:      "allocation_duration_seconds",
	Help:      "Time taken to allocate overtime for all employees of a report",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1.0},
})

// ReportDurationSeconds tracks end-to-end report time including the fetch.
var ReportDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "nbot",
	Name:      "report_duration_seconds",
	Help:      "Time taken to build a report including loading shift rows",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
})

// =============================================================================
// IMPORTER METRICS
// =============================================================================

// ImporterRowsTotal counts shift rows parsed from uploaded sheets.
var ImporterRowsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "importer",
	Name:      "rows_total",
	Help:      "Shift rows successfully parsed from uploaded sheets",
})

// ImporterErrorsTotal counts rows rejected by the importer, by error type.
var ImporterErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "importer",
	Name:      "errors_total",
	Help:      "Total import errors by error type",
}, []string{"error_type"})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetReportGauges clears the per-scope gauges (used by scenario resets).
func ResetReportGauges() {
	TotalOTHours.Reset()
	ParetoSites.Reset()
}
