/*
Package report orchestrates an NBOT report from shift rows to a ranked
Pareto result.

DATA FLOW:
  ShiftSource.LoadShifts
    -> group rows by site (location + jurisdiction)
    -> Normalizer: calendar-day hours per employee
    -> Rules.Classify: rule tier for the site's jurisdiction
    -> Allocator.AllocatePeriod: per-employee categories, week by week
    -> Aggregator: employee classification + site aggregate
    -> Rank: Pareto 80% over sites (and customers in region mode)
    -> Summaries: overall / pareto / selected sections

NOTHING IS CACHED:
  Every Run reloads rows and recomputes. Only run metadata is written to the
  RunStore, never the computed report.

SEE ALSO:
  - overtime/: normalizer and allocator
  - staffing/: aggregation, ranking, summaries
  - api/handlers.go: HTTP surface over Run and Preview
*/
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/metrics"
	"github.com/warp/nbot-engine/overtime"
	"github.com/warp/nbot-engine/staffing"
)

// =============================================================================
// REQUEST / RESULT TYPES
// =============================================================================

// Mode selects how the report scope is expressed.
type Mode string

const (
	ModeCustomer Mode = "customer"
	ModeRegion   Mode = "region"
	ModeSites    Mode = "sites"
)

// Request describes a report run.
type Request struct {
	Mode              Mode
	CustomerCode      generic.CustomerCode
	Region            string
	LocationIDs       []generic.LocationID
	Period            generic.Period
	SelectedLocations []generic.LocationID
	Trigger           string // "api" when empty
}

// Scope converts the request into a store scope for its mode.
func (r Request) Scope() (generic.Scope, error) {
	var scope generic.Scope
	switch r.Mode {
	case ModeCustomer:
		scope.CustomerCode = r.CustomerCode
	case ModeRegion:
		scope.Region = r.Region
	case ModeSites:
		scope.LocationIDs = r.LocationIDs
	default:
		return scope, fmt.Errorf("%w: %q", generic.ErrUnknownMode, r.Mode)
	}
	if err := scope.Validate(); err != nil {
		return scope, fmt.Errorf("%s report: %w", r.Mode, err)
	}
	return scope, nil
}

// Report is the computed result of a run.
type Report struct {
	RunID       string
	Mode        Mode
	Scope       string
	Period      generic.Period
	GeneratedAt time.Time

	Sites     []staffing.Ranked // every site, ranked
	Pareto    []staffing.Ranked // flagged sites
	Selected  []staffing.Ranked // sites chosen for the detail section
	Customers []staffing.Ranked // region mode only

	// SelectionRequired is set when the Pareto set is too large to
	// auto-select and no explicit selection was given.
	SelectionRequired bool

	Overall         staffing.Summary
	ParetoSummary   staffing.Summary
	SelectedSummary staffing.Summary

	Normalization        overtime.NormalizeStats
	UnknownJurisdictions []generic.Jurisdiction
}

// =============================================================================
// SERVICE
// =============================================================================

// Service runs reports. It is safe for concurrent use; each Run works on
// its own rows and results.
type Service struct {
	source generic.ShiftSource
	runs   generic.RunStore
	rules  overtime.Rules
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a report service. runs may be nil to skip the audit log;
// logger may be nil for slog.Default().
func NewService(source generic.ShiftSource, runs generic.RunStore, rules overtime.Rules, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		runs:   runs,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// Rules returns the rule set the service computes with.
func (s *Service) Rules() overtime.Rules {
	return s.rules
}

// Run loads rows for the request's scope and period and builds the report.
// Every attempt past request validation is recorded in the run store.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	scope, err := req.Scope()
	if err != nil {
		return nil, err
	}
	if req.Period.End.Before(req.Period.Start) || req.Period.Start.IsZero() {
		return nil, generic.ErrInvalidPeriod
	}

	started := s.now()
	run := generic.ReportRun{
		ID:        uuid.NewString(),
		Mode:      string(req.Mode),
		Scope:     scope.String(),
		Period:    req.Period,
		Trigger:   req.Trigger,
		StartedAt: started,
	}
	if run.Trigger == "" {
		run.Trigger = "api"
	}
	log := s.logger.With("run_id", run.ID, "mode", req.Mode, "scope", run.Scope, "period", req.Period.String())

	rep, err := s.build(ctx, log, scope, req)
	run.Duration = s.now().Sub(started)
	metrics.ReportDurationSeconds.Observe(run.Duration.Seconds())

	if err != nil {
		run.Status = generic.RunFailed
		run.Error = err.Error()
		metrics.ReportsTotal.WithLabelValues(string(req.Mode), string(generic.RunFailed)).Inc()
		log.Warn("report failed", "error", err)
		s.record(ctx, log, run)
		return nil, err
	}

	rep.RunID = run.ID
	rep.GeneratedAt = started
	run.Status = generic.RunSucceeded
	run.SiteCount = len(rep.Sites)
	run.ParetoSites = len(rep.Pareto)
	run.TotalHours = rep.Overall.TotalHours
	run.TotalOT = rep.Overall.TotalOT

	metrics.ReportsTotal.WithLabelValues(string(req.Mode), string(generic.RunSucceeded)).Inc()
	metrics.TotalOTHours.WithLabelValues(run.Scope).Set(rep.Overall.TotalOT.Float64())
	metrics.ParetoSites.WithLabelValues(run.Scope).Set(float64(len(rep.Pareto)))

	log.Info("report completed",
		"sites", run.SiteCount,
		"pareto_sites", run.ParetoSites,
		"total_ot_hours", rep.Overall.TotalOT.Round(2).Value.String(),
		"duration", run.Duration)
	s.record(ctx, log, run)
	return rep, nil
}

func (s *Service) record(ctx context.Context, log *slog.Logger, run generic.ReportRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveReportRun(ctx, run); err != nil {
		log.Error("failed to record report run", "error", err)
	}
}

// =============================================================================
// BUILD
// =============================================================================

type siteKey struct {
	location generic.LocationID
	state    generic.Jurisdiction
}

// String renders the key used for a location that appears under more than
// one jurisdiction, e.g. "RENO-1/NV".
func (k siteKey) String() string {
	return string(k.location) + "/" + string(k.state)
}

type siteRows struct {
	site      generic.Site
	records   []generic.ShiftRecord
	names     map[generic.EmployeeID]string
	hireDates map[generic.EmployeeID]generic.TimePoint
}

func (s *Service) build(ctx context.Context, log *slog.Logger, scope generic.Scope, req Request) (*Report, error) {
	rows, err := s.source.LoadShifts(ctx, scope, req.Period)
	if err != nil {
		return nil, fmt.Errorf("loading shifts: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", scope, req.Period, generic.ErrNoData)
	}

	sites, err := s.AllocateSites(log, rows, req.Period)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Mode:                 req.Mode,
		Scope:                scope.String(),
		Period:               req.Period,
		Normalization:        sites.Stats,
		UnknownJurisdictions: sites.Unknown,
	}

	agg := staffing.NewAggregator(s.rules)
	rep.Sites = staffing.Rank(sites.Aggregates, s.rules.ParetoCutoff)
	rep.Pareto = staffing.ParetoSet(rep.Sites)

	selected, required, err := s.selectSites(rep.Pareto, req.SelectedLocations)
	if err != nil {
		return nil, err
	}
	rep.Selected = selected
	rep.SelectionRequired = required

	if req.Mode == ModeRegion {
		rep.Customers = staffing.Rank(agg.ByCustomer(sites.Aggregates), s.rules.ParetoCutoff)
	}

	rep.Overall = agg.Summarize(sites.Aggregates, generic.ZeroHours())
	rep.Overall.ShareOfTotalOT = generic.Percent(rep.Overall.TotalOT, rep.Overall.TotalOT).Value
	rep.ParetoSummary = agg.Summarize(staffing.Aggregates(rep.Pareto), rep.Overall.TotalOT)
	rep.SelectedSummary = agg.Summarize(staffing.Aggregates(rep.Selected), rep.Overall.TotalOT)
	return rep, nil
}

// SiteAllocations is the per-site output of AllocateSites.
type SiteAllocations struct {
	Aggregates []staffing.Aggregate
	Stats      overtime.NormalizeStats
	Unknown    []generic.Jurisdiction
}

// AllocateSites runs normalization, classification, allocation and site
// aggregation over a row set. Employees are allocated separately at each
// site they worked.
func (s *Service) AllocateSites(log *slog.Logger, rows []generic.ShiftRow, period generic.Period) (SiteAllocations, error) {
	if log == nil {
		log = s.logger
	}
	groups := make(map[siteKey]*siteRows)
	for _, row := range rows {
		k := siteKey{location: row.LocationID, state: generic.NormalizeJurisdiction(string(row.State))}
		g, ok := groups[k]
		if !ok {
			site := row.SiteOf()
			site.State = k.state
			g = &siteRows{
				site:      site,
				names:     make(map[generic.EmployeeID]string),
				hireDates: make(map[generic.EmployeeID]generic.TimePoint),
			}
			groups[k] = g
		}
		g.records = append(g.records, row.ShiftRecord)
		if row.EmployeeName != "" {
			g.names[row.EmployeeID] = row.EmployeeName
		}
		if !row.HireDate.IsZero() {
			g.hireDates[row.EmployeeID] = row.HireDate
		}
	}

	keys := make([]siteKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].location != keys[j].location {
			return keys[i].location < keys[j].location
		}
		return keys[i].state < keys[j].state
	})
	statesAt := make(map[generic.LocationID]int, len(keys))
	for _, k := range keys {
		statesAt[k.location]++
	}

	normalizer := &overtime.Normalizer{Logger: log}
	allocator := overtime.NewAllocator(s.rules)
	agg := staffing.NewAggregator(s.rules)
	out := SiteAllocations{Stats: overtime.NormalizeStats{Rejected: make(map[string]int)}}
	unknown := make(map[generic.Jurisdiction]bool)
	weeks := period.Weeks()

	started := time.Now()
	for _, k := range keys {
		g := groups[k]
		if !s.rules.IsKnown(k.state) && !unknown[k.state] {
			unknown[k.state] = true
			out.Unknown = append(out.Unknown, k.state)
			metrics.UnknownJurisdictions.Inc()
			log.Warn("unknown jurisdiction, applying weekly-only rules",
				"location_id", k.location, "state", k.state)
		}
		rs := s.rules.Classify(k.state)

		daily, stats := normalizer.Normalize(g.records)
		mergeStats(&out.Stats, stats)

		employees := make([]staffing.EmployeeResult, 0, len(daily))
		for _, emp := range daily.Employees() {
			alloc, err := allocator.AllocatePeriod(emp, daily.Days(emp), period, rs)
			if err != nil {
				return SiteAllocations{}, fmt.Errorf("site %s: %w", k.location, err)
			}
			res := agg.Employee(alloc, staffing.EmployeeInput{
				Name:     g.names[emp],
				HireDate: g.hireDates[emp],
				Weeks:    weeks,
				AsOf:     period.End,
				Rules:    rs,
			})
			employees = append(employees, res)
		}
		site := agg.Site(g.site, employees)
		if statesAt[k.location] > 1 {
			// Rank and selection keys must stay unique per site.
			site.Key = k.String()
			site.Name = site.Key
			log.Warn("location reported under several jurisdictions",
				"location_id", k.location, "state", k.state, "site_key", site.Key)
		}
		out.Aggregates = append(out.Aggregates, site)
	}
	metrics.AllocationDurationSeconds.Observe(time.Since(started).Seconds())

	metrics.ShiftsNormalized.Add(float64(out.Stats.Shifts))
	metrics.ShiftFallbacks.Add(float64(out.Stats.Fallbacks))
	for reason, n := range out.Stats.Rejected {
		metrics.RecordsRejected.WithLabelValues(reason).Add(float64(n))
	}
	return out, nil
}

func mergeStats(dst *overtime.NormalizeStats, src overtime.NormalizeStats) {
	dst.Shifts += src.Shifts
	dst.Split += src.Split
	dst.Fallbacks += src.Fallbacks
	for k, v := range src.Rejected {
		dst.Rejected[k] += v
	}
}

// selectSites applies the selection rules: an explicit selection is
// intersected with the Pareto set; otherwise the Pareto set is taken whole
// when small enough. Selections match the site key, which is the location ID
// unless the location appears under several jurisdictions.
func (s *Service) selectSites(pareto []staffing.Ranked, selected []generic.LocationID) ([]staffing.Ranked, bool, error) {
	if len(selected) == 0 {
		if len(pareto) <= s.rules.AutoSelectMaxSites {
			return pareto, false, nil
		}
		return nil, true, nil
	}

	want := make(map[generic.LocationID]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	var out []staffing.Ranked
	for _, r := range pareto {
		if want[generic.LocationID(r.Key)] {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		available := make([]generic.LocationID, len(pareto))
		for i, r := range pareto {
			available[i] = generic.LocationID(r.Key)
		}
		return nil, false, &generic.SelectionError{Selected: selected, Available: available}
	}
	return out, false, nil
}

// IsSelectionError reports whether err came from an invalid site selection.
func IsSelectionError(err error) bool {
	var se *generic.SelectionError
	return errors.As(err, &se)
}
