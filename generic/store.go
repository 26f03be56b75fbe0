/*
store.go - Input boundary and persistence interfaces

PURPOSE:
  Defines the interface between the overtime core and whatever fetches its
  rows. The core never queries anything itself: a ShiftSource hands it a
  clean row set for a scope and period, and consumes nothing back.
  Different implementations read SQLite, the Postgres warehouse, or memory.

KEY INTERFACES:
  ShiftSource:  Loads shift rows for a scope + period (read side)
  ShiftSink:    Ingests shift rows (imports, demo scenarios)
  SiteDirectory: Lists known sites with their jurisdiction and customer
  RunStore:     Append-only audit log of report runs

DERIVED DATA IS NEVER STORED:
  Daily hours, per-day allocations and aggregates are recomputed for every
  report. RunStore keeps only run metadata (who/what/when/how big).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Local persistence (shifts, sites, runs)
  - store/postgres/postgres.go: Warehouse ShiftSource over pgx
  - generic/store/memory.go: In-memory for testing

EXAMPLE:
  rows, err := src.LoadShifts(ctx, generic.Scope{Region: "West"}, period)
  if errors.Is(err, generic.ErrScopeRequired) {
      // caller forgot to pick a scope
  }

SEE ALSO:
  - overtime/normalize.go: Consumes ShiftRecord
  - report/service.go: Consumes ShiftSource and RunStore
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// SHIFT ROWS - What the data-fetch layer delivers
// =============================================================================

// ShiftRecord is one worked shift. StartTime/EndTime are raw wall-clock
// strings; Hours is authoritative and only validated at normalization.
type ShiftRecord struct {
	EmployeeID EmployeeID
	WorkDate   TimePoint
	StartTime  string
	EndTime    string
	Hours      float64
}

// ShiftRow is a ShiftRecord tagged with its site, customer and employee context.
type ShiftRow struct {
	ShiftRecord
	LocationID   LocationID
	State        Jurisdiction
	CustomerCode CustomerCode
	CustomerName string
	Region       string
	SiteManager  string
	EmployeeName string
	HireDate     TimePoint // zero when unknown
}

// Site is a row of the site directory.
type Site struct {
	LocationID   LocationID
	State        Jurisdiction
	CustomerCode CustomerCode
	CustomerName string
	Region       string
	SiteManager  string
}

// SiteOf extracts the site attributes of a row.
func (r ShiftRow) SiteOf() Site {
	return Site{
		LocationID:   r.LocationID,
		State:        r.State,
		CustomerCode: r.CustomerCode,
		CustomerName: r.CustomerName,
		Region:       r.Region,
		SiteManager:  r.SiteManager,
	}
}

// =============================================================================
// SHIFT SOURCE - Read side of the input boundary
// =============================================================================

// ShiftSource loads shift rows whose WorkDate falls inside the period.
// Implementations must reject an invalid scope with ErrScopeRequired.
type ShiftSource interface {
	LoadShifts(ctx context.Context, scope Scope, period Period) ([]ShiftRow, error)
}

// ShiftSink stores shift rows. Returns the number written.
type ShiftSink interface {
	SaveShifts(ctx context.Context, rows []ShiftRow) (int, error)
}

// SiteDirectory lists the known sites.
type SiteDirectory interface {
	ListSites(ctx context.Context) ([]Site, error)
}

// =============================================================================
// RUN STORE - Audit log of report runs (append-only)
// =============================================================================

// ReportRun records that a report was computed. It never carries the
// computed report itself.
type ReportRun struct {
	ID          string
	Mode        string
	Scope       string
	Period      Period
	SiteCount   int
	ParetoSites int
	TotalHours  Amount
	TotalOT     Amount
	Status      RunStatus
	Error       string
	Trigger     string // "api", "scheduler"
	StartedAt   time.Time
	Duration    time.Duration
}

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunStore persists report run metadata. Append-only.
type RunStore interface {
	SaveReportRun(ctx context.Context, run ReportRun) error
	ListReportRuns(ctx context.Context, limit int) ([]ReportRun, error)
}
