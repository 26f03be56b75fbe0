/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Holds imported shift rows, the site directory derived from them, and the
  report-run audit log. It is the default ShiftSource when no warehouse DSN
  is configured.

INTERFACES IMPLEMENTED:
  generic.ShiftSource:   Scoped, period-bounded shift reads
  generic.ShiftSink:     Shift imports (upsert)
  generic.SiteDirectory: Distinct sites seen in imported shifts
  generic.RunStore:      Report-run audit log

RE-IMPORTS:
  A shift is keyed by (employee_id, location_id, work_date, start_time, ordinal)
  where ordinal counts earlier rows of the same batch sharing the other four
  columns. Rows without clock times (hours only) therefore never overwrite
  each other, and importing the same sheet twice still replaces rows rather
  than doubling hours.

KEY TABLES:
  shifts:      One row per worked shift
  sites:       Site attributes, last write wins
  report_runs: One row per report attempt

HOURS ENCODING:
  Hours are stored as text so non-finite values survive the round trip and
  are rejected by the normalizer, not silently turned into NULL.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The warehouse (store/postgres) relies
  on database-level concurrency control instead.

USAGE:
  store, err := sqlite.New("./data/nbot.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := report.NewService(store, store, rules, logger)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - store/postgres: Read-only warehouse source
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/nbot-engine/generic"
)

// Fixed-width so started_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"


// Store implements the shift and run storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shifts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		hours TEXT NOT NULL,
		location_id TEXT NOT NULL,
		state TEXT NOT NULL,
		customer_code TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		site_manager TEXT NOT NULL DEFAULT '',
		employee_name TEXT NOT NULL DEFAULT '',
		hire_date TEXT NOT NULL DEFAULT '',
		ordinal INTEGER NOT NULL DEFAULT 0
	);

	-- Scope lookups, each bounded by work_date
	CREATE INDEX IF NOT EXISTS idx_shifts_customer_date
		ON shifts(customer_code, work_date);
	CREATE INDEX IF NOT EXISTS idx_shifts_region_date
		ON shifts(region, work_date);
	CREATE INDEX IF NOT EXISTS idx_shifts_location_date
		ON shifts(location_id, work_date);

	CREATE TABLE IF NOT EXISTS sites (
		location_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		customer_code TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		site_manager TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		scope TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		site_count INTEGER NOT NULL DEFAULT 0,
		pareto_sites INTEGER NOT NULL DEFAULT 0,
		total_hours TEXT NOT NULL DEFAULT '0',
		total_ot TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		trigger_source TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_report_runs_started
		ON report_runs(started_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before ordinal existed carry the four-column index.
	if err := s.ensureColumn("shifts", "ordinal", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	_, err := s.db.Exec(`
	DROP INDEX IF EXISTS idx_shifts_identity;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_identity_ordinal
		ON shifts(employee_id, location_id, work_date, start_time, ordinal);
	`)
	return err
}

func (s *Store) ensureColumn(table, column, decl string) error {
	rows, err := s.db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	_, err = s.db.Exec("ALTER TABLE " + table + " ADD COLUMN " + column + " " + decl)
	return err
}

// =============================================================================
// SHIFTS
// =============================================================================

// SaveShifts upserts shift rows and their sites in one transaction.
func (s *Store) SaveShifts(ctx context.Context, rows []generic.ShiftRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	shiftStmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO shifts (employee_id, work_date, start_time, end_time, hours,
			location_id, state, customer_code, customer_name, region, site_manager,
			employee_name, hire_date, ordinal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, location_id, work_date, start_time, ordinal) DO UPDATE SET
			end_time = excluded.end_time,
			hours = excluded.hours,
			state = excluded.state,
			customer_code = excluded.customer_code,
			customer_name = excluded.customer_name,
			region = excluded.region,
			site_manager = excluded.site_manager,
			employee_name = excluded.employee_name,
			hire_date = excluded.hire_date
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare shift insert: %w", err)
	}
	defer shiftStmt.Close()

	siteStmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO sites (location_id, state, customer_code, customer_name, region, site_manager, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id) DO UPDATE SET
			state = excluded.state,
			customer_code = excluded.customer_code,
			customer_name = excluded.customer_name,
			region = excluded.region,
			site_manager = excluded.site_manager,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare site insert: %w", err)
	}
	defer siteStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	seen := make(map[shiftKey]int)
	for _, r := range rows {
		key := shiftKey{r.EmployeeID, r.LocationID, r.WorkDate.String(), r.StartTime}
		ordinal := seen[key]
		seen[key]++

		_, err := shiftStmt.ExecContext(ctx,
			string(r.EmployeeID),
			r.WorkDate.String(),
			r.StartTime,
			r.EndTime,
			strconv.FormatFloat(r.Hours, 'f', -1, 64),
			string(r.LocationID),
			string(generic.NormalizeJurisdiction(string(r.State))),
			string(r.CustomerCode),
			r.CustomerName,
			r.Region,
			r.SiteManager,
			r.EmployeeName,
			formatOptionalDate(r.HireDate),
			ordinal,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save shift for %s on %s: %w", r.EmployeeID, r.WorkDate, err)
		}

		site := r.SiteOf()
		_, err = siteStmt.ExecContext(ctx,
			string(site.LocationID),
			string(generic.NormalizeJurisdiction(string(site.State))),
			string(site.CustomerCode),
			site.CustomerName,
			site.Region,
			site.SiteManager,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save site %s: %w", site.LocationID, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// LoadShifts returns rows in scope whose work_date falls inside the period,
// ordered by date.
func (s *Store) LoadShifts(ctx context.Context, scope generic.Scope, period generic.Period) ([]generic.ShiftRow, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := scopeClause(scope)
	args = append(args, period.Start.String(), period.End.String())
	query := `
		SELECT employee_id, work_date, start_time, end_time, hours, location_id, state,
			customer_code, customer_name, region, site_manager, employee_name, hire_date
		FROM shifts
		WHERE ` + where + ` AND work_date BETWEEN ? AND ?
		ORDER BY work_date, location_id, employee_id, start_time, ordinal`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var out []generic.ShiftRow
	for rows.Next() {
		row, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scopeClause(scope generic.Scope) (string, []any) {
	switch {
	case scope.CustomerCode != "":
		return "customer_code = ?", []any{string(scope.CustomerCode)}
	case scope.Region != "":
		return "region = ?", []any{scope.Region}
	default:
		marks := make([]string, len(scope.LocationIDs))
		args := make([]any, len(scope.LocationIDs))
		for i, id := range scope.LocationIDs {
			marks[i] = "?"
			args[i] = string(id)
		}
		return "location_id IN (" + strings.Join(marks, ", ") + ")", args
	}
}

func scanShift(rows *sql.Rows) (generic.ShiftRow, error) {
	var (
		r                       generic.ShiftRow
		workDate, hours, hireDt string
		employeeID, locationID  string
		state, customerCode     string
	)
	err := rows.Scan(
		&employeeID, &workDate, &r.StartTime, &r.EndTime, &hours, &locationID, &state,
		&customerCode, &r.CustomerName, &r.Region, &r.SiteManager, &r.EmployeeName, &hireDt,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan shift: %w", err)
	}

	r.EmployeeID = generic.EmployeeID(employeeID)
	r.LocationID = generic.LocationID(locationID)
	r.State = generic.Jurisdiction(state)
	r.CustomerCode = generic.CustomerCode(customerCode)
	if r.WorkDate, err = generic.ParseDate(workDate); err != nil {
		return r, fmt.Errorf("bad work_date %q: %w", workDate, err)
	}
	if r.Hours, err = strconv.ParseFloat(hours, 64); err != nil {
		return r, fmt.Errorf("bad hours %q: %w", hours, err)
	}
	if hireDt != "" {
		r.HireDate, _ = generic.ParseDate(hireDt)
	}
	return r, nil
}

// ListSites returns every site seen in imported shifts, ordered by location.
func (s *Store) ListSites(ctx context.Context) ([]generic.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT location_id, state, customer_code, customer_name, region, site_manager
		FROM sites ORDER BY location_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	var sites []generic.Site
	for rows.Next() {
		var site generic.Site
		var loc, state, customer string
		if err := rows.Scan(&loc, &state, &customer, &site.CustomerName, &site.Region, &site.SiteManager); err != nil {
			return nil, err
		}
		site.LocationID = generic.LocationID(loc)
		site.State = generic.Jurisdiction(state)
		site.CustomerCode = generic.CustomerCode(customer)
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// =============================================================================
// REPORT RUNS
// =============================================================================

// SaveReportRun records a report attempt.
func (s *Store) SaveReportRun(ctx context.Context, run generic.ReportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_runs (id, mode, scope, period_start, period_end, site_count,
			pareto_sites, total_hours, total_ot, status, error, trigger_source, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Mode,
		run.Scope,
		run.Period.Start.String(),
		run.Period.End.String(),
		run.SiteCount,
		run.ParetoSites,
		amountString(run.TotalHours),
		amountString(run.TotalOT),
		string(run.Status),
		run.Error,
		run.Trigger,
		run.StartedAt.UTC().Format(timestampLayout),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report run: %w", err)
	}
	return nil
}

// ListReportRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListReportRuns(ctx context.Context, limit int) ([]generic.ReportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, mode, scope, period_start, period_end, site_count, pareto_sites,
			total_hours, total_ot, status, error, trigger_source, started_at, duration_ms
		FROM report_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer rows.Close()

	var runs []generic.ReportRun
	for rows.Next() {
		var (
			run                   generic.ReportRun
			start, end, startedAt string
			hours, ot, status     string
			durationMs            int64
		)
		err := rows.Scan(&run.ID, &run.Mode, &run.Scope, &start, &end, &run.SiteCount, &run.ParetoSites,
			&hours, &ot, &status, &run.Error, &run.Trigger, &startedAt, &durationMs)
		if err != nil {
			return nil, err
		}
		run.Period.Start, _ = generic.ParseDate(start)
		run.Period.End, _ = generic.ParseDate(end)
		run.TotalHours = parseAmount(hours)
		run.TotalOT = parseAmount(ot)
		run.Status = generic.RunStatus(status)
		run.StartedAt, _ = time.Parse(timestampLayout, startedAt)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset removes imported shifts and sites. The run log is kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"shifts", "sites"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// shiftKey is the row identity without its ordinal.
type shiftKey struct {
	employee  generic.EmployeeID
	location  generic.LocationID
	workDate  string
	startTime string
}

func formatOptionalDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}

func amountString(a generic.Amount) string {
	return a.Value.String()
}

func parseAmount(s string) generic.Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return generic.ZeroHours()
	}
	return generic.Amount{Value: d, Unit: generic.UnitHours}
}
