// Package postgres reads shift rows from the analytical warehouse table.
//
// The warehouse is read-only from this service's point of view: it only
// implements generic.ShiftSource. Imports and the run log stay in SQLite.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/nbot-engine/generic"
)

// DefaultTable is the warehouse table holding one row per worked shift.
const DefaultTable = "nbot_shifts"

// Config selects the warehouse and table. Table may be schema-qualified
// ("analytics.nbot_shifts").
type Config struct {
	DSN      string
	Table    string
	MaxConns int32
	MinConns int32
}

// Querier is the subset of pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source is a generic.ShiftSource over the warehouse table.
type Source struct {
	db    Querier
	pool  *pgxpool.Pool
	table string
}

// Open connects to the warehouse and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Source, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse warehouse dsn: %w", err)
	}

	pcfg.MaxConns = 25
	pcfg.MinConns = 5
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect warehouse: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	src := New(pool, cfg.Table)
	src.pool = pool
	return src, nil
}

// New wraps an existing connection. An empty table means DefaultTable.
func New(db Querier, table string) *Source {
	if table == "" {
		table = DefaultTable
	}
	return &Source{db: db, table: table}
}

// Close releases the pool when the source owns one.
func (s *Source) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadShifts implements generic.ShiftSource.
func (s *Source) LoadShifts(ctx context.Context, scope generic.Scope, period generic.Period) ([]generic.ShiftRow, error) {
	query, args, err := BuildQuery(s.table, scope, period)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query warehouse: %w", err)
	}
	defer rows.Close()

	var out []generic.ShiftRow
	for rows.Next() {
		var (
			r                      generic.ShiftRow
			employeeID, locationID string
			state, customerCode    string
			workDate               time.Time
			hireDate               *time.Time
		)
		err := rows.Scan(
			&employeeID, &workDate, &r.StartTime, &r.EndTime, &r.Hours, &locationID, &state,
			&customerCode, &r.CustomerName, &r.Region, &r.SiteManager, &r.EmployeeName, &hireDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse row: %w", err)
		}
		r.EmployeeID = generic.EmployeeID(employeeID)
		r.WorkDate = generic.DayOf(workDate)
		r.LocationID = generic.LocationID(locationID)
		r.State = generic.NormalizeJurisdiction(state)
		r.CustomerCode = generic.CustomerCode(customerCode)
		if hireDate != nil {
			r.HireDate = generic.DayOf(*hireDate)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read warehouse rows: %w", err)
	}
	return out, nil
}

// BuildQuery renders the scoped, period-bounded SELECT for a table.
func BuildQuery(table string, scope generic.Scope, period generic.Period) (string, []any, error) {
	if err := scope.Validate(); err != nil {
		return "", nil, err
	}
	if period.End.Before(period.Start) {
		return "", nil, generic.ErrInvalidPeriod
	}

	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()

	var filter string
	var arg any
	switch {
	case scope.CustomerCode != "":
		filter, arg = "customer_code = $1", string(scope.CustomerCode)
	case scope.Region != "":
		filter, arg = "region = $1", scope.Region
	default:
		ids := make([]string, len(scope.LocationIDs))
		for i, id := range scope.LocationIDs {
			ids[i] = string(id)
		}
		filter, arg = "location_id = ANY($1)", ids
	}

	query := `SELECT employee_id, work_date,
		COALESCE(start_time, ''), COALESCE(end_time, ''), hours::float8,
		location_id, state,
		COALESCE(customer_code, ''), COALESCE(customer_name, ''), COALESCE(region, ''),
		COALESCE(site_manager, ''), COALESCE(employee_name, ''), hire_date
	FROM ` + ident + `
	WHERE ` + filter + ` AND work_date BETWEEN $2 AND $3
	ORDER BY work_date, location_id, employee_id`

	return query, []any{arg, period.Start.Time, period.End.Time}, nil
}
