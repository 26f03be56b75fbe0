// Package importer reads shift sheets (CSV, XLSX, legacy XLS) into shift rows.
//
// The first row is the header. Columns are matched by name, case-insensitive:
//
//	employee_id, work_date, start, end, hours, location_id, state,
//	customer_code, customer_name, region, site_manager, employee_name, hire_date
//
// employee_id, work_date, location_id and state are required. hours may be
// blank when start and end parse; it is then derived from the clock span.
// Rows that fail to parse are reported individually and skipped.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/metrics"
)

// maxXLSRows bounds how many cells the legacy XLS reader walks.
const maxXLSRows = 100000

// Result is the outcome of an import: the rows that parsed and the ones that did not.
type Result struct {
	Rows   []generic.ShiftRow
	Errors []*ParseError
}

// Parse reads a sheet and converts it to shift rows. The format is chosen
// from the filename extension (.csv, .xlsx, .xls). A missing header column
// fails the whole import; row-level problems are collected in Result.Errors.
func Parse(r io.Reader, filename string) (Result, error) {
	rows, err := ReadRows(r, filename)
	if err != nil {
		return Result{}, err
	}
	return ParseRows(rows)
}

// ReadRows returns the raw cells of the first (only) sheet.
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", "":
		reader := csv.NewReader(r)
		reader.TrimLeadingSpace = true
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if len(rows) == 0 {
			return nil, ErrEmptySheet
		}
		return rows, nil
	case ".xls":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("opening xls: %w", err)
		}
		if workbook.NumSheets() == 0 {
			return nil, ErrEmptySheet
		}
		if workbook.NumSheets() > 1 {
			return nil, ErrMultipleSheets
		}
		rows := workbook.ReadAllCells(maxXLSRows)
		if len(rows) == 0 {
			return nil, ErrEmptySheet
		}
		return rows, nil
	case ".xlsx", ".xlsm":
		file, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening xlsx: %w", err)
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, ErrEmptySheet
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrEmptySheet
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// =============================================================================
// ROW CONVERSION
// =============================================================================

var requiredColumns = []string{"employee_id", "work_date", "location_id", "state"}

// columnAliases maps accepted header spellings to canonical names.
var columnAliases = map[string]string{
	"start_time":      "start",
	"end_time":        "end",
	"scheduled_hours": "hours",
	"site_id":         "location_id",
	"location":        "location_id",
	"jurisdiction":    "state",
}

// ParseRows converts raw cells (header first) into shift rows.
func ParseRows(rows [][]string) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrEmptySheet
	}
	cols := headerIndex(rows[0])
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var res Result
	for i, record := range rows[1:] {
		line := i + 2
		if blank(record) {
			continue
		}
		row, err := parseRecord(cols, record)
		if err != nil {
			pe := &ParseError{Line: line, Record: record, Err: err}
			res.Errors = append(res.Errors, pe)
			metrics.ImporterErrorsTotal.WithLabelValues(errorType(err)).Inc()
			continue
		}
		res.Rows = append(res.Rows, row)
		metrics.ImporterRowsTotal.Inc()
	}
	return res, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		name = strings.ReplaceAll(name, " ", "_")
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func parseRecord(cols map[string]int, record []string) (generic.ShiftRow, error) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var row generic.ShiftRow
	for _, c := range requiredColumns {
		if get(c) == "" {
			return row, fmt.Errorf("%w: %s", ErrMissingField, c)
		}
	}

	workDate, err := parseDate(get("work_date"))
	if err != nil {
		return row, fmt.Errorf("%w: work_date %q", ErrInvalidDate, get("work_date"))
	}

	row.EmployeeID = generic.EmployeeID(get("employee_id"))
	row.WorkDate = workDate
	row.StartTime = get("start")
	row.EndTime = get("end")
	row.LocationID = generic.LocationID(get("location_id"))
	row.State = generic.NormalizeJurisdiction(get("state"))
	row.CustomerCode = generic.CustomerCode(get("customer_code"))
	row.CustomerName = get("customer_name")
	row.Region = get("region")
	row.SiteManager = get("site_manager")
	row.EmployeeName = get("employee_name")

	if raw := get("hire_date"); raw != "" {
		hire, err := parseDate(raw)
		if err != nil {
			return row, fmt.Errorf("%w: hire_date %q", ErrInvalidDate, raw)
		}
		row.HireDate = hire
	}

	hours, err := parseHours(get("hours"), row.StartTime, row.EndTime)
	if err != nil {
		return row, err
	}
	row.Hours = hours
	return row, nil
}

// parseHours reads the hours cell, or derives hours from start/end when blank.
// Negative and non-finite values pass through; the normalizer rejects them.
func parseHours(raw, start, end string) (float64, error) {
	if raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidHours, raw)
		}
		return h, nil
	}
	s, errS := generic.ParseClock(start)
	e, errE := generic.ParseClock(end)
	if errS != nil || errE != nil {
		return 0, fmt.Errorf("%w: blank hours and unparsable start/end", ErrInvalidHours)
	}
	minutes := e.Minutes() - s.Minutes()
	if minutes <= 0 {
		minutes += 24 * 60
	}
	return float64(minutes) / 60, nil
}

var dateFormats = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func parseDate(value string) (generic.TimePoint, error) {
	// Excel numeric date serial (common in XLS/XLSX exports).
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return generic.DayOf(parsed), nil
			}
		}
		return generic.TimePoint{}, ErrInvalidDate
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return generic.DayOf(t), nil
		}
	}
	return generic.TimePoint{}, ErrInvalidDate
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
