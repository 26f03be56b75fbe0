package importer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/importer"
)

const header = "employee_id,work_date,start,end,hours,location_id,state,customer_code,customer_name,region,site_manager,employee_name,hire_date\n"

func TestParse_CSV(t *testing.T) {
	input := header +
		"E1,2025-01-06,06:00a,02:00p,8,LA-1,ca,ACME,Acme Corp,West,Kim,Pat Doe,2024-11-01\n" +
		"E2,1/7/2025,10:00p,06:00a,8,LA-1,CA,ACME,Acme Corp,West,Kim,Sam Roe,\n"

	res, err := importer.Parse(strings.NewReader(input), "shifts.csv")
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 2)

	first := res.Rows[0]
	assert.Equal(t, generic.EmployeeID("E1"), first.EmployeeID)
	assert.True(t, first.WorkDate.Equal(generic.NewTimePoint(2025, time.January, 6)))
	assert.Equal(t, "06:00a", first.StartTime)
	assert.Equal(t, 8.0, first.Hours)
	assert.Equal(t, generic.Jurisdiction("CA"), first.State)
	assert.Equal(t, generic.CustomerCode("ACME"), first.CustomerCode)
	assert.Equal(t, "West", first.Region)
	assert.True(t, first.HireDate.Equal(generic.NewTimePoint(2024, time.November, 1)))

	second := res.Rows[1]
	assert.True(t, second.WorkDate.Equal(generic.NewTimePoint(2025, time.January, 7)))
	assert.True(t, second.HireDate.IsZero())
}

func TestParse_DerivesHoursFromClock(t *testing.T) {
	input := "employee_id,work_date,start_time,end_time,location_id,state\n" +
		"E1,2025-01-06,10:00p,06:30a,LA-1,CA\n"

	res, err := importer.Parse(strings.NewReader(input), "shifts.csv")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 8.5, res.Rows[0].Hours)
}

func TestParse_CollectsRowErrors(t *testing.T) {
	// GIVEN: A sheet with one good row and three bad ones
	// WHEN: Importing
	// THEN: The good row is kept; each bad row is reported with its line

	input := header +
		"E1,2025-01-06,06:00a,02:00p,8,LA-1,CA,,,,,,\n" +
		"E2,not-a-date,06:00a,02:00p,8,LA-1,CA,,,,,,\n" +
		"E3,2025-01-06,06:00a,02:00p,eight,LA-1,CA,,,,,,\n" +
		",2025-01-06,06:00a,02:00p,8,LA-1,CA,,,,,,\n" +
		",,,,,,,,,,,,\n"

	res, err := importer.Parse(strings.NewReader(input), "shifts.csv")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
	require.Len(t, res.Errors, 3)

	assert.Equal(t, 3, res.Errors[0].Line)
	assert.ErrorIs(t, res.Errors[0], importer.ErrInvalidDate)
	assert.Equal(t, 4, res.Errors[1].Line)
	assert.ErrorIs(t, res.Errors[1], importer.ErrInvalidHours)
	assert.Equal(t, 5, res.Errors[2].Line)
	assert.ErrorIs(t, res.Errors[2], importer.ErrMissingField)
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := importer.Parse(strings.NewReader("employee_id,work_date,hours\nE1,2025-01-06,8\n"), "shifts.csv")
	assert.ErrorIs(t, err, importer.ErrMissingColumn)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := importer.Parse(strings.NewReader("{}"), "shifts.json")
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{"Employee ID", "Work Date", "Start", "End", "Hours", "Location ID", "State", "Customer Code"},
		{"E1", "2025-01-06", "06:00a", "02:00p", 12, "DAL-1", "TX", "BETA"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := importer.Parse(bytes.NewReader(buf.Bytes()), "upload.xlsx")
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 12.0, res.Rows[0].Hours)
	assert.Equal(t, generic.LocationID("DAL-1"), res.Rows[0].LocationID)
	assert.Equal(t, generic.CustomerCode("BETA"), res.Rows[0].CustomerCode)
}
