// Package store provides in-memory store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/nbot-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	rows  []generic.ShiftRow // ordered by WorkDate
	sites map[generic.LocationID]generic.Site
	runs  []generic.ReportRun
}

func NewMemory() *Memory {
	return &Memory{
		sites: make(map[generic.LocationID]generic.Site),
	}
}

// SaveShifts adds rows and registers their sites.
func (m *Memory) SaveShifts(_ context.Context, rows []generic.ShiftRow) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		m.insertLocked(row)
		m.sites[row.LocationID] = row.SiteOf()
	}
	return len(rows), nil
}

func (m *Memory) insertLocked(row generic.ShiftRow) {
	// Binary search keeps rows date-ordered without re-sorting
	i := sort.Search(len(m.rows), func(i int) bool {
		return m.rows[i].WorkDate.After(row.WorkDate)
	})
	m.rows = append(m.rows, generic.ShiftRow{})
	copy(m.rows[i+1:], m.rows[i:])
	m.rows[i] = row
}

// LoadShifts returns rows matching the scope with WorkDate inside the period.
func (m *Memory) LoadShifts(_ context.Context, scope generic.Scope, period generic.Period) ([]generic.ShiftRow, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.ShiftRow
	for _, row := range m.rows {
		if !period.Contains(row.WorkDate) {
			continue
		}
		if scope.Matches(row.CustomerCode, row.Region, row.LocationID) {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *Memory) ListSites(_ context.Context) ([]generic.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Site, 0, len(m.sites))
	for _, s := range m.sites {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LocationID < result[j].LocationID })
	return result, nil
}

// SaveReportRun appends a run record. Append-only.
func (m *Memory) SaveReportRun(_ context.Context, run generic.ReportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// ListReportRuns returns the most recent runs first.
func (m *Memory) ListReportRuns(_ context.Context, limit int) ([]generic.ReportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.ReportRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, m.runs[i])
	}
	return result, nil
}

// Reset drops all shift rows and sites. Runs are kept.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	m.sites = make(map[generic.LocationID]generic.Site)
	return nil
}
