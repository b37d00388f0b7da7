package memory

import (
	"context"
	"sync"

	"mineplan/internal/core"
	"mineplan/internal/sheets"
)

// Exporter keeps month tabs in memory. It backs tests and local runs
// without a spreadsheet.
type Exporter struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	exports int
	clears  int
}

var _ sheets.PlanExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{tabs: make(map[string][][]any)}
}

// ExportMonth replaces the rows of the plan's month tab.
func (e *Exporter) ExportMonth(_ context.Context, plan core.MonthlyPlan) error {
	rows := sheets.Rows(plan)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tabs[sheets.TabName(plan.Period())] = rows
	e.exports++
	return nil
}

// ClearMonth empties the tab of period, keeping the tab itself.
func (e *Exporter) ClearMonth(_ context.Context, period string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab := sheets.TabName(period)
	if _, ok := e.tabs[tab]; ok {
		e.tabs[tab] = nil
	}
	e.clears++
	return nil
}

// Tab returns a copy of the rows stored for period.
func (e *Exporter) Tab(period string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.tabs[sheets.TabName(period)]
	return append([][]any(nil), rows...), ok
}

// Calls reports how many exports and clears were made.
func (e *Exporter) Calls() (exports, clears int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports, e.clears
}
