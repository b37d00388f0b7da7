package sheets

import (
	"context"

	"mineplan/internal/core"
)

// Ports for outbound adapters.
type (
	// PlanExporter mirrors a month's daily breakdown to an external sheet.
	PlanExporter interface {
		// ExportMonth replaces the month tab with plan.Daily.
		ExportMonth(ctx context.Context, plan core.MonthlyPlan) error
		// ClearMonth empties the tab of period (YYYY-MM). A missing tab is not an error.
		ClearMonth(ctx context.Context, period string) error
	}
)
