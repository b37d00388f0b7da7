package memory

import (
	"context"
	"testing"

	"mineplan/internal/core"
)

func TestExporter(t *testing.T) {
	ctx := context.Background()
	e := New()

	plan := core.MonthlyPlan{
		PlanDate: core.NewDate(2025, 8, 21),
		Daily:    []core.DailyPlan{{Date: core.NewDate(2025, 8, 1)}, {Date: core.NewDate(2025, 8, 2)}},
	}
	if err := e.ExportMonth(ctx, plan); err != nil {
		t.Fatalf("ExportMonth: %v", err)
	}
	rows, ok := e.Tab("2025-08")
	if !ok || len(rows) != 3 {
		t.Fatalf("Tab = %d rows, %v", len(rows), ok)
	}

	if err := e.ClearMonth(ctx, "2025-08"); err != nil {
		t.Fatalf("ClearMonth: %v", err)
	}
	rows, ok = e.Tab("2025-08")
	if !ok || len(rows) != 0 {
		t.Fatalf("after clear: %d rows, %v", len(rows), ok)
	}

	if err := e.ClearMonth(ctx, "2030-01"); err != nil {
		t.Fatalf("ClearMonth unknown: %v", err)
	}
	if _, ok := e.Tab("2030-01"); ok {
		t.Fatal("clear must not create a tab")
	}

	exports, clears := e.Calls()
	if exports != 1 || clears != 2 {
		t.Fatalf("Calls = %d, %d", exports, clears)
	}
}
