package sheets

import (
	"testing"

	"mineplan/internal/core"
)

func TestRows(t *testing.T) {
	plan := core.MonthlyPlan{
		PlanDate: core.NewDate(2025, 8, 1),
		Daily: []core.DailyPlan{
			{Date: core.NewDate(2025, 8, 1), IsCalendarDay: true, IsAvailableDay: true, OBTarget: 48387.096774, SRTarget: 2, TotalFleet: 7},
			{Date: core.NewDate(2025, 8, 3), IsCalendarDay: true, IsHolidayDay: true, OreTarget: 24193.548387},
		},
	}

	rows := Rows(plan)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if len(rows[0]) != len(rows[1]) {
		t.Fatalf("header has %d columns, row has %d", len(rows[0]), len(rows[1]))
	}

	tests := []struct {
		row, col int
		want     any
	}{
		{1, 0, "2025-08-01"},
		{1, 2, "N"},
		{1, 3, "Y"},
		{1, 6, "48387.10"},
		{1, 10, "2.00"},
		{1, 17, 7},
		{2, 2, "Y"},
		{2, 7, "24193.55"},
	}
	for _, tt := range tests {
		if got := rows[tt.row][tt.col]; got != tt.want {
			t.Errorf("rows[%d][%d] = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestTabName(t *testing.T) {
	if got := TabName("2025-08"); got != "Plan 2025-08" {
		t.Fatalf("TabName = %q", got)
	}
}
