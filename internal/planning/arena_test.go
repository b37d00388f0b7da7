package planning

import (
	"testing"

	"mineplan/internal/core"
)

func storedRows(parentID int64, first core.Date, n int) []core.DailyPlan {
	rows := make([]core.DailyPlan, n)
	for i := range rows {
		rows[i] = core.DailyPlan{ID: int64(100 + i), MonthlyPlanID: parentID, Date: first.AddDays(i)}
	}
	return rows
}

func generatedRows(first core.Date, n int) []core.DailyPlan {
	rows := make([]core.DailyPlan, n)
	for i := range rows {
		rows[i] = core.DailyPlan{Date: first.AddDays(i), OBTarget: float64(i)}
	}
	return rows
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name                   string
		stored, generated      int
		update, insert, delete int
	}{
		{"same length", 31, 31, 31, 0, 0},
		{"shrink into february", 31, 28, 28, 0, 3},
		{"grow out of february", 28, 31, 28, 3, 0},
		{"no stored rows", 0, 30, 0, 30, 0},
		{"nothing generated", 30, 0, 0, 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := storedRows(9, core.NewDate(2025, 1, 1), tt.stored)
			generated := generatedRows(core.NewDate(2025, 2, 1), tt.generated)

			d := Reconcile(stored, generated)
			if len(d.Update) != tt.update || len(d.Insert) != tt.insert || len(d.Delete) != tt.delete {
				t.Fatalf("got update=%d insert=%d delete=%d", len(d.Update), len(d.Insert), len(d.Delete))
			}
			for i, row := range d.Update {
				if row.ID != stored[i].ID || row.MonthlyPlanID != 9 {
					t.Fatalf("update %d lost its identity: %+v", i, row)
				}
				if !row.Date.Equal(generated[i].Date.Time) || row.OBTarget != float64(i) {
					t.Fatalf("update %d did not take new values: %+v", i, row)
				}
			}
			for _, row := range d.Insert {
				if row.ID != 0 {
					t.Fatalf("insert carries an ID: %+v", row)
				}
			}
			for i, row := range d.Delete {
				if row.ID != stored[tt.update+i].ID {
					t.Fatalf("delete %d targets wrong row: %+v", i, row)
				}
			}
		})
	}
}

func TestReconcileDoesNotAliasInput(t *testing.T) {
	stored := storedRows(1, core.NewDate(2025, 1, 1), 2)
	generated := generatedRows(core.NewDate(2025, 1, 1), 3)

	d := Reconcile(stored, generated)
	d.Insert[0].OBTarget = -1
	d.Update[0].OBTarget = -1
	if generated[2].OBTarget == -1 || generated[0].OBTarget == -1 {
		t.Fatal("diff shares memory with the generated slice")
	}
	if (Diff{}).Empty() != true || d.Empty() {
		t.Fatal("Empty mismatch")
	}
}
