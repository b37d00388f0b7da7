package planning

import "mineplan/internal/core"

// Diff is the set of row changes that turns the stored days of a plan into
// a freshly generated breakdown.
type Diff struct {
	Update []core.DailyPlan
	Insert []core.DailyPlan
	Delete []core.DailyPlan
}

// Reconcile matches stored rows to generated rows by position. Stored rows
// must be in day order. Positions present on both sides keep their row ID
// and take the new values; extra generated days are inserted and surplus
// stored rows are deleted.
func Reconcile(stored, generated []core.DailyPlan) Diff {
	shared := min(len(stored), len(generated))

	var d Diff
	if shared > 0 {
		d.Update = make([]core.DailyPlan, shared)
		for i := 0; i < shared; i++ {
			row := generated[i]
			row.ID = stored[i].ID
			row.MonthlyPlanID = stored[i].MonthlyPlanID
			d.Update[i] = row
		}
	}
	if len(generated) > shared {
		d.Insert = append([]core.DailyPlan(nil), generated[shared:]...)
	}
	if len(stored) > shared {
		d.Delete = append([]core.DailyPlan(nil), stored[shared:]...)
	}
	return d
}

// Empty reports whether the diff changes nothing.
func (d Diff) Empty() bool {
	return len(d.Update) == 0 && len(d.Insert) == 0 && len(d.Delete) == 0
}
