package storage

import (
	"context"

	"mineplan/internal/core"
)

// Ports for plan persistence. Lookups that find nothing return an error
// wrapping core.ErrNotFound; driver failures wrap core.ErrStorage.
type (
	PlanReader interface {
		FindMonthlyByID(ctx context.Context, id int64) (core.MonthlyPlan, error)
		// FindMonthlyByPeriod matches on year and month only.
		FindMonthlyByPeriod(ctx context.Context, period string) (core.MonthlyPlan, error)
		// FindMonthlyByPlanDate matches the stored plan date exactly.
		FindMonthlyByPlanDate(ctx context.Context, date core.Date) (core.MonthlyPlan, error)
		ListMonthly(ctx context.Context, q core.ListQuery) ([]core.MonthlyPlan, int, error)

		// ListDaily returns a plan's days ordered by date.
		ListDaily(ctx context.Context, monthlyID int64) ([]core.DailyPlan, error)
		FindDailyByDate(ctx context.Context, date core.Date) (core.DailyPlan, error)
		// FindLatestDailyBefore returns the most recent day strictly before date.
		FindLatestDailyBefore(ctx context.Context, date core.Date) (core.DailyPlan, error)
	}

	PlanWriter interface {
		// SaveMonthly inserts when p.ID is zero and updates otherwise. A
		// second plan for the same month fails with core.ErrDuplicatePeriod.
		SaveMonthly(ctx context.Context, p *core.MonthlyPlan) error
		// SaveDailyBatch inserts rows with a zero ID and updates the rest,
		// returning the rows with their IDs set.
		SaveDailyBatch(ctx context.Context, rows []core.DailyPlan) ([]core.DailyPlan, error)
		DeleteDailyBatch(ctx context.Context, rows []core.DailyPlan) error
		DeleteMonthly(ctx context.Context, id int64) error
	}

	PlanTx interface {
		PlanReader
		PlanWriter
	}

	// PlanStore commits every write made inside fn atomically, or none of
	// them when fn returns an error.
	PlanStore interface {
		PlanReader
		WithTx(ctx context.Context, fn func(tx PlanTx) error) error
	}
)
