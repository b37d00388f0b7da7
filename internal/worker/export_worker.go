package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mineplan/internal/amqp"
	"mineplan/internal/core"
	"mineplan/internal/sheets"
	"mineplan/internal/storage"
)

// ExportWorker mirrors monthly plans from the store to a spreadsheet.
type ExportWorker struct {
	store     storage.PlanReader
	exporter  sheets.PlanExporter
	batchSize int
	now       func() time.Time
}

func NewExportWorker(store storage.PlanReader, exporter sheets.PlanExporter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = core.MaxPageLimit
	}
	return &ExportWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandlePlanEvent processes a single plan event from AMQP. Created and
// updated plans are re-read from the store and exported; deleted plans have
// their tab cleared.
func (w *ExportWorker) HandlePlanEvent(ctx context.Context, msg *amqp.PlanEventMessage) error {
	slog.InfoContext(ctx, "Processing plan event",
		"plan_id", msg.PlanID,
		"action", msg.Action,
		"period", msg.Period)

	switch msg.Action {
	case amqp.PlanDeleted:
		if err := w.exporter.ClearMonth(ctx, msg.Period); err != nil {
			return fmt.Errorf("clear month %s: %w", msg.Period, err)
		}
		return nil

	case amqp.PlanCreated, amqp.PlanUpdated:
		if msg.PreviousPeriod != "" && msg.PreviousPeriod != msg.Period {
			if err := w.exporter.ClearMonth(ctx, msg.PreviousPeriod); err != nil {
				return fmt.Errorf("clear month %s: %w", msg.PreviousPeriod, err)
			}
		}

		plan, err := w.store.FindMonthlyByID(ctx, msg.PlanID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got here; its delete event clears the tab.
			slog.WarnContext(ctx, "Plan no longer exists, skipping export",
				"plan_id", msg.PlanID,
				"period", msg.Period)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get plan from storage: %w", err)
		}
		return w.export(ctx, plan)

	default:
		return fmt.Errorf("unknown plan action %q", msg.Action)
	}
}

// ResyncUpcoming exports every plan from the current month onward. It is a
// backup in case AMQP messages were lost.
func (w *ExportWorker) ResyncUpcoming(ctx context.Context) (exported int, err error) {
	from := core.Date{Time: w.now()}.Period()
	q := core.ListQuery{From: from, Page: 1, Limit: w.batchSize, Sort: core.SortAsc}

	for {
		plans, total, err := w.store.ListMonthly(ctx, q)
		if err != nil {
			return exported, fmt.Errorf("list plans from %s: %w", from, err)
		}
		for _, p := range plans {
			if err := w.export(ctx, p); err != nil {
				slog.ErrorContext(ctx, "Failed to export plan", "plan_id", p.ID, "period", p.Period(), "error", err)
				continue
			}
			exported++
		}
		if len(plans) == 0 || q.Offset()+len(plans) >= total {
			return exported, nil
		}
		q.Page++
	}
}

// StartupExportCheck runs ResyncUpcoming once at worker start.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	n, err := w.ResyncUpcoming(ctx)
	if err != nil {
		return fmt.Errorf("startup export check: %w", err)
	}
	slog.InfoContext(ctx, "Startup export completed", "exported", n)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, plan core.MonthlyPlan) error {
	days, err := w.store.ListDaily(ctx, plan.ID)
	if err != nil {
		return fmt.Errorf("list daily plans: %w", err)
	}
	plan.Daily = days

	if err := w.exporter.ExportMonth(ctx, plan); err != nil {
		return fmt.Errorf("export month %s: %w", plan.Period(), err)
	}

	slog.InfoContext(ctx, "Successfully exported plan",
		"plan_id", plan.ID,
		"period", plan.Period(),
		"daily_count", len(days))
	return nil
}
