package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"mineplan/internal/amqp"
	"mineplan/internal/cache"
	"mineplan/internal/core"
	"mineplan/internal/log"
	"mineplan/internal/planning"
	"mineplan/internal/storage"
)

// Clock returns the current time. Temporal guards read it instead of
// time.Now so they can be tested.
type Clock func() time.Time

// EventPublisher announces committed plan changes.
type EventPublisher interface {
	PublishPlanEvent(ctx context.Context, msg *amqp.PlanEventMessage) error
}

type CascadeOptions struct {
	// Cache holds FindByMonth results keyed by period. Nil disables caching.
	Cache cache.Cache[core.MonthlyPlan]
	// Publisher receives plan events. Nil disables publishing.
	Publisher EventPublisher
	Clock     Clock
	// GuardEdits rejects updates to plans that are not strictly in the future.
	GuardEdits bool
	Logger     *log.Logger
}

// CascadeService keeps a monthly plan and its daily breakdown consistent
// through create, update and delete.
type CascadeService struct {
	store      storage.PlanStore
	resolver   StockResolver
	cache      cache.Cache[core.MonthlyPlan]
	group      singleflight.Group
	generation atomic.Uint64
	publisher  EventPublisher
	now        Clock
	guardEdits bool
	logger     *log.Logger
}

func NewCascadeService(store storage.PlanStore, opts CascadeOptions) *CascadeService {
	s := &CascadeService{
		store:      store,
		cache:      opts.Cache,
		publisher:  opts.Publisher,
		now:        opts.Clock,
		guardEdits: opts.GuardEdits,
		logger:     opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Nop()
	}
	s.logger = s.logger.WithComponent(log.ComponentCascade)
	return s
}

// Create stores a new monthly plan and its generated days in one transaction.
func (s *CascadeService) Create(ctx context.Context, totals core.MonthlyTotals) (core.MonthlyPlan, error) {
	totals = totals.WithDefaults()
	if err := totals.Validate(); err != nil {
		return core.MonthlyPlan{}, err
	}

	var (
		plan    core.MonthlyPlan
		opening float64
	)
	err := s.store.WithTx(ctx, func(tx storage.PlanTx) error {
		if err := ensurePeriodFree(ctx, tx, totals.PlanDate.Period(), 0); err != nil {
			return err
		}

		plan = core.MonthlyPlan{}
		plan.ApplyTotals(totals)
		plan.ApplyCalendar(core.Classify(plan.PlanDate))

		var err error
		opening, err = s.resolver.Resolve(ctx, tx, CarryOverPreviousMonth, plan.PlanDate)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		plan.CreatedAt, plan.UpdatedAt = now, now
		if err := tx.SaveMonthly(ctx, &plan); err != nil {
			return fmt.Errorf("save monthly plan: %w", err)
		}

		days, err := planning.Generate(plan, opening)
		if err != nil {
			return err
		}
		if plan.Daily, err = tx.SaveDailyBatch(ctx, days); err != nil {
			return fmt.Errorf("save daily plans: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("create monthly plan: %w", err)
	}

	s.Invalidate(plan.Period())
	s.logger.InfoContext(ctx, "Monthly plan created",
		log.FieldPlanID, plan.ID,
		log.FieldPeriod, plan.Period(),
		log.FieldDailyCount, len(plan.Daily),
		log.FieldOpeningStock, opening)
	s.publish(ctx, amqp.NewPlanEventMessage(plan.ID, amqp.PlanCreated, plan.Period(), len(plan.Daily)))

	return plan, nil
}

// Update merges patch into the plan, regenerates every day and reconciles
// the stored rows with the new month: shared positions are updated in place,
// extra days inserted and surplus rows deleted.
func (s *CascadeService) Update(ctx context.Context, id int64, patch core.MonthlyPatch) (core.MonthlyPlan, error) {
	var (
		plan      core.MonthlyPlan
		oldPeriod string
		diff      planning.Diff
	)
	err := s.store.WithTx(ctx, func(tx storage.PlanTx) error {
		current, err := tx.FindMonthlyByID(ctx, id)
		if err != nil {
			return err
		}
		oldPeriod = current.Period()

		if s.guardEdits && !core.IsStrictlyFuture(current.PlanDate, s.now()) {
			return fmt.Errorf("monthly plan %d for %s: %w", id, oldPeriod, core.ErrNotEditable)
		}

		totals, dateChanged := patch.Apply(current.Totals())
		totals = totals.WithDefaults()
		if err := totals.Validate(); err != nil {
			return err
		}

		plan = current
		plan.ApplyTotals(totals)
		if dateChanged {
			if plan.Period() != oldPeriod {
				if err := ensurePeriodFree(ctx, tx, plan.Period(), id); err != nil {
					return err
				}
			}
			plan.ApplyCalendar(core.Classify(plan.PlanDate))
		}

		opening, err := s.resolver.Resolve(ctx, tx, CarryOverPreviousMonth, plan.PlanDate)
		if err != nil {
			return err
		}

		plan.UpdatedAt = s.now().UTC()
		if err := tx.SaveMonthly(ctx, &plan); err != nil {
			return fmt.Errorf("save monthly plan: %w", err)
		}

		generated, err := planning.Generate(plan, opening)
		if err != nil {
			return err
		}
		stored, err := tx.ListDaily(ctx, id)
		if err != nil {
			return fmt.Errorf("list daily plans: %w", err)
		}

		diff = planning.Reconcile(stored, generated)
		if err := tx.DeleteDailyBatch(ctx, diff.Delete); err != nil {
			return fmt.Errorf("delete surplus daily plans: %w", err)
		}
		if plan.Daily, err = tx.SaveDailyBatch(ctx, append(diff.Update, diff.Insert...)); err != nil {
			return fmt.Errorf("save daily plans: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("update monthly plan: %w", err)
	}

	s.Invalidate(oldPeriod, plan.Period())
	s.logger.InfoContext(ctx, "Monthly plan updated",
		log.FieldPlanID, plan.ID,
		log.FieldPeriod, plan.Period(),
		log.FieldDailyCount, len(plan.Daily),
		"rows_updated", len(diff.Update),
		"rows_inserted", len(diff.Insert),
		"rows_deleted", len(diff.Delete))

	msg := amqp.NewPlanEventMessage(plan.ID, amqp.PlanUpdated, plan.Period(), len(plan.Daily))
	if oldPeriod != plan.Period() {
		msg.PreviousPeriod = oldPeriod
	}
	s.publish(ctx, msg)

	return plan, nil
}

// Delete removes a plan and its days. Only plans strictly in the future
// may be deleted.
func (s *CascadeService) Delete(ctx context.Context, id int64) (core.DeleteResult, error) {
	var (
		result core.DeleteResult
		period string
	)
	err := s.store.WithTx(ctx, func(tx storage.PlanTx) error {
		plan, err := tx.FindMonthlyByID(ctx, id)
		if err != nil {
			return err
		}
		period = plan.Period()

		if !core.IsStrictlyFuture(plan.PlanDate, s.now()) {
			return fmt.Errorf("monthly plan %d for %s: %w", id, period, core.ErrNotDeletable)
		}

		days, err := tx.ListDaily(ctx, id)
		if err != nil {
			return fmt.Errorf("list daily plans: %w", err)
		}
		if err := tx.DeleteDailyBatch(ctx, days); err != nil {
			return fmt.Errorf("delete daily plans: %w", err)
		}
		if err := tx.DeleteMonthly(ctx, id); err != nil {
			return fmt.Errorf("delete monthly plan: %w", err)
		}

		result = core.DeleteResult{DeletedID: id, DeletedDailyCount: len(days)}
		return nil
	})
	if err != nil {
		return core.DeleteResult{}, fmt.Errorf("delete monthly plan: %w", err)
	}

	s.Invalidate(period)
	s.logger.InfoContext(ctx, "Monthly plan deleted",
		log.FieldPlanID, id,
		log.FieldPeriod, period,
		log.FieldDailyCount, result.DeletedDailyCount)
	s.publish(ctx, amqp.NewPlanEventMessage(id, amqp.PlanDeleted, period, result.DeletedDailyCount))

	return result, nil
}

// FindByMonth returns the plan covering date's month with its days in date
// order. Results are cached per period and concurrent misses share one load.
func (s *CascadeService) FindByMonth(ctx context.Context, date core.Date) (core.MonthlyPlan, error) {
	period := date.Period()
	if s.cache != nil {
		if p, ok := s.cache.Get(period); ok {
			return clonePlan(p), nil
		}
	}

	v, err, _ := s.group.Do(period, func() (any, error) {
		gen := s.generation.Load()
		p, err := s.store.FindMonthlyByPeriod(ctx, period)
		if err != nil {
			return core.MonthlyPlan{}, err
		}
		if p.Daily, err = s.store.ListDaily(ctx, p.ID); err != nil {
			return core.MonthlyPlan{}, fmt.Errorf("list daily plans: %w", err)
		}
		if s.cache != nil && s.generation.Load() == gen {
			s.cache.Set(period, p)
		}
		return p, nil
	})
	if err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("find monthly plan for %s: %w", period, err)
	}
	return clonePlan(v.(core.MonthlyPlan)), nil
}

// FindOne returns a plan by id with its days in date order.
func (s *CascadeService) FindOne(ctx context.Context, id int64) (core.MonthlyPlan, error) {
	p, err := s.store.FindMonthlyByID(ctx, id)
	if err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("find monthly plan: %w", err)
	}
	if p.Daily, err = s.store.ListDaily(ctx, id); err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("list daily plans: %w", err)
	}
	return p, nil
}

// List returns one page of plan summaries.
func (s *CascadeService) List(ctx context.Context, q core.ListQuery) (core.Page[core.MonthlySummary], error) {
	if err := q.Validate(); err != nil {
		return core.Page[core.MonthlySummary]{}, err
	}
	q = q.Normalize()

	plans, total, err := s.store.ListMonthly(ctx, q)
	if err != nil {
		return core.Page[core.MonthlySummary]{}, fmt.Errorf("list monthly plans: %w", err)
	}

	now := s.now()
	items := make([]core.MonthlySummary, len(plans))
	for i, p := range plans {
		items[i] = core.Summarize(p, now)
	}
	return core.Page[core.MonthlySummary]{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// Invalidate drops cached plans for the given periods.
func (s *CascadeService) Invalidate(periods ...string) {
	s.generation.Add(1)
	for _, p := range periods {
		s.group.Forget(p)
		if s.cache != nil {
			s.cache.Delete(p)
		}
	}
}

func (s *CascadeService) publish(ctx context.Context, msg *amqp.PlanEventMessage) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping plan event",
			log.FieldPlanID, msg.PlanID)
		return
	}
	// The change is committed; a lost event must not fail the request.
	if err := s.publisher.PublishPlanEvent(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish plan event",
			log.FieldPlanID, msg.PlanID,
			"action", msg.Action,
			log.FieldError, err)
	}
}

func ensurePeriodFree(ctx context.Context, r storage.PlanReader, period string, ownerID int64) error {
	existing, err := r.FindMonthlyByPeriod(ctx, period)
	switch {
	case err == nil && existing.ID != ownerID:
		return fmt.Errorf("period %s is taken by plan %d: %w", period, existing.ID, core.ErrDuplicatePeriod)
	case err == nil, errors.Is(err, core.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check period %s: %w", period, err)
	}
}

func clonePlan(p core.MonthlyPlan) core.MonthlyPlan {
	p.Daily = append([]core.DailyPlan(nil), p.Daily...)
	return p
}
