package services

import (
	"context"
	"fmt"

	"mineplan/internal/core"
	"mineplan/internal/log"
	"mineplan/internal/planning"
	"mineplan/internal/storage"
)

// Invalidator drops cached monthly plans.
type Invalidator interface {
	Invalidate(periods ...string)
}

// DailyService handles manual edits of a single day. It works on the same
// DailyPlan rows the cascade generates.
type DailyService struct {
	store    storage.PlanStore
	resolver StockResolver
	policy   CarryOverPolicy
	cache    Invalidator
	logger   *log.Logger
}

// NewDailyService builds the manual-entry path. An empty policy means
// CarryOverLatestRecord; cache and logger may be nil.
func NewDailyService(store storage.PlanStore, policy CarryOverPolicy, cache Invalidator, logger *log.Logger) *DailyService {
	if policy == "" {
		policy = CarryOverLatestRecord
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &DailyService{
		store:  store,
		policy: policy,
		cache:  cache,
		logger: logger.WithComponent(log.ComponentDaily),
	}
}

// Policy reports the carry-over policy used for manual edits.
func (s *DailyService) Policy() CarryOverPolicy {
	return s.policy
}

func (s *DailyService) Get(ctx context.Context, date core.Date) (core.DailyPlan, error) {
	d, err := s.store.FindDailyByDate(ctx, date)
	if err != nil {
		return core.DailyPlan{}, fmt.Errorf("get daily plan: %w", err)
	}
	return d, nil
}

// Adjust overrides the base figures of an existing day and recomputes its
// shift, ratio and stock fields.
func (s *DailyService) Adjust(ctx context.Context, date core.Date, figures core.DailyFigures) (core.DailyPlan, error) {
	if err := date.Validate(); err != nil {
		return core.DailyPlan{}, err
	}
	if err := figures.Validate(); err != nil {
		return core.DailyPlan{}, err
	}

	var (
		day     core.DailyPlan
		opening float64
	)
	err := s.store.WithTx(ctx, func(tx storage.PlanTx) error {
		existing, err := tx.FindDailyByDate(ctx, date)
		if err != nil {
			return err
		}

		opening, err = s.resolver.Resolve(ctx, tx, s.policy, date)
		if err != nil {
			return err
		}

		day, err = planning.DeriveDay(planning.DayInput{
			Date:         existing.Date,
			Figures:      figures,
			OpeningStock: opening,
		})
		if err != nil {
			return err
		}
		day.ID = existing.ID
		day.MonthlyPlanID = existing.MonthlyPlanID

		saved, err := tx.SaveDailyBatch(ctx, []core.DailyPlan{day})
		if err != nil {
			return fmt.Errorf("save daily plan: %w", err)
		}
		day = saved[0]
		return nil
	})
	if err != nil {
		return core.DailyPlan{}, fmt.Errorf("adjust daily plan %s: %w", date, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(date.Period())
	}
	s.logger.InfoContext(ctx, "Daily plan adjusted",
		log.FieldDate, date.String(),
		log.FieldPlanID, day.MonthlyPlanID,
		log.FieldOpeningStock, opening,
		log.FieldPolicy, s.policy)

	return day, nil
}
