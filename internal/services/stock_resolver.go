package services

import (
	"context"
	"errors"
	"fmt"

	"mineplan/internal/core"
	"mineplan/internal/storage"
)

// CarryOverPolicy selects how the opening stock of a day is found.
type CarryOverPolicy string

const (
	// CarryOverPreviousMonth looks at the first day of the previous month:
	// its daily old stock, else the leftover stock of a monthly plan dated
	// exactly that day, else zero. The cascade always uses this policy.
	CarryOverPreviousMonth CarryOverPolicy = "previous_month"
	// CarryOverLatestRecord takes the remaining stock of the most recent
	// day strictly before the target date, else zero.
	CarryOverLatestRecord CarryOverPolicy = "latest_record"
)

// ParseCarryOverPolicy accepts the names used in configuration.
func ParseCarryOverPolicy(s string) (CarryOverPolicy, error) {
	switch p := CarryOverPolicy(s); p {
	case CarryOverPreviousMonth, CarryOverLatestRecord:
		return p, nil
	default:
		return "", fmt.Errorf("unknown carry-over policy %q", s)
	}
}

// StockResolver computes opening stock. It only reads from the store.
type StockResolver struct{}

// Resolve returns the opening stock for date under policy. Missing records
// resolve to zero; any other store failure is returned.
func (StockResolver) Resolve(ctx context.Context, r storage.PlanReader, policy CarryOverPolicy, date core.Date) (float64, error) {
	switch policy {
	case CarryOverPreviousMonth:
		return resolvePreviousMonth(ctx, r, date)
	case CarryOverLatestRecord:
		return resolveLatestRecord(ctx, r, date)
	default:
		return 0, fmt.Errorf("resolve opening stock: unknown policy %q", policy)
	}
}

func resolvePreviousMonth(ctx context.Context, r storage.PlanReader, date core.Date) (float64, error) {
	prev := date.PreviousMonthStart()

	day, err := r.FindDailyByDate(ctx, prev)
	if err == nil {
		return day.DailyOldStock, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return 0, fmt.Errorf("find daily plan %s: %w", prev, err)
	}

	monthly, err := r.FindMonthlyByPlanDate(ctx, prev)
	if err == nil {
		return monthly.TotalLeftoverStock, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return 0, fmt.Errorf("find monthly plan %s: %w", prev, err)
	}
	return 0, nil
}

func resolveLatestRecord(ctx context.Context, r storage.PlanReader, date core.Date) (float64, error) {
	day, err := r.FindLatestDailyBefore(ctx, date)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find latest daily plan before %s: %w", date, err)
	}
	return day.RemainingStock, nil
}
