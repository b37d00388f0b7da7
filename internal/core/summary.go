package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// SortOrder selects the plan_date ordering of a listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// MonthlySummary is the listing projection of a MonthlyPlan.
type MonthlySummary struct {
	ID                  int64
	PlanDate            Date
	MonthLabel          string
	AvailableDays       int
	HolidayDays         int
	AverageMonthEWH     decimal.Decimal
	OBTarget            decimal.Decimal
	OreTarget           decimal.Decimal
	QuarryTarget        decimal.Decimal
	SRTarget            decimal.Decimal
	OreShipmentTarget   decimal.Decimal
	LeftoverStock       decimal.Decimal
	IsAvailableToEdit   bool
	IsAvailableToDelete bool
}

// ListQuery holds filters, pagination and sort for plan listings.
type ListQuery struct {
	Year  int    // 0 means any year
	From  string // inclusive YYYY-MM, empty for open
	To    string // inclusive YYYY-MM, empty for open
	Page  int
	Limit int
	Sort  SortOrder
}

// Page is one page of results.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// Normalize clamps pagination and fills defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Sort != SortDesc {
		q.Sort = SortAsc
	}
	return q
}

// Offset returns the row offset of the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Validate checks the period bounds.
func (q ListQuery) Validate() error {
	if q.From != "" {
		if _, err := ParsePeriod(q.From); err != nil {
			return err
		}
	}
	if q.To != "" {
		if _, err := ParsePeriod(q.To); err != nil {
			return err
		}
	}
	if q.From != "" && q.To != "" && q.From > q.To {
		return &ValidationError{Field: "from", Reason: "must not be after to"}
	}
	return nil
}

// Summarize projects a plan for listings. Edit and delete share the
// strictly-future gate.
func Summarize(p MonthlyPlan, now time.Time) MonthlySummary {
	future := IsStrictlyFuture(p.PlanDate, now)
	return MonthlySummary{
		ID:                  p.ID,
		PlanDate:            p.PlanDate,
		MonthLabel:          p.PlanDate.MonthLabel(),
		AvailableDays:       p.TotalAvailableDays,
		HolidayDays:         p.TotalHolidayDays,
		AverageMonthEWH:     Round2(p.AverageMonthEWH),
		OBTarget:            Round2(p.TotalOBTarget),
		OreTarget:           Round2(p.TotalOreTarget),
		QuarryTarget:        Round2(p.TotalQuarryTarget),
		SRTarget:            Round2(p.TotalSRTarget),
		OreShipmentTarget:   Round2(p.TotalOreShipmentTarget),
		LeftoverStock:       Round2(p.TotalLeftoverStock),
		IsAvailableToEdit:   future,
		IsAvailableToDelete: future,
	}
}

// Round2 rounds a figure half away from zero to two decimals.
func Round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
