package core

import (
	"fmt"
	"math"
	"time"
)

// DefaultSRTarget is the stripping ratio target used when none is submitted.
const DefaultSRTarget = 2.0

const periodLayout = "2006-01"

type (
	Date struct {
		time.Time
	}

	// MonthlyPlan is the monthly aggregate production target. Only the year
	// and month of PlanDate matter for uniqueness and generation.
	MonthlyPlan struct {
		ID       int64
		PlanDate Date

		AverageDayEWH          float64
		AverageMonthEWH        float64
		TotalOBTarget          float64
		TotalOreTarget         float64
		TotalQuarryTarget      float64
		TotalSRTarget          float64
		TotalOreShipmentTarget float64
		TotalRemainingStock    float64
		TotalLeftoverStock     float64
		TotalFleet             int

		TotalCalendarDays  int
		TotalHolidayDays   int
		TotalAvailableDays int

		CreatedAt time.Time
		UpdatedAt time.Time

		Daily []DailyPlan
	}

	// DailyPlan is one calendar day of a MonthlyPlan. The same type backs the
	// generated cascade rows and manual single-day adjustments.
	DailyPlan struct {
		ID            int64
		MonthlyPlanID int64
		Date          Date

		IsCalendarDay  bool
		IsHolidayDay   bool
		IsAvailableDay bool

		AverageDayEWH     float64
		AverageShiftEWH   float64
		OBTarget          float64
		OreTarget         float64
		Quarry            float64
		OreShipmentTarget float64
		SRTarget          float64

		ShiftOBTarget  float64
		ShiftOreTarget float64
		ShiftQuarry    float64
		ShiftSRTarget  float64

		DailyOldStock  float64
		RemainingStock float64
		TotalFleet     int
	}

	// MonthlyTotals is the caller-submitted input for creating a MonthlyPlan.
	MonthlyTotals struct {
		PlanDate               Date
		AverageDayEWH          float64
		AverageMonthEWH        float64
		TotalOBTarget          float64
		TotalOreTarget         float64
		TotalQuarryTarget      float64
		TotalSRTarget          float64
		TotalOreShipmentTarget float64
		TotalRemainingStock    float64
		TotalLeftoverStock     float64
		TotalFleet             int
	}

	// MonthlyPatch carries a partial update; nil fields are left unchanged.
	MonthlyPatch struct {
		PlanDate               *Date
		AverageDayEWH          *float64
		AverageMonthEWH        *float64
		TotalOBTarget          *float64
		TotalOreTarget         *float64
		TotalQuarryTarget      *float64
		TotalSRTarget          *float64
		TotalOreShipmentTarget *float64
		TotalRemainingStock    *float64
		TotalLeftoverStock     *float64
		TotalFleet             *int
	}

	// DailyFigures are the base per-day figures a planner may override by hand.
	DailyFigures struct {
		AverageDayEWH     float64
		AverageShiftEWH   float64
		OBTarget          float64
		OreTarget         float64
		Quarry            float64
		OreShipmentTarget float64
		TotalFleet        int
	}

	// DeleteResult reports what a cascade delete removed.
	DeleteResult struct {
		DeletedID         int64
		DeletedDailyCount int
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q", s)}
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "planDate", Reason: "date cannot be zero"}
	}
	return nil
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// PreviousMonthStart returns the first day of the month before d's month.
func (d Date) PreviousMonthStart() Date {
	return NewDate(d.Year(), int(d.Month())-1, 1)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Period returns the YYYY-MM key of d's month.
func (d Date) Period() string {
	return d.Format(periodLayout)
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// MonthLabel returns a human label such as "August 2025".
func (d Date) MonthLabel() string {
	return d.Format("January 2006")
}

// ParsePeriod parses a YYYY-MM key into the first day of that month.
func ParsePeriod(s string) (Date, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "period", Reason: fmt.Sprintf("invalid period %q", s)}
	}
	return Date{Time: t}, nil
}

// Period returns the plan's YYYY-MM key.
func (p MonthlyPlan) Period() string {
	return p.PlanDate.Period()
}

// Validate rejects malformed or out-of-range totals before anything is stored.
func (t MonthlyTotals) Validate() error {
	if err := t.PlanDate.Validate(); err != nil {
		return err
	}
	figures := []struct {
		name  string
		value float64
	}{
		{"averageDayEwh", t.AverageDayEWH},
		{"averageMonthEwh", t.AverageMonthEWH},
		{"totalObTarget", t.TotalOBTarget},
		{"totalOreTarget", t.TotalOreTarget},
		{"totalQuarryTarget", t.TotalQuarryTarget},
		{"totalSrTarget", t.TotalSRTarget},
		{"totalOreShipmentTarget", t.TotalOreShipmentTarget},
		{"totalRemainingStock", t.TotalRemainingStock},
		{"totalLeftoverStock", t.TotalLeftoverStock},
	}
	for _, f := range figures {
		if err := validateFigure(f.name, f.value); err != nil {
			return err
		}
	}
	if t.TotalFleet < 0 {
		return &ValidationError{Field: "totalFleet", Reason: "must not be negative"}
	}
	if t.AverageDayEWH > 24 {
		return &ValidationError{Field: "averageDayEwh", Reason: "cannot exceed 24 hours"}
	}
	return nil
}

// WithDefaults fills in the stripping ratio default.
func (t MonthlyTotals) WithDefaults() MonthlyTotals {
	if t.TotalSRTarget == 0 {
		t.TotalSRTarget = DefaultSRTarget
	}
	return t
}

// Totals extracts the submitted totals of an existing plan.
func (p MonthlyPlan) Totals() MonthlyTotals {
	return MonthlyTotals{
		PlanDate:               p.PlanDate,
		AverageDayEWH:          p.AverageDayEWH,
		AverageMonthEWH:        p.AverageMonthEWH,
		TotalOBTarget:          p.TotalOBTarget,
		TotalOreTarget:         p.TotalOreTarget,
		TotalQuarryTarget:      p.TotalQuarryTarget,
		TotalSRTarget:          p.TotalSRTarget,
		TotalOreShipmentTarget: p.TotalOreShipmentTarget,
		TotalRemainingStock:    p.TotalRemainingStock,
		TotalLeftoverStock:     p.TotalLeftoverStock,
		TotalFleet:             p.TotalFleet,
	}
}

// ApplyTotals copies submitted totals onto the plan.
func (p *MonthlyPlan) ApplyTotals(t MonthlyTotals) {
	p.PlanDate = t.PlanDate
	p.AverageDayEWH = t.AverageDayEWH
	p.AverageMonthEWH = t.AverageMonthEWH
	p.TotalOBTarget = t.TotalOBTarget
	p.TotalOreTarget = t.TotalOreTarget
	p.TotalQuarryTarget = t.TotalQuarryTarget
	p.TotalSRTarget = t.TotalSRTarget
	p.TotalOreShipmentTarget = t.TotalOreShipmentTarget
	p.TotalRemainingStock = t.TotalRemainingStock
	p.TotalLeftoverStock = t.TotalLeftoverStock
	p.TotalFleet = t.TotalFleet
}

// ApplyCalendar stores the day counts of the plan's month.
func (p *MonthlyPlan) ApplyCalendar(c Calendar) {
	p.TotalCalendarDays = c.Days
	p.TotalHolidayDays = c.Holidays
	p.TotalAvailableDays = c.Available
}

// Apply merges the patch over t and reports whether the plan date changed.
func (m MonthlyPatch) Apply(t MonthlyTotals) (MonthlyTotals, bool) {
	dateChanged := false
	if m.PlanDate != nil {
		dateChanged = !m.PlanDate.Equal(t.PlanDate.Time)
		t.PlanDate = *m.PlanDate
	}
	setFloat(&t.AverageDayEWH, m.AverageDayEWH)
	setFloat(&t.AverageMonthEWH, m.AverageMonthEWH)
	setFloat(&t.TotalOBTarget, m.TotalOBTarget)
	setFloat(&t.TotalOreTarget, m.TotalOreTarget)
	setFloat(&t.TotalQuarryTarget, m.TotalQuarryTarget)
	setFloat(&t.TotalSRTarget, m.TotalSRTarget)
	setFloat(&t.TotalOreShipmentTarget, m.TotalOreShipmentTarget)
	setFloat(&t.TotalRemainingStock, m.TotalRemainingStock)
	setFloat(&t.TotalLeftoverStock, m.TotalLeftoverStock)
	if m.TotalFleet != nil {
		t.TotalFleet = *m.TotalFleet
	}
	return t, dateChanged
}

// Validate checks manually entered figures.
func (f DailyFigures) Validate() error {
	figures := []struct {
		name  string
		value float64
	}{
		{"averageDayEwh", f.AverageDayEWH},
		{"averageShiftEwh", f.AverageShiftEWH},
		{"obTarget", f.OBTarget},
		{"oreTarget", f.OreTarget},
		{"quarry", f.Quarry},
		{"oreShipmentTarget", f.OreShipmentTarget},
	}
	for _, fig := range figures {
		if err := validateFigure(fig.name, fig.value); err != nil {
			return err
		}
	}
	if f.TotalFleet < 0 {
		return &ValidationError{Field: "totalFleet", Reason: "must not be negative"}
	}
	return nil
}

func validateFigure(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: name, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &ValidationError{Field: name, Reason: "must not be negative"}
	}
	return nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
