// Package planning derives the daily breakdown of a monthly production plan.
//
// Everything here is pure: inputs are passed explicitly and nothing is read
// from the clock or the store.
package planning

import (
	"math"

	"mineplan/internal/core"
)

// DayInput is everything needed to derive one day of the breakdown.
type DayInput struct {
	Date         core.Date
	Figures      core.DailyFigures
	OpeningStock float64
}

// Generate produces one DailyPlan per calendar day of the parent's month,
// ordered by date. The parent must carry its ID and TotalCalendarDays.
// A ComputationError on any day aborts the whole batch.
func Generate(parent core.MonthlyPlan, openingStock float64) ([]core.DailyPlan, error) {
	days := parent.TotalCalendarDays
	if days <= 0 {
		days = core.DaysInMonth(parent.PlanDate)
	}
	figures, err := SplitMonthly(parent, days)
	if err != nil {
		return nil, err
	}

	first := parent.PlanDate.FirstOfMonth()
	out := make([]core.DailyPlan, 0, days)
	for i := 0; i < days; i++ {
		day, err := DeriveDay(DayInput{
			Date:         first.AddDays(i),
			Figures:      figures,
			OpeningStock: openingStock,
		})
		if err != nil {
			return nil, err
		}
		day.MonthlyPlanID = parent.ID
		out = append(out, day)
	}
	return out, nil
}

// SplitMonthly turns monthly totals into the per-day base figures. OB, ore
// and shipment are divided equally across the calendar days; quarry is copied
// whole to every day.
func SplitMonthly(parent core.MonthlyPlan, days int) (core.DailyFigures, error) {
	if days <= 0 {
		return core.DailyFigures{}, &core.ComputationError{Field: "totalCalendarDays", Cause: "month has no days"}
	}
	n := float64(days)
	return core.DailyFigures{
		AverageDayEWH:     parent.AverageDayEWH,
		AverageShiftEWH:   parent.AverageMonthEWH / n,
		OBTarget:          parent.TotalOBTarget / n,
		OreTarget:         parent.TotalOreTarget / n,
		Quarry:            parent.TotalQuarryTarget,
		OreShipmentTarget: parent.TotalOreShipmentTarget / n,
		TotalFleet:        parent.TotalFleet,
	}, nil
}

// DeriveDay computes the flags, ratios, shift halves and stock figures of a
// single day from its base figures.
func DeriveDay(in DayInput) (core.DailyPlan, error) {
	f := in.Figures
	holiday := core.IsHoliday(in.Date)

	sr, err := StrippingRatio(f.OBTarget, f.OreTarget)
	if err != nil {
		return core.DailyPlan{}, withDay(err, in.Date, "srTarget")
	}

	shiftOB := f.OBTarget / 2
	shiftOre := f.OreTarget / 2
	shiftSR, err := StrippingRatio(shiftOB, shiftOre)
	if err != nil {
		return core.DailyPlan{}, withDay(err, in.Date, "shiftSrTarget")
	}

	day := core.DailyPlan{
		Date:              in.Date,
		IsCalendarDay:     true,
		IsHolidayDay:      holiday,
		IsAvailableDay:    !holiday,
		AverageDayEWH:     f.AverageDayEWH,
		AverageShiftEWH:   f.AverageShiftEWH,
		OBTarget:          f.OBTarget,
		OreTarget:         f.OreTarget,
		Quarry:            f.Quarry,
		OreShipmentTarget: f.OreShipmentTarget,
		SRTarget:          sr,
		ShiftOBTarget:     shiftOB,
		ShiftOreTarget:    shiftOre,
		ShiftQuarry:       f.Quarry / 2,
		ShiftSRTarget:     shiftSR,
		DailyOldStock:     in.OpeningStock,
		RemainingStock:    in.OpeningStock - f.OreShipmentTarget + f.OreTarget,
		TotalFleet:        f.TotalFleet,
	}
	if err := checkFinite(day); err != nil {
		return core.DailyPlan{}, err
	}
	return day, nil
}

// Figures extracts the base figures of an existing day.
func Figures(d core.DailyPlan) core.DailyFigures {
	return core.DailyFigures{
		AverageDayEWH:     d.AverageDayEWH,
		AverageShiftEWH:   d.AverageShiftEWH,
		OBTarget:          d.OBTarget,
		OreTarget:         d.OreTarget,
		Quarry:            d.Quarry,
		OreShipmentTarget: d.OreShipmentTarget,
		TotalFleet:        d.TotalFleet,
	}
}

func withDay(err error, date core.Date, field string) error {
	if cerr, ok := err.(*core.ComputationError); ok {
		cerr.Date = date
		cerr.Field = field
		return cerr
	}
	return err
}

func checkFinite(d core.DailyPlan) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"averageShiftEwh", d.AverageShiftEWH},
		{"obTarget", d.OBTarget},
		{"oreTarget", d.OreTarget},
		{"oreShipmentTarget", d.OreShipmentTarget},
		{"quarry", d.Quarry},
		{"dailyOldStock", d.DailyOldStock},
		{"remainingStock", d.RemainingStock},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &core.ComputationError{Date: d.Date, Field: f.name, Cause: "result is not a finite number"}
		}
	}
	return nil
}
