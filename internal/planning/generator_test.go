package planning

import (
	"errors"
	"math"
	"testing"

	"mineplan/internal/core"
)

const tolerance = 1e-6

func august2025() core.MonthlyPlan {
	p := core.MonthlyPlan{
		ID:                7,
		PlanDate:          core.NewDate(2025, 8, 21),
		AverageDayEWH:     20,
		AverageMonthEWH:   620,
		TotalOBTarget:     1_500_000,
		TotalOreTarget:    750_000,
		TotalQuarryTarget: 300_000,
		TotalSRTarget:     2,
		TotalFleet:        25,
	}
	p.ApplyCalendar(core.Classify(p.PlanDate))
	return p
}

func TestGenerateAugust2025(t *testing.T) {
	parent := august2025()
	days, err := Generate(parent, 1000)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(days))
	}

	holidays := 0
	for i, d := range days {
		if d.Date.Day() != i+1 || int(d.Date.Month()) != 8 || d.Date.Year() != 2025 {
			t.Fatalf("day %d has date %s", i, d.Date)
		}
		if d.MonthlyPlanID != 7 {
			t.Fatalf("day %d not linked to parent: %d", i, d.MonthlyPlanID)
		}
		if !d.IsCalendarDay || d.IsHolidayDay == d.IsAvailableDay {
			t.Fatalf("day %d has inconsistent flags: %+v", i, d)
		}
		if d.IsHolidayDay {
			holidays++
		}
		if got := core.Round2(d.OBTarget).String(); got != "48387.1" {
			t.Errorf("day %d OBTarget = %s", i, got)
		}
		if got := core.Round2(d.OreTarget).String(); got != "24193.55" {
			t.Errorf("day %d OreTarget = %s", i, got)
		}
		if d.Quarry != 300_000 {
			t.Errorf("day %d Quarry = %v", i, d.Quarry)
		}
		if math.Abs(d.SRTarget-2) > tolerance {
			t.Errorf("day %d SRTarget = %v", i, d.SRTarget)
		}
		if d.ShiftOBTarget != d.OBTarget/2 || d.ShiftQuarry != 150_000 {
			t.Errorf("day %d shift halves wrong: %+v", i, d)
		}
		if d.ShiftSRTarget != d.ShiftOBTarget/d.ShiftOreTarget {
			t.Errorf("day %d ShiftSRTarget = %v", i, d.ShiftSRTarget)
		}
		if d.AverageDayEWH != 20 || math.Abs(d.AverageShiftEWH-20) > tolerance {
			t.Errorf("day %d EWH = %v/%v", i, d.AverageDayEWH, d.AverageShiftEWH)
		}
		if d.DailyOldStock != 1000 {
			t.Errorf("day %d DailyOldStock = %v", i, d.DailyOldStock)
		}
		if d.TotalFleet != 25 {
			t.Errorf("day %d TotalFleet = %d", i, d.TotalFleet)
		}
	}
	if holidays != 5 {
		t.Fatalf("expected 5 Sundays, got %d", holidays)
	}
}

func TestGenerateSumsMatchTotals(t *testing.T) {
	parent := august2025()
	parent.TotalOreShipmentTarget = 700_000
	days, err := Generate(parent, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var ob, ore, ship float64
	for _, d := range days {
		ob += d.OBTarget
		ore += d.OreTarget
		ship += d.OreShipmentTarget
	}
	if math.Abs(ob-parent.TotalOBTarget) > 1e-3 {
		t.Errorf("sum OB = %v", ob)
	}
	if math.Abs(ore-parent.TotalOreTarget) > 1e-3 {
		t.Errorf("sum ore = %v", ore)
	}
	if math.Abs(ship-parent.TotalOreShipmentTarget) > 1e-3 {
		t.Errorf("sum shipment = %v", ship)
	}
}

func TestGenerateRemainingStock(t *testing.T) {
	parent := august2025()
	parent.TotalOreShipmentTarget = 31 * 100
	parent.TotalOreTarget = 31 * 300
	days, err := Generate(parent, 5000)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, d := range days {
		if math.Abs(d.RemainingStock-5200) > tolerance {
			t.Fatalf("RemainingStock on %s = %v, want 5200", d.Date, d.RemainingStock)
		}
	}
}

func TestGenerateZeroOreFailsWholeBatch(t *testing.T) {
	parent := august2025()
	parent.TotalOreTarget = 0

	days, err := Generate(parent, 0)
	if !errors.Is(err, core.ErrComputation) {
		t.Fatalf("expected ErrComputation, got %v", err)
	}
	if days != nil {
		t.Fatalf("expected no rows on failure, got %d", len(days))
	}
	var cerr *core.ComputationError
	if !errors.As(err, &cerr) || cerr.Field != "srTarget" || cerr.Date.String() != "2025-08-01" {
		t.Fatalf("unexpected error detail: %v", err)
	}
}

func TestGenerateFallsBackToCalendarDays(t *testing.T) {
	parent := august2025()
	parent.TotalCalendarDays = 0
	parent.PlanDate = core.NewDate(2024, 2, 5)

	days, err := Generate(parent, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(days) != 29 {
		t.Fatalf("expected 29 days for Feb 2024, got %d", len(days))
	}
}

func TestStrippingRatio(t *testing.T) {
	tests := []struct {
		name    string
		ob, ore float64
		want    float64
		wantErr bool
	}{
		{"plain", 10, 5, 2, false},
		{"zero overburden", 0, 5, 0, false},
		{"zero ore", 10, 0, 0, true},
		{"both zero", 0, 0, 0, true},
		{"nan", math.NaN(), 1, 0, true},
		{"inf", math.Inf(1), 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StrippingRatio(tt.ob, tt.ore)
			if tt.wantErr {
				if !errors.Is(err, core.ErrComputation) {
					t.Fatalf("expected ErrComputation, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("StrippingRatio(%v, %v) = %v, %v", tt.ob, tt.ore, got, err)
			}
		})
	}
}

func TestDeriveDayShiftRatioGuard(t *testing.T) {
	_, err := DeriveDay(DayInput{
		Date:    core.NewDate(2025, 8, 3),
		Figures: core.DailyFigures{OBTarget: 100},
	})
	var cerr *core.ComputationError
	if !errors.As(err, &cerr) || cerr.Date.String() != "2025-08-03" {
		t.Fatalf("expected dated ComputationError, got %v", err)
	}
}

func TestDeriveDayHolidayFlags(t *testing.T) {
	sunday, err := DeriveDay(DayInput{
		Date:    core.NewDate(2025, 8, 3),
		Figures: core.DailyFigures{OBTarget: 10, OreTarget: 5},
	})
	if err != nil {
		t.Fatalf("DeriveDay: %v", err)
	}
	if !sunday.IsHolidayDay || sunday.IsAvailableDay {
		t.Fatalf("2025-08-03 is a Sunday: %+v", sunday)
	}

	monday, err := DeriveDay(DayInput{
		Date:    core.NewDate(2025, 8, 4),
		Figures: core.DailyFigures{OBTarget: 10, OreTarget: 5},
	})
	if err != nil {
		t.Fatalf("DeriveDay: %v", err)
	}
	if monday.IsHolidayDay || !monday.IsAvailableDay {
		t.Fatalf("2025-08-04 is a Monday: %+v", monday)
	}
}

func TestFiguresRoundTrip(t *testing.T) {
	in := core.DailyFigures{AverageDayEWH: 1, AverageShiftEWH: 2, OBTarget: 3, OreTarget: 4, Quarry: 5, OreShipmentTarget: 6, TotalFleet: 7}
	day, err := DeriveDay(DayInput{Date: core.NewDate(2025, 8, 4), Figures: in})
	if err != nil {
		t.Fatalf("DeriveDay: %v", err)
	}
	if Figures(day) != in {
		t.Fatalf("Figures = %+v, want %+v", Figures(day), in)
	}
}
