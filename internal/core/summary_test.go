package core

import (
	"errors"
	"testing"
	"time"
)

func TestListQueryNormalize(t *testing.T) {
	q := ListQuery{Page: 0, Limit: 500, Sort: "sideways"}.Normalize()
	if q.Page != 1 || q.Limit != MaxPageLimit || q.Sort != SortAsc {
		t.Fatalf("unexpected normalized query: %+v", q)
	}
	q = ListQuery{Page: 3, Limit: 10, Sort: SortDesc}.Normalize()
	if q.Offset() != 20 || q.Sort != SortDesc {
		t.Fatalf("unexpected offset/sort: %+v offset=%d", q, q.Offset())
	}
}

func TestListQueryValidate(t *testing.T) {
	if err := (ListQuery{From: "2025-01", To: "2025-12"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (ListQuery{From: "2025-13"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (ListQuery{From: "2025-06", To: "2025-01"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	plan := MonthlyPlan{
		ID:                 4,
		PlanDate:           NewDate(2025, 8, 21),
		AverageMonthEWH:    600.456,
		TotalOBTarget:      1_500_000,
		TotalOreTarget:     750_000,
		TotalSRTarget:      2,
		TotalLeftoverStock: 1234.565,
		TotalHolidayDays:   5,
		TotalAvailableDays: 26,
	}

	s := Summarize(plan, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if s.MonthLabel != "August 2025" {
		t.Errorf("MonthLabel = %q", s.MonthLabel)
	}
	if s.AvailableDays != 26 || s.HolidayDays != 5 {
		t.Errorf("day counts = %d/%d", s.AvailableDays, s.HolidayDays)
	}
	if s.AverageMonthEWH.String() != "600.46" {
		t.Errorf("AverageMonthEWH = %s", s.AverageMonthEWH)
	}
	if !s.IsAvailableToEdit || !s.IsAvailableToDelete {
		t.Errorf("future plan should be editable and deletable")
	}

	s = Summarize(plan, time.Date(2025, 8, 21, 0, 0, 0, 0, time.UTC))
	if s.IsAvailableToEdit || s.IsAvailableToDelete {
		t.Errorf("current-day plan must not be editable or deletable")
	}
}
