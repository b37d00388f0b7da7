package core

import "time"

// Calendar is the day classification of one month.
type Calendar struct {
	Days      int
	Holidays  int
	Available int
}

// DaysInMonth returns the number of days in the month containing d.
func DaysInMonth(d Date) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// HolidaysInMonth counts the Sundays in the month containing d.
func HolidaysInMonth(d Date) int {
	first := d.FirstOfMonth()
	n := DaysInMonth(d)
	count := 0
	for i := 0; i < n; i++ {
		if IsHoliday(first.AddDays(i)) {
			count++
		}
	}
	return count
}

// AvailableDays is DaysInMonth minus HolidaysInMonth.
func AvailableDays(d Date) int {
	return DaysInMonth(d) - HolidaysInMonth(d)
}

// IsHoliday reports whether d is a Sunday, the only holiday rule.
func IsHoliday(d Date) bool {
	return d.Weekday() == time.Sunday
}

// Classify returns all three counts for d's month.
func Classify(d Date) Calendar {
	days := DaysInMonth(d)
	holidays := HolidaysInMonth(d)
	return Calendar{
		Days:      days,
		Holidays:  holidays,
		Available: days - holidays,
	}
}

// IsStrictlyFuture reports whether planDate lies after now: a later year, a
// later month of the same year, or a later day of the same month.
func IsStrictlyFuture(planDate Date, now time.Time) bool {
	switch {
	case planDate.Year() != now.Year():
		return planDate.Year() > now.Year()
	case planDate.Month() != now.Month():
		return planDate.Month() > now.Month()
	default:
		return planDate.Day() > now.Day()
	}
}
