package sheets

import (
	"mineplan/internal/core"
)

// TabPrefix is prepended to the period to name a month tab.
const TabPrefix = "Plan "

// Header is the first row of every month tab.
var Header = []any{
	"Date", "Calendar", "Holiday", "Available",
	"Avg Day EWH", "Avg Shift EWH",
	"OB Target", "Ore Target", "Quarry", "Ore Shipment", "SR Target",
	"Shift OB", "Shift Ore", "Shift Quarry", "Shift SR",
	"Old Stock", "Remaining Stock", "Fleet",
}

// TabName returns the tab title for a period, e.g. "Plan 2025-08".
func TabName(period string) string {
	return TabPrefix + period
}

// Rows renders the header plus one row per day. Figures are rounded to two
// decimals and written as plain strings so the sheet parses them as numbers.
func Rows(plan core.MonthlyPlan) [][]any {
	rows := make([][]any, 0, len(plan.Daily)+1)
	rows = append(rows, Header)
	for _, d := range plan.Daily {
		rows = append(rows, []any{
			d.Date.String(),
			yesNo(d.IsCalendarDay),
			yesNo(d.IsHolidayDay),
			yesNo(d.IsAvailableDay),
			fixed(d.AverageDayEWH),
			fixed(d.AverageShiftEWH),
			fixed(d.OBTarget),
			fixed(d.OreTarget),
			fixed(d.Quarry),
			fixed(d.OreShipmentTarget),
			fixed(d.SRTarget),
			fixed(d.ShiftOBTarget),
			fixed(d.ShiftOreTarget),
			fixed(d.ShiftQuarry),
			fixed(d.ShiftSRTarget),
			fixed(d.DailyOldStock),
			fixed(d.RemainingStock),
			d.TotalFleet,
		})
	}
	return rows
}

func fixed(v float64) string {
	return core.Round2(v).StringFixed(2)
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
