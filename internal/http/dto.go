package http

import (
	"time"

	"github.com/shopspring/decimal"

	"mineplan/internal/core"
)

type dailyPlanJSON struct {
	ID                int64   `json:"id"`
	MonthlyPlanID     int64   `json:"monthlyPlanId"`
	Date              string  `json:"date"`
	IsCalendarDay     bool    `json:"isCalendarDay"`
	IsHolidayDay      bool    `json:"isHolidayDay"`
	IsAvailableDay    bool    `json:"isAvailableDay"`
	AverageDayEWH     float64 `json:"averageDayEwh"`
	AverageShiftEWH   float64 `json:"averageShiftEwh"`
	OBTarget          float64 `json:"obTarget"`
	OreTarget         float64 `json:"oreTarget"`
	Quarry            float64 `json:"quarry"`
	OreShipmentTarget float64 `json:"oreShipmentTarget"`
	SRTarget          float64 `json:"srTarget"`
	ShiftOBTarget     float64 `json:"shiftObTarget"`
	ShiftOreTarget    float64 `json:"shiftOreTarget"`
	ShiftQuarry       float64 `json:"shiftQuarry"`
	ShiftSRTarget     float64 `json:"shiftSrTarget"`
	DailyOldStock     float64 `json:"dailyOldStock"`
	RemainingStock    float64 `json:"remainingStock"`
	TotalFleet        int     `json:"totalFleet"`
}

type monthlyPlanJSON struct {
	ID                     int64           `json:"id"`
	PlanDate               string          `json:"planDate"`
	AverageDayEWH          float64         `json:"averageDayEwh"`
	AverageMonthEWH        float64         `json:"averageMonthEwh"`
	TotalOBTarget          float64         `json:"totalObTarget"`
	TotalOreTarget         float64         `json:"totalOreTarget"`
	TotalQuarryTarget      float64         `json:"totalQuarryTarget"`
	TotalSRTarget          float64         `json:"totalSrTarget"`
	TotalOreShipmentTarget float64         `json:"totalOreShipmentTarget"`
	TotalRemainingStock    float64         `json:"totalRemainingStock"`
	TotalLeftoverStock     float64         `json:"totalLeftoverStock"`
	TotalFleet             int             `json:"totalFleet"`
	TotalCalendarDays      int             `json:"totalCalendarDays"`
	TotalHolidayDays       int             `json:"totalHolidayDays"`
	TotalAvailableDays     int             `json:"totalAvailableDays"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
	DailyPlans             []dailyPlanJSON `json:"dailyPlans"`
}

type summaryJSON struct {
	ID                  int64           `json:"id"`
	PlanDate            string          `json:"planDate"`
	MonthLabel          string          `json:"monthLabel"`
	AvailableDays       int             `json:"availableDays"`
	HolidayDays         int             `json:"holidayDays"`
	AverageMonthEWH     decimal.Decimal `json:"averageMonthEwh"`
	OBTarget            decimal.Decimal `json:"obTarget"`
	OreTarget           decimal.Decimal `json:"oreTarget"`
	QuarryTarget        decimal.Decimal `json:"quarryTarget"`
	SRTarget            decimal.Decimal `json:"srTarget"`
	OreShipmentTarget   decimal.Decimal `json:"oreShipmentTarget"`
	LeftoverStock       decimal.Decimal `json:"leftoverStock"`
	IsAvailableToEdit   bool            `json:"isAvailableToEdit"`
	IsAvailableToDelete bool            `json:"isAvailableToDelete"`
}

type pageJSON struct {
	Items []summaryJSON `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type deleteJSON struct {
	DeletedID         int64 `json:"deletedId"`
	DeletedDailyCount int   `json:"deletedDailyCount"`
}

func toDailyJSON(d core.DailyPlan) dailyPlanJSON {
	return dailyPlanJSON{
		ID:                d.ID,
		MonthlyPlanID:     d.MonthlyPlanID,
		Date:              d.Date.String(),
		IsCalendarDay:     d.IsCalendarDay,
		IsHolidayDay:      d.IsHolidayDay,
		IsAvailableDay:    d.IsAvailableDay,
		AverageDayEWH:     d.AverageDayEWH,
		AverageShiftEWH:   d.AverageShiftEWH,
		OBTarget:          d.OBTarget,
		OreTarget:         d.OreTarget,
		Quarry:            d.Quarry,
		OreShipmentTarget: d.OreShipmentTarget,
		SRTarget:          d.SRTarget,
		ShiftOBTarget:     d.ShiftOBTarget,
		ShiftOreTarget:    d.ShiftOreTarget,
		ShiftQuarry:       d.ShiftQuarry,
		ShiftSRTarget:     d.ShiftSRTarget,
		DailyOldStock:     d.DailyOldStock,
		RemainingStock:    d.RemainingStock,
		TotalFleet:        d.TotalFleet,
	}
}

func toMonthlyJSON(p core.MonthlyPlan) monthlyPlanJSON {
	daily := make([]dailyPlanJSON, 0, len(p.Daily))
	for _, d := range p.Daily {
		daily = append(daily, toDailyJSON(d))
	}
	return monthlyPlanJSON{
		ID:                     p.ID,
		PlanDate:               p.PlanDate.String(),
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
		TotalCalendarDays:      p.TotalCalendarDays,
		TotalHolidayDays:       p.TotalHolidayDays,
		TotalAvailableDays:     p.TotalAvailableDays,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
		DailyPlans:             daily,
	}
}

func toPageJSON(p core.Page[core.MonthlySummary]) pageJSON {
	items := make([]summaryJSON, 0, len(p.Items))
	for _, s := range p.Items {
		items = append(items, summaryJSON{
			ID:                  s.ID,
			PlanDate:            s.PlanDate.String(),
			MonthLabel:          s.MonthLabel,
			AvailableDays:       s.AvailableDays,
			HolidayDays:         s.HolidayDays,
			AverageMonthEWH:     s.AverageMonthEWH,
			OBTarget:            s.OBTarget,
			OreTarget:           s.OreTarget,
			QuarryTarget:        s.QuarryTarget,
			SRTarget:            s.SRTarget,
			OreShipmentTarget:   s.OreShipmentTarget,
			LeftoverStock:       s.LeftoverStock,
			IsAvailableToEdit:   s.IsAvailableToEdit,
			IsAvailableToDelete: s.IsAvailableToDelete,
		})
	}
	return pageJSON{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit}
}
