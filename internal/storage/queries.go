package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mineplan/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const timestampLayout = time.RFC3339Nano

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries runs the plan statements against a database or a transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const monthlyColumns = `id, plan_date, average_day_ewh, average_month_ewh, total_ob_target,
	total_ore_target, total_quarry_target, total_sr_target, total_ore_shipment_target,
	total_remaining_stock, total_leftover_stock, total_fleet, total_calendar_days,
	total_holiday_days, total_available_days, created_at, updated_at`

const dailyColumns = `id, monthly_plan_id, date, is_calendar_day, is_holiday_day, is_available_day,
	average_day_ewh, average_shift_ewh, ob_target, ore_target, quarry, ore_shipment_target,
	sr_target, shift_ob_target, shift_ore_target, shift_quarry, shift_sr_target,
	daily_old_stock, remaining_stock, total_fleet`

type scanner interface {
	Scan(dest ...any) error
}

func scanMonthly(row scanner) (core.MonthlyPlan, error) {
	var (
		p                    core.MonthlyPlan
		planDate             string
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &planDate, &p.AverageDayEWH, &p.AverageMonthEWH, &p.TotalOBTarget,
		&p.TotalOreTarget, &p.TotalQuarryTarget, &p.TotalSRTarget, &p.TotalOreShipmentTarget,
		&p.TotalRemainingStock, &p.TotalLeftoverStock, &p.TotalFleet, &p.TotalCalendarDays,
		&p.TotalHolidayDays, &p.TotalAvailableDays, &createdAt, &updatedAt)
	if err != nil {
		return core.MonthlyPlan{}, err
	}
	if p.PlanDate, err = core.ParseDate(planDate); err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("decode plan_date %q: %w", planDate, err)
	}
	p.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	p.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
	return p, nil
}

func scanDaily(row scanner) (core.DailyPlan, error) {
	var (
		d    core.DailyPlan
		date string
	)
	err := row.Scan(&d.ID, &d.MonthlyPlanID, &date, &d.IsCalendarDay, &d.IsHolidayDay, &d.IsAvailableDay,
		&d.AverageDayEWH, &d.AverageShiftEWH, &d.OBTarget, &d.OreTarget, &d.Quarry, &d.OreShipmentTarget,
		&d.SRTarget, &d.ShiftOBTarget, &d.ShiftOreTarget, &d.ShiftQuarry, &d.ShiftSRTarget,
		&d.DailyOldStock, &d.RemainingStock, &d.TotalFleet)
	if err != nil {
		return core.DailyPlan{}, err
	}
	if d.Date, err = core.ParseDate(date); err != nil {
		return core.DailyPlan{}, fmt.Errorf("decode date %q: %w", date, err)
	}
	return d, nil
}

func (q *Queries) getMonthly(ctx context.Context, what string, query string, args ...any) (core.MonthlyPlan, error) {
	p, err := scanMonthly(q.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyPlan{}, fmt.Errorf("monthly plan %s: %w", what, core.ErrNotFound)
	}
	if err != nil {
		return core.MonthlyPlan{}, storageErr("get monthly plan", err)
	}
	return p, nil
}

func (q *Queries) FindMonthlyByID(ctx context.Context, id int64) (core.MonthlyPlan, error) {
	return q.getMonthly(ctx, fmt.Sprintf("id %d", id),
		`SELECT `+monthlyColumns+` FROM monthly_plans WHERE id = ?`, id)
}

func (q *Queries) FindMonthlyByPeriod(ctx context.Context, period string) (core.MonthlyPlan, error) {
	return q.getMonthly(ctx, "for "+period,
		`SELECT `+monthlyColumns+` FROM monthly_plans WHERE period = ?`, period)
}

func (q *Queries) FindMonthlyByPlanDate(ctx context.Context, date core.Date) (core.MonthlyPlan, error) {
	return q.getMonthly(ctx, "dated "+date.String(),
		`SELECT `+monthlyColumns+` FROM monthly_plans WHERE plan_date = ?`, date.String())
}

func (q *Queries) ListMonthly(ctx context.Context, lq core.ListQuery) ([]core.MonthlyPlan, int, error) {
	lq = lq.Normalize()

	var (
		where []string
		args  []any
	)
	if lq.Year != 0 {
		where = append(where, "substr(period, 1, 4) = ?")
		args = append(args, fmt.Sprintf("%04d", lq.Year))
	}
	if lq.From != "" {
		where = append(where, "period >= ?")
		args = append(args, lq.From)
	}
	if lq.To != "" {
		where = append(where, "period <= ?")
		args = append(args, lq.To)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM monthly_plans`+clause, args...).Scan(&total); err != nil {
		return nil, 0, storageErr("count monthly plans", err)
	}

	order := "ASC"
	if lq.Sort == core.SortDesc {
		order = "DESC"
	}
	query := `SELECT ` + monthlyColumns + ` FROM monthly_plans` + clause +
		` ORDER BY plan_date ` + order + `, id ` + order + ` LIMIT ? OFFSET ?`
	rows, err := q.db.QueryContext(ctx, query, append(args, lq.Limit, lq.Offset())...)
	if err != nil {
		return nil, 0, storageErr("list monthly plans", err)
	}
	defer rows.Close()

	var out []core.MonthlyPlan
	for rows.Next() {
		p, err := scanMonthly(rows)
		if err != nil {
			return nil, 0, storageErr("scan monthly plan", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("iterate monthly plans", err)
	}
	return out, total, nil
}

func (q *Queries) ListDaily(ctx context.Context, monthlyID int64) ([]core.DailyPlan, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+dailyColumns+` FROM daily_plans WHERE monthly_plan_id = ? ORDER BY date ASC`, monthlyID)
	if err != nil {
		return nil, storageErr("list daily plans", err)
	}
	defer rows.Close()

	var out []core.DailyPlan
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, storageErr("scan daily plan", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate daily plans", err)
	}
	return out, nil
}

func (q *Queries) getDaily(ctx context.Context, what string, query string, args ...any) (core.DailyPlan, error) {
	d, err := scanDaily(q.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.DailyPlan{}, fmt.Errorf("daily plan %s: %w", what, core.ErrNotFound)
	}
	if err != nil {
		return core.DailyPlan{}, storageErr("get daily plan", err)
	}
	return d, nil
}

func (q *Queries) FindDailyByDate(ctx context.Context, date core.Date) (core.DailyPlan, error) {
	return q.getDaily(ctx, "for "+date.String(),
		`SELECT `+dailyColumns+` FROM daily_plans WHERE date = ?`, date.String())
}

func (q *Queries) FindLatestDailyBefore(ctx context.Context, date core.Date) (core.DailyPlan, error) {
	return q.getDaily(ctx, "before "+date.String(),
		`SELECT `+dailyColumns+` FROM daily_plans WHERE date < ? ORDER BY date DESC LIMIT 1`, date.String())
}

func (q *Queries) SaveMonthly(ctx context.Context, p *core.MonthlyPlan) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	args := []any{
		p.PlanDate.String(), p.Period(), p.AverageDayEWH, p.AverageMonthEWH, p.TotalOBTarget,
		p.TotalOreTarget, p.TotalQuarryTarget, p.TotalSRTarget, p.TotalOreShipmentTarget,
		p.TotalRemainingStock, p.TotalLeftoverStock, p.TotalFleet, p.TotalCalendarDays,
		p.TotalHolidayDays, p.TotalAvailableDays, p.UpdatedAt.Format(timestampLayout),
	}

	if p.ID == 0 {
		res, err := q.db.ExecContext(ctx, `INSERT INTO monthly_plans (
			plan_date, period, average_day_ewh, average_month_ewh, total_ob_target,
			total_ore_target, total_quarry_target, total_sr_target, total_ore_shipment_target,
			total_remaining_stock, total_leftover_stock, total_fleet, total_calendar_days,
			total_holiday_days, total_available_days, updated_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append(args, p.CreatedAt.Format(timestampLayout))...)
		if err != nil {
			return monthlyWriteErr("insert monthly plan", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storageErr("read monthly plan id", err)
		}
		p.ID = id
		return nil
	}

	res, err := q.db.ExecContext(ctx, `UPDATE monthly_plans SET
		plan_date = ?, period = ?, average_day_ewh = ?, average_month_ewh = ?, total_ob_target = ?,
		total_ore_target = ?, total_quarry_target = ?, total_sr_target = ?, total_ore_shipment_target = ?,
		total_remaining_stock = ?, total_leftover_stock = ?, total_fleet = ?, total_calendar_days = ?,
		total_holiday_days = ?, total_available_days = ?, updated_at = ?
		WHERE id = ?`, append(args, p.ID)...)
	if err != nil {
		return monthlyWriteErr("update monthly plan", err)
	}
	return requireRow(res, fmt.Sprintf("monthly plan id %d", p.ID))
}

func (q *Queries) SaveDailyBatch(ctx context.Context, rows []core.DailyPlan) ([]core.DailyPlan, error) {
	out := make([]core.DailyPlan, len(rows))
	for i, d := range rows {
		args := []any{
			d.MonthlyPlanID, d.Date.String(), d.IsCalendarDay, d.IsHolidayDay, d.IsAvailableDay,
			d.AverageDayEWH, d.AverageShiftEWH, d.OBTarget, d.OreTarget, d.Quarry, d.OreShipmentTarget,
			d.SRTarget, d.ShiftOBTarget, d.ShiftOreTarget, d.ShiftQuarry, d.ShiftSRTarget,
			d.DailyOldStock, d.RemainingStock, d.TotalFleet,
		}
		if d.ID == 0 {
			res, err := q.db.ExecContext(ctx, `INSERT INTO daily_plans (
				monthly_plan_id, date, is_calendar_day, is_holiday_day, is_available_day,
				average_day_ewh, average_shift_ewh, ob_target, ore_target, quarry, ore_shipment_target,
				sr_target, shift_ob_target, shift_ore_target, shift_quarry, shift_sr_target,
				daily_old_stock, remaining_stock, total_fleet
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
			if err != nil {
				return nil, storageErr("insert daily plan "+d.Date.String(), err)
			}
			if d.ID, err = res.LastInsertId(); err != nil {
				return nil, storageErr("read daily plan id", err)
			}
		} else {
			res, err := q.db.ExecContext(ctx, `UPDATE daily_plans SET
				monthly_plan_id = ?, date = ?, is_calendar_day = ?, is_holiday_day = ?, is_available_day = ?,
				average_day_ewh = ?, average_shift_ewh = ?, ob_target = ?, ore_target = ?, quarry = ?,
				ore_shipment_target = ?, sr_target = ?, shift_ob_target = ?, shift_ore_target = ?,
				shift_quarry = ?, shift_sr_target = ?, daily_old_stock = ?, remaining_stock = ?, total_fleet = ?
				WHERE id = ?`, append(args, d.ID)...)
			if err != nil {
				return nil, storageErr("update daily plan "+d.Date.String(), err)
			}
			if err := requireRow(res, fmt.Sprintf("daily plan id %d", d.ID)); err != nil {
				return nil, err
			}
		}
		out[i] = d
	}
	return out, nil
}

func (q *Queries) DeleteDailyBatch(ctx context.Context, rows []core.DailyPlan) error {
	for _, d := range rows {
		if _, err := q.db.ExecContext(ctx, `DELETE FROM daily_plans WHERE id = ?`, d.ID); err != nil {
			return storageErr("delete daily plan "+d.Date.String(), err)
		}
	}
	return nil
}

func (q *Queries) DeleteMonthly(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM monthly_plans WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete monthly plan", err)
	}
	return requireRow(res, fmt.Sprintf("monthly plan id %d", id))
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}

// monthlyWriteErr maps the period unique index to ErrDuplicatePeriod so the
// loser of a concurrent create sees the same error as the pre-check.
func monthlyWriteErr(op string, err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(serr.Error(), "monthly_plans.period") {
		return fmt.Errorf("%s: %w", op, core.ErrDuplicatePeriod)
	}
	return storageErr(op, err)
}
