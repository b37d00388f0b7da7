// Package memory is an in-process PlanStore for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mineplan/internal/core"
	"mineplan/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

// WithTx runs fn against a copy of the store and swaps it in only when fn
// succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.PlanTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) FindMonthlyByID(ctx context.Context, id int64) (core.MonthlyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindMonthlyByID(ctx, id)
}

func (s *Store) FindMonthlyByPeriod(ctx context.Context, period string) (core.MonthlyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindMonthlyByPeriod(ctx, period)
}

func (s *Store) FindMonthlyByPlanDate(ctx context.Context, date core.Date) (core.MonthlyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindMonthlyByPlanDate(ctx, date)
}

func (s *Store) ListMonthly(ctx context.Context, q core.ListQuery) ([]core.MonthlyPlan, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListMonthly(ctx, q)
}

func (s *Store) ListDaily(ctx context.Context, monthlyID int64) ([]core.DailyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListDaily(ctx, monthlyID)
}

func (s *Store) FindDailyByDate(ctx context.Context, date core.Date) (core.DailyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindDailyByDate(ctx, date)
}

func (s *Store) FindLatestDailyBefore(ctx context.Context, date core.Date) (core.DailyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindLatestDailyBefore(ctx, date)
}

// state holds the tables. It is not safe for concurrent use; Store guards it.
type state struct {
	monthly     map[int64]core.MonthlyPlan
	daily       map[int64]core.DailyPlan
	nextMonthly int64
	nextDaily   int64
}

func newState() *state {
	return &state{
		monthly: map[int64]core.MonthlyPlan{},
		daily:   map[int64]core.DailyPlan{},
	}
}

func (st *state) clone() *state {
	c := &state{
		monthly:     make(map[int64]core.MonthlyPlan, len(st.monthly)),
		daily:       make(map[int64]core.DailyPlan, len(st.daily)),
		nextMonthly: st.nextMonthly,
		nextDaily:   st.nextDaily,
	}
	for k, v := range st.monthly {
		c.monthly[k] = v
	}
	for k, v := range st.daily {
		c.daily[k] = v
	}
	return c
}

func (st *state) FindMonthlyByID(_ context.Context, id int64) (core.MonthlyPlan, error) {
	p, ok := st.monthly[id]
	if !ok {
		return core.MonthlyPlan{}, fmt.Errorf("monthly plan id %d: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (st *state) FindMonthlyByPeriod(_ context.Context, period string) (core.MonthlyPlan, error) {
	for _, p := range st.monthly {
		if p.Period() == period {
			return p, nil
		}
	}
	return core.MonthlyPlan{}, fmt.Errorf("monthly plan for %s: %w", period, core.ErrNotFound)
}

func (st *state) FindMonthlyByPlanDate(_ context.Context, date core.Date) (core.MonthlyPlan, error) {
	for _, p := range st.monthly {
		if p.PlanDate.Equal(date.Time) {
			return p, nil
		}
	}
	return core.MonthlyPlan{}, fmt.Errorf("monthly plan dated %s: %w", date, core.ErrNotFound)
}

func (st *state) ListMonthly(_ context.Context, q core.ListQuery) ([]core.MonthlyPlan, int, error) {
	q = q.Normalize()

	var matched []core.MonthlyPlan
	for _, p := range st.monthly {
		period := p.Period()
		if q.Year != 0 && p.PlanDate.Year() != q.Year {
			continue
		}
		if q.From != "" && period < q.From {
			continue
		}
		if q.To != "" && period > q.To {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.PlanDate.Equal(b.PlanDate.Time) {
			if q.Sort == core.SortDesc {
				return a.PlanDate.After(b.PlanDate.Time)
			}
			return a.PlanDate.Before(b.PlanDate.Time)
		}
		if q.Sort == core.SortDesc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return append([]core.MonthlyPlan(nil), matched[start:end]...), total, nil
}

func (st *state) ListDaily(_ context.Context, monthlyID int64) ([]core.DailyPlan, error) {
	var out []core.DailyPlan
	for _, d := range st.daily {
		if d.MonthlyPlanID == monthlyID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (st *state) FindDailyByDate(_ context.Context, date core.Date) (core.DailyPlan, error) {
	for _, d := range st.daily {
		if d.Date.Equal(date.Time) {
			return d, nil
		}
	}
	return core.DailyPlan{}, fmt.Errorf("daily plan for %s: %w", date, core.ErrNotFound)
}

func (st *state) FindLatestDailyBefore(_ context.Context, date core.Date) (core.DailyPlan, error) {
	var (
		best  core.DailyPlan
		found bool
	)
	for _, d := range st.daily {
		if d.Date.Before(date.Time) && (!found || d.Date.After(best.Date.Time)) {
			best, found = d, true
		}
	}
	if !found {
		return core.DailyPlan{}, fmt.Errorf("daily plan before %s: %w", date, core.ErrNotFound)
	}
	return best, nil
}

func (st *state) SaveMonthly(_ context.Context, p *core.MonthlyPlan) error {
	for id, other := range st.monthly {
		if id != p.ID && other.Period() == p.Period() {
			return fmt.Errorf("save monthly plan %s: %w", p.Period(), core.ErrDuplicatePeriod)
		}
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	if p.ID == 0 {
		st.nextMonthly++
		p.ID = st.nextMonthly
	} else if _, ok := st.monthly[p.ID]; !ok {
		return fmt.Errorf("monthly plan id %d: %w", p.ID, core.ErrNotFound)
	}

	stored := *p
	stored.Daily = nil
	st.monthly[p.ID] = stored
	return nil
}

func (st *state) SaveDailyBatch(_ context.Context, rows []core.DailyPlan) ([]core.DailyPlan, error) {
	out := make([]core.DailyPlan, len(rows))
	for i, d := range rows {
		if _, ok := st.monthly[d.MonthlyPlanID]; !ok {
			return nil, fmt.Errorf("save daily plan %s: parent %d missing: %w", d.Date, d.MonthlyPlanID, core.ErrStorage)
		}
		for id, other := range st.daily {
			if id != d.ID && other.Date.Equal(d.Date.Time) {
				return nil, fmt.Errorf("save daily plan %s: date already taken: %w", d.Date, core.ErrStorage)
			}
		}
		if d.ID == 0 {
			st.nextDaily++
			d.ID = st.nextDaily
		} else if _, ok := st.daily[d.ID]; !ok {
			return nil, fmt.Errorf("daily plan id %d: %w", d.ID, core.ErrNotFound)
		}
		st.daily[d.ID] = d
		out[i] = d
	}
	return out, nil
}

func (st *state) DeleteDailyBatch(_ context.Context, rows []core.DailyPlan) error {
	for _, d := range rows {
		delete(st.daily, d.ID)
	}
	return nil
}

func (st *state) DeleteMonthly(_ context.Context, id int64) error {
	if _, ok := st.monthly[id]; !ok {
		return fmt.Errorf("monthly plan id %d: %w", id, core.ErrNotFound)
	}
	for did, d := range st.daily {
		if d.MonthlyPlanID == id {
			delete(st.daily, did)
		}
	}
	delete(st.monthly, id)
	return nil
}
