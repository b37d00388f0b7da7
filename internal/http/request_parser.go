// Request parsing: JSON bodies into domain inputs and query strings into
// listing filters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mineplan/internal/core"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 64 << 10

// ErrMalformedBody is returned when a request body is not the expected JSON.
var ErrMalformedBody = errors.New("malformed request body")

// monthlyRequest is the body of POST and PATCH /api/plans. Pointer fields
// tell an omitted value from an explicit zero.
type monthlyRequest struct {
	PlanDate               *string  `json:"planDate"`
	AverageDayEWH          *float64 `json:"averageDayEwh"`
	AverageMonthEWH        *float64 `json:"averageMonthEwh"`
	TotalOBTarget          *float64 `json:"totalObTarget"`
	TotalOreTarget         *float64 `json:"totalOreTarget"`
	TotalQuarryTarget      *float64 `json:"totalQuarryTarget"`
	TotalSRTarget          *float64 `json:"totalSrTarget"`
	TotalOreShipmentTarget *float64 `json:"totalOreShipmentTarget"`
	TotalRemainingStock    *float64 `json:"totalRemainingStock"`
	TotalLeftoverStock     *float64 `json:"totalLeftoverStock"`
	TotalFleet             *int     `json:"totalFleet"`
}

// dailyRequest is the body of PUT /api/daily-plans/{date}.
type dailyRequest struct {
	AverageDayEWH     float64 `json:"averageDayEwh"`
	AverageShiftEWH   float64 `json:"averageShiftEwh"`
	OBTarget          float64 `json:"obTarget"`
	OreTarget         float64 `json:"oreTarget"`
	Quarry            float64 `json:"quarry"`
	OreShipmentTarget float64 `json:"oreShipmentTarget"`
	TotalFleet        int     `json:"totalFleet"`
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrMalformedBody)
	}
	return nil
}

// ParseMonthlyTotals decodes a create request. planDate is required; the
// remaining figures default to zero.
func ParseMonthlyTotals(w http.ResponseWriter, r *http.Request) (core.MonthlyTotals, error) {
	var req monthlyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.MonthlyTotals{}, err
	}
	if req.PlanDate == nil {
		return core.MonthlyTotals{}, &core.ValidationError{Field: "planDate", Reason: "is required"}
	}
	date, err := parsePlanDate(*req.PlanDate)
	if err != nil {
		return core.MonthlyTotals{}, err
	}

	return core.MonthlyTotals{
		PlanDate:               date,
		AverageDayEWH:          deref(req.AverageDayEWH),
		AverageMonthEWH:        deref(req.AverageMonthEWH),
		TotalOBTarget:          deref(req.TotalOBTarget),
		TotalOreTarget:         deref(req.TotalOreTarget),
		TotalQuarryTarget:      deref(req.TotalQuarryTarget),
		TotalSRTarget:          deref(req.TotalSRTarget),
		TotalOreShipmentTarget: deref(req.TotalOreShipmentTarget),
		TotalRemainingStock:    deref(req.TotalRemainingStock),
		TotalLeftoverStock:     deref(req.TotalLeftoverStock),
		TotalFleet:             deref(req.TotalFleet),
	}, nil
}

// ParseMonthlyPatch decodes a partial update. Omitted fields stay nil.
func ParseMonthlyPatch(w http.ResponseWriter, r *http.Request) (core.MonthlyPatch, error) {
	var req monthlyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.MonthlyPatch{}, err
	}

	patch := core.MonthlyPatch{
		AverageDayEWH:          req.AverageDayEWH,
		AverageMonthEWH:        req.AverageMonthEWH,
		TotalOBTarget:          req.TotalOBTarget,
		TotalOreTarget:         req.TotalOreTarget,
		TotalQuarryTarget:      req.TotalQuarryTarget,
		TotalSRTarget:          req.TotalSRTarget,
		TotalOreShipmentTarget: req.TotalOreShipmentTarget,
		TotalRemainingStock:    req.TotalRemainingStock,
		TotalLeftoverStock:     req.TotalLeftoverStock,
		TotalFleet:             req.TotalFleet,
	}
	if req.PlanDate != nil {
		date, err := parsePlanDate(*req.PlanDate)
		if err != nil {
			return core.MonthlyPatch{}, err
		}
		patch.PlanDate = &date
	}
	return patch, nil
}

// ParseDailyFigures decodes a manual day adjustment.
func ParseDailyFigures(w http.ResponseWriter, r *http.Request) (core.DailyFigures, error) {
	var req dailyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.DailyFigures{}, err
	}
	return core.DailyFigures(req), nil
}

// ParseListQuery reads listing filters from the query string. Pagination is
// normalized by the service.
func ParseListQuery(query url.Values) (core.ListQuery, error) {
	var (
		q   core.ListQuery
		err error
	)
	if q.Year, err = intParam(query, "year"); err != nil {
		return core.ListQuery{}, err
	}
	if q.Page, err = intParam(query, "page"); err != nil {
		return core.ListQuery{}, err
	}
	if q.Limit, err = intParam(query, "limit"); err != nil {
		return core.ListQuery{}, err
	}
	q.From = strings.TrimSpace(query.Get("from"))
	q.To = strings.TrimSpace(query.Get("to"))
	q.Sort = core.SortOrder(strings.ToLower(strings.TrimSpace(query.Get("sort"))))
	switch q.Sort {
	case "", core.SortAsc, core.SortDesc:
	default:
		return core.ListQuery{}, &core.ValidationError{Field: "sort", Reason: fmt.Sprintf("must be asc or desc, got %q", q.Sort)}
	}
	return q, nil
}

// ParseID reads a positive plan id from a path value.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Reason: fmt.Sprintf("invalid plan id %q", raw)}
	}
	return id, nil
}

func parsePlanDate(s string) (core.Date, error) {
	d, err := core.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: "planDate", Reason: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s)}
	}
	return d, nil
}

func intParam(query url.Values, name string) (int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.ValidationError{Field: name, Reason: fmt.Sprintf("must be an integer, got %q", raw)}
	}
	return v, nil
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
