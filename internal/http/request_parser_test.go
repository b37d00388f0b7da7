package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mineplan/internal/core"
)

func jsonRequest(body string) (*httptest.ResponseRecorder, *http.Request) {
	return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseMonthlyTotals(t *testing.T) {
	w, r := jsonRequest(`{"planDate":"2025-08-21","totalOreTarget":750000,"totalFleet":25}`)
	totals, err := ParseMonthlyTotals(w, r)
	if err != nil {
		t.Fatalf("ParseMonthlyTotals: %v", err)
	}
	if totals.PlanDate != core.NewDate(2025, 8, 21) {
		t.Errorf("PlanDate = %s", totals.PlanDate)
	}
	if totals.TotalOreTarget != 750000 || totals.TotalFleet != 25 || totals.TotalOBTarget != 0 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestParseMonthlyTotalsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty body", ``, ErrMalformedBody},
		{"not an object", `[1,2]`, ErrMalformedBody},
		{"trailing data", `{"planDate":"2025-08-01"} {}`, ErrMalformedBody},
		{"unknown field", `{"planDate":"2025-08-01","fleet":3}`, ErrMalformedBody},
		{"wrong type", `{"planDate":"2025-08-01","totalFleet":"many"}`, ErrMalformedBody},
		{"missing date", `{"totalFleet":3}`, core.ErrValidation},
		{"bad date", `{"planDate":"21/08/2025"}`, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, r := jsonRequest(tt.body)
			if _, err := ParseMonthlyTotals(w, r); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMonthlyTotalsTooLarge(t *testing.T) {
	body := `{"planDate":"2025-08-01","pad":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	w, r := jsonRequest(body)
	_, err := ParseMonthlyTotals(w, r)
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("err = %v, want MaxBytesError", err)
	}
}

func TestParseMonthlyPatch(t *testing.T) {
	w, r := jsonRequest(`{"totalObTarget":0,"planDate":"2025-09-01"}`)
	patch, err := ParseMonthlyPatch(w, r)
	if err != nil {
		t.Fatalf("ParseMonthlyPatch: %v", err)
	}
	if patch.TotalOBTarget == nil || *patch.TotalOBTarget != 0 {
		t.Error("explicit zero was dropped")
	}
	if patch.PlanDate == nil || *patch.PlanDate != core.NewDate(2025, 9, 1) {
		t.Errorf("PlanDate = %v", patch.PlanDate)
	}
	if patch.TotalOreTarget != nil || patch.TotalFleet != nil {
		t.Error("omitted fields must stay nil")
	}
}

func TestParseDailyFigures(t *testing.T) {
	w, r := jsonRequest(`{"obTarget":900,"oreTarget":300,"totalFleet":4}`)
	f, err := ParseDailyFigures(w, r)
	if err != nil {
		t.Fatalf("ParseDailyFigures: %v", err)
	}
	want := core.DailyFigures{OBTarget: 900, OreTarget: 300, TotalFleet: 4}
	if f != want {
		t.Fatalf("figures = %+v, want %+v", f, want)
	}
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    core.ListQuery
		wantErr string
	}{
		{"empty", "", core.ListQuery{}, ""},
		{"all", "year=2025&from=2025-01&to=2025-06&page=2&limit=10&sort=DESC",
			core.ListQuery{Year: 2025, From: "2025-01", To: "2025-06", Page: 2, Limit: 10, Sort: core.SortDesc}, ""},
		{"bad page", "page=two", core.ListQuery{}, "page"},
		{"bad limit", "limit=1.5", core.ListQuery{}, "limit"},
		{"bad sort", "sort=newest", core.ListQuery{}, "sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseListQuery(values)
			if tt.wantErr != "" {
				var verr *core.ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantErr {
					t.Fatalf("err = %v, want validation error on %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseListQuery: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("42"); err != nil || id != 42 {
		t.Fatalf("ParseID(42) = %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-3", "1e3", "abc"} {
		if _, err := ParseID(raw); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ParseID(%q) err = %v", raw, err)
		}
	}
}
