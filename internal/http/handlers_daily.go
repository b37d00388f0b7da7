package http

import (
	"net/http"

	"mineplan/internal/core"
)

func (s *Server) handleGetDaily(w http.ResponseWriter, r *http.Request) {
	date, err := core.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := s.daily.Get(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toDailyJSON(day)).Write(w)
}

// handleAdjustDaily replaces the base figures of one existing day. Derived
// shift, ratio and stock fields are recomputed by the service.
func (s *Server) handleAdjustDaily(w http.ResponseWriter, r *http.Request) {
	date, err := core.ParseDate(r.PathValue("date"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	figures, err := ParseDailyFigures(w, r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	day, err := s.daily.Adjust(r.Context(), date, figures)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.appMetrics.daysAdjusted.Add(1)

	NewResponse().JSON(toDailyJSON(day)).Write(w)
}
