package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mineplan/internal/core"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	if s.cacheSize != nil {
		checks["plan_cache"] = map[string]any{
			"entries": s.cacheSize(),
			"status":  "ok",
		}
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	// Prometheus-like text format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP plan_writes_total Monthly and daily plan writes by operation\n")
	fmt.Fprintf(w, "# TYPE plan_writes_total counter\n")
	fmt.Fprintf(w, "plan_writes_total{op=\"create\"} %d\n", s.appMetrics.plansCreated.Load())
	fmt.Fprintf(w, "plan_writes_total{op=\"update\"} %d\n", s.appMetrics.plansUpdated.Load())
	fmt.Fprintf(w, "plan_writes_total{op=\"delete\"} %d\n", s.appMetrics.plansDeleted.Load())
	fmt.Fprintf(w, "plan_writes_total{op=\"adjust\"} %d\n\n", s.appMetrics.daysAdjusted.Load())

	fmt.Fprintf(w, "# HELP plan_write_failures_total Rejected or failed plan writes\n")
	fmt.Fprintf(w, "# TYPE plan_write_failures_total counter\n")
	fmt.Fprintf(w, "plan_write_failures_total %d\n\n", s.appMetrics.failedWrites.Load())

	if s.cacheSize != nil {
		fmt.Fprintf(w, "# HELP plan_cache_entries Current cached monthly plans\n")
		fmt.Fprintf(w, "# TYPE plan_cache_entries gauge\n")
		fmt.Fprintf(w, "plan_cache_entries %d\n\n", s.cacheSize())
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP blocked_methods_total Requests refused for a blocked method\n")
	fmt.Fprintf(w, "# TYPE blocked_methods_total counter\n")
	fmt.Fprintf(w, "blocked_methods_total %d\n\n", securityMetrics.BlockedMethods)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	totals, err := ParseMonthlyTotals(w, r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	plan, err := s.plans.Create(r.Context(), totals)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.appMetrics.plansCreated.Add(1)

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", fmt.Sprintf("/api/plans/%d", plan.ID)).
		JSON(toMonthlyJSON(plan)).
		Write(w)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.plans.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toPageJSON(page)).Write(w)
}

func (s *Server) handlePlanByDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, r, &core.ValidationError{Field: "date", Reason: "is required"})
		return
	}
	date, err := core.ParseDate(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := s.plans.FindByMonth(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toMonthlyJSON(plan)).Write(w)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := s.plans.FindOne(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toMonthlyJSON(plan)).Write(w)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	patch, err := ParseMonthlyPatch(w, r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	plan, err := s.plans.Update(r.Context(), id, patch)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.appMetrics.plansUpdated.Add(1)

	NewResponse().JSON(toMonthlyJSON(plan)).Write(w)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	result, err := s.plans.Delete(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.appMetrics.plansDeleted.Add(1)

	NewResponse().JSON(deleteJSON{
		DeletedID:         result.DeletedID,
		DeletedDailyCount: result.DeletedDailyCount,
	}).Write(w)
}

// writeFailure records a failed write before reporting it.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.appMetrics.failedWrites.Add(1)
	writeError(w, r, err)
}
