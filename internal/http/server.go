// Package http serves the JSON API over the monthly and daily planning
// services.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"mineplan/internal/core"
	"mineplan/internal/log"
	"mineplan/internal/middleware/ratelimit"
	"mineplan/internal/middleware/security"
	"mineplan/internal/middleware/trace"
)

// PlanService is the monthly plan surface the API exposes.
type PlanService interface {
	Create(ctx context.Context, totals core.MonthlyTotals) (core.MonthlyPlan, error)
	Update(ctx context.Context, id int64, patch core.MonthlyPatch) (core.MonthlyPlan, error)
	Delete(ctx context.Context, id int64) (core.DeleteResult, error)
	FindOne(ctx context.Context, id int64) (core.MonthlyPlan, error)
	FindByMonth(ctx context.Context, date core.Date) (core.MonthlyPlan, error)
	List(ctx context.Context, q core.ListQuery) (core.Page[core.MonthlySummary], error)
}

// DailyPlanService is the manual single-day surface.
type DailyPlanService interface {
	Get(ctx context.Context, date core.Date) (core.DailyPlan, error)
	Adjust(ctx context.Context, date core.Date, figures core.DailyFigures) (core.DailyPlan, error)
}

// Options configures a Server.
type Options struct {
	Plans PlanService
	Daily DailyPlanService
	// Ready reports whether backing dependencies are reachable. Nil means
	// always ready.
	Ready func(ctx context.Context) error
	// CacheSize reports the number of cached monthly plans for /metrics.
	CacheSize          func() int
	Logger             *log.Logger
	RateLimitPerMinute int
}

type appMetrics struct {
	plansCreated atomic.Int64
	plansUpdated atomic.Int64
	plansDeleted atomic.Int64
	daysAdjusted atomic.Int64
	failedWrites atomic.Int64
	uptime       time.Time
}

// Server is the JSON API server.
type Server struct {
	http.Server
	plans     PlanService
	daily     DailyPlanService
	ready     func(ctx context.Context) error
	cacheSize func() int
	logger    *log.Logger

	traceMiddleware  *trace.Middleware
	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	limitCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		plans:            opts.Plans,
		daily:            opts.Daily,
		ready:            opts.Ready,
		cacheSize:        opts.CacheSize,
		logger:           logger.WithComponent(log.ComponentHTTP),
		traceMiddleware:  trace.NewMiddleware(),
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(limitCfg),
	}
	s.appMetrics.uptime = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/plans", s.handleCreatePlan)
	mux.HandleFunc("GET /api/plans", s.handleListPlans)
	mux.HandleFunc("GET /api/plans/by-date", s.handlePlanByDate)
	mux.HandleFunc("GET /api/plans/{id}", s.handleGetPlan)
	mux.HandleFunc("PATCH /api/plans/{id}", s.handleUpdatePlan)
	mux.HandleFunc("DELETE /api/plans/{id}", s.handleDeletePlan)

	mux.HandleFunc("GET /api/daily-plans/{date}", s.handleGetDaily)
	mux.HandleFunc("PUT /api/daily-plans/{date}", s.handleAdjustDaily)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// middleware wraps h with the request pipeline, outermost first: tracing,
// request logging, security headers, probe detection and rate limiting.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit)(h)
	h = s.securityDetector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.AccessLog(s.securityDetector.ExtractClientIP)(h)
	h = log.RequestIDMiddleware(trace.FromRequest)(h)
	h = log.Middleware(s.logger)(h)
	return s.traceMiddleware.Middleware(h)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later").Write(w)
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
