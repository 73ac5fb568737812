package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

// RecordStore is the write and list side of the record store.
type RecordStore interface {
	AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	AddPayment(ctx context.Context, in core.PaymentInput) (core.Payment, error)
	AddShift(ctx context.Context, in core.ShiftInput) (core.Shift, error)
	SetPaymentStatus(ctx context.Context, id string, status core.PaymentStatus) (core.Payment, error)
	ListTransactions() []core.Transaction
	ListPayments() []core.Payment
	ListShifts() []core.Shift
}

// Dashboard answers the aggregate queries.
type Dashboard interface {
	Totals() core.Totals
	SalaryPeriods(ref core.Date) core.SalarySummary
	Notifications(ref core.Date) []core.Notification
	CategoryBreakdown(kind core.TransactionType, order services.CategoryOrder) []core.CategoryAmount
	MonthlyBreakdown() []core.MonthBreakdown
	Overview(ref core.Date) services.Overview
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	// Readiness checks run by /readyz, keyed by dependency name.
	Readiness map[string]ReadinessCheck
	// Now overrides the clock used for default dates.
	Now func() time.Time
}

type Server struct {
	http.Server
	records   RecordStore
	dashboard Dashboard
	logger    *applog.Logger
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	readiness map[string]ReadinessCheck
	now       func() time.Time
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, records RecordStore, dashboard Dashboard, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	detector := security.NewDetector()
	s := &Server{
		records:   records,
		dashboard: dashboard,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		readiness: opts.Readiness,
		now:       now,
		started:   now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/shifts", s.handleCreateShift)
	mux.HandleFunc("GET /api/shifts", s.handleListShifts)
	mux.HandleFunc("POST /api/payments", s.handleCreatePayment)
	mux.HandleFunc("GET /api/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/payments/{id}/pay", s.handlePayPayment)
	mux.HandleFunc("PATCH /api/payments/{id}", s.handleUpdatePaymentStatus)

	mux.HandleFunc("GET /api/summary/totals", s.handleTotals)
	mux.HandleFunc("GET /api/summary/salary", s.handleSalary)
	mux.HandleFunc("GET /api/summary/notifications", s.handleNotifications)
	mux.HandleFunc("GET /api/summary/categories", s.handleCategories)
	mux.HandleFunc("GET /api/summary/monthly", s.handleMonthly)
	mux.HandleFunc("GET /api/overview", s.handleOverview)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = applog.Middleware(logger)(h)
	h = s.tracer.Middleware(h)
	h = detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// today is the current UTC calendar date.
func (s *Server) today() core.Date {
	return core.DateOf(s.now().UTC())
}

// fail writes the response for err, logging anything that maps to a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			r.Pattern, applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
	}
	resp.Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{
		"status": "ok",
		"uptime": s.now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady runs every readiness check and reports 503 if any fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.readiness))
	for name, check := range s.readiness {
		if err := check(ctx); err != nil {
			slog.WarnContext(ctx, "Readiness check failed", "check", name, "error", err)
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	NewJSONResponse().Status(code).Data(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}
