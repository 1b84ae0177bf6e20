// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"payroll/internal/assistant"
	"payroll/internal/cache"
	"payroll/internal/core"
	"payroll/internal/ledger"
	applog "payroll/internal/log"
	"payroll/internal/middleware/ratelimit"
	"payroll/internal/middleware/security"
	"payroll/internal/middleware/trace"
)

// Options configures optional server collaborators.
type Options struct {
	Logger             *applog.Logger
	Bridge             *assistant.Bridge
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CleanupInterval    time.Duration
	Now                func() time.Time
}

// Server is the payroll API server.
type Server struct {
	http.Server

	store    *ledger.Store
	bridge   *assistant.Bridge
	logger   *applog.Logger
	clientIP func(*http.Request) string
	now      func() time.Time

	limiter      *ratelimit.Limiter
	caches       *cache.Manager
	reports      *cache.LRUCache[core.Report]
	dashboards   *cache.LRUCache[dashboardView]
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store *ledger.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Bridge == nil {
		opts.Bridge = assistant.NewBridge(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}

	resolver := security.NewClientIPResolver()
	s := &Server{
		store:      store,
		bridge:     opts.Bridge,
		logger:     opts.Logger.WithComponent(applog.ComponentHTTP),
		clientIP:   resolver.ClientIP,
		now:        opts.Now,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		caches:     cache.NewManager(),
		reports:    cache.NewLRUCache[core.Report](100, opts.CacheTTL),
		dashboards: cache.NewLRUCache[dashboardView](100, opts.CacheTTL),
	}
	s.caches.Register(s.reports)
	s.caches.Register(s.dashboards)
	s.caches.StartCleanup(opts.CleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/employees", s.handleListEmployees)
	mux.HandleFunc("POST /api/employees", s.handleCreateEmployee)
	mux.HandleFunc("PUT /api/employees/{id}", s.handleUpdateEmployee)
	mux.HandleFunc("DELETE /api/employees/{id}", s.handleDeleteEmployee)

	mux.HandleFunc("GET /api/withdrawals", s.handleListWithdrawals)
	mux.HandleFunc("POST /api/withdrawals", s.handleCreateWithdrawal)
	mux.HandleFunc("PUT /api/withdrawals/{id}", s.handleUpdateWithdrawal)
	mux.HandleFunc("DELETE /api/withdrawals/{id}", s.handleDeleteWithdrawal)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/reports", s.handleReport)
	mux.HandleFunc("GET /api/reports/years", s.handleReportYears)
	mux.HandleFunc("GET /api/reports/export.csv", s.handleExportCSV)

	mux.HandleFunc("POST /api/assistant", s.handleAssistant)

	limited := s.limiter.Middleware(s.clientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.clientIP(r), applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "عدد الطلبات كبير، حاول لاحقاً", "").Write(w)
	})(mux)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(limited)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           trace.NewMiddleware(opts.Logger, s.clientIP).Middleware(headers),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background routines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store not loaded"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func cacheKey(revision uint64, p core.Period) string {
	return strconv.FormatUint(revision, 10) + ":" + p.String()
}

// report returns the report for p, cached per store revision.
func (s *Server) report(ctx context.Context, p core.Period) core.Report {
	hit := true
	r := s.reports.GetOrCompute(cacheKey(s.store.Revision(), p), func() core.Report {
		hit = false
		snap := s.store.Snapshot()
		return core.BuildReport(snap.Employees, snap.Withdrawals, p)
	})
	if hit {
		s.logger.DebugContext(ctx, "Report cache hit", applog.FieldPeriod, p.String())
	}
	return r
}

// dashboardView is a dashboard plus the flags views need for empty states.
type dashboardView struct {
	core.Dashboard
	HasEmployees   bool `json:"hasEmployees"`
	HasWithdrawals bool `json:"hasWithdrawals"`
}

func (s *Server) dashboard(ctx context.Context, p core.Period) dashboardView {
	hit := true
	v := s.dashboards.GetOrCompute(cacheKey(s.store.Revision(), p), func() dashboardView {
		hit = false
		snap := s.store.Snapshot()
		return dashboardView{
			Dashboard:      core.Summarize(snap.Employees, snap.Withdrawals, p),
			HasEmployees:   len(snap.Employees) > 0,
			HasWithdrawals: len(snap.Withdrawals) > 0,
		}
	})
	if hit {
		s.logger.DebugContext(ctx, "Dashboard cache hit", applog.FieldPeriod, p.String())
	}
	return v
}
