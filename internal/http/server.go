package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const maxUploadBytes = 10 << 20

// Config holds the server settings taken from the process configuration.
type Config struct {
	Addr         string
	RateLimitRPM int
}

// Dependencies are the services the handlers call.
type Dependencies struct {
	Transactions *services.TransactionService
	Analytics    *services.AnalyticsService
	Metrics      *metrics.Recorder
	Logger       *log.Logger
}

type Server struct {
	http.Server
	transactions *services.TransactionService
	analytics    *services.AnalyticsService
	metrics      *metrics.Recorder
	logger       *log.Logger
	structured   *log.StructuredLogger
	detector     *security.Detector
	rateLimiter  *ratelimit.Limiter
	now          func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		transactions: deps.Transactions,
		analytics:    deps.Analytics,
		metrics:      deps.Metrics,
		logger:       logger,
		structured:   log.NewStructuredLogger(logger),
		detector:     security.NewDetector(),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM}),
		now:          time.Now,
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(s.observe).Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.FromRequest))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

	r.Get("/healthz", handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/export.csv", s.handleExportCSV)

		r.Route("/api", func(r chi.Router) {
			r.Get("/analytics", s.handleAnalytics)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/summary", s.handleSummary)
			r.Get("/category_breakdown", s.handleCategoryBreakdown)
			r.Get("/monthly_trend", s.handleMonthlyTrend)
			r.Get("/available_years", s.handleAvailableYears)

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleCreateTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
				r.Post("/delete_month", s.handleDeleteMonth)
				r.Post("/delete_year", s.handleDeleteYear)
				r.Post("/upload", s.handleUpload)
			})
		})
	})

	return r
}

// observe runs once per request, after chi has resolved the route pattern.
func (s *Server) observe(r *http.Request, status int, took time.Duration) {
	clientIP := s.detector.ExtractClientIP(r)
	s.structured.LogHTTPEnd(r.Context(), r, status, took.Milliseconds(), clientIP)

	if s.detector.DetectSuspiciousRequest(r) {
		s.logger.WarnContext(r.Context(), "Suspicious request",
			log.FieldClientIP, clientIP,
			log.FieldPath, r.URL.Path,
			log.FieldUserAgent, r.UserAgent())
	}

	if s.metrics != nil {
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		s.metrics.RecordHTTP(route, status, took)
	}
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}
