// Package http serves the moneygr web interface.
package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"moneygr/internal/config"
	"moneygr/internal/core"
	"moneygr/internal/log"
	"moneygr/internal/lookup"
	"moneygr/internal/middleware/ratelimit"
	"moneygr/internal/middleware/security"
	"moneygr/internal/middleware/trace"
	"moneygr/internal/report"
	"moneygr/internal/services"
	appweb "moneygr/web"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Outcomes *services.OutcomeService
	Incomes  *services.IncomeService
	Reports  *report.Service
	Lookup   *lookup.Cache
	// Ready reports whether the data backend answers; nil means always ready.
	Ready  func(ctx context.Context) error
	Config *config.Config
	Logger *log.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
	// Templates and Static default to the embedded web assets.
	Templates fs.FS
	Static    fs.FS
}

type Server struct {
	http.Server
	deps     Deps
	renderer *renderer
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger

	shutdownOnce sync.Once
}

// NewServer parses the templates and builds the router.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Config == nil {
		deps.Config = config.Load()
	}
	if deps.Templates == nil {
		deps.Templates = appweb.TemplatesFS
	}
	if deps.Static == nil {
		sub, err := fs.Sub(appweb.StaticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("mount static assets: %w", err)
		}
		deps.Static = sub
	}

	rnd, err := newRenderer(deps.Templates)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector()
	s := &Server{
		deps:     deps,
		renderer: rnd,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.Config.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		logger:   logger,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.deps.Static))))

	r.Get("/", s.handleIndex)

	r.Route("/outcomes", func(r chi.Router) {
		r.Get("/", s.handleOutcomes)
		r.Post("/", s.handleCreateOutcome)
		r.Get("/{outcomeDate}", s.handleOutcomesOfDay)
	})
	r.Get("/incomes", s.handleIncomes)
	r.Post("/incomes", s.handleCreateIncome)

	r.Get("/report", s.handleReport)
	r.Get("/report/chart.png", s.handleReportChart)
	return r
}

// Shutdown stops the limiter and the HTTP server. Pending submissions are
// drained by the owner of the submitters.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics returns the request counters of the tracing middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.Metrics()
}

// user is the authenticated member id from the configured header, or the
// default user when the header is absent.
func (s *Server) user(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(s.deps.Config.UserHeader)); u != "" {
		return u
	}
	return s.deps.Config.DefaultUser
}

func (s *Server) today() core.Date {
	return core.DateOf(s.deps.Now())
}

// tables returns the lookup snapshot for the requesting user's session.
func (s *Server) tables(r *http.Request) (*lookup.Tables, error) {
	t, err := s.deps.Lookup.Tables(r.Context(), s.user(r))
	if err != nil {
		return nil, fmt.Errorf("load lookup tables: %w", err)
	}
	return t, nil
}
