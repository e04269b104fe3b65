// Package api exposes the scoring engine, record store, and draft store over
// HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/pitchscore/internal/draft"
	"github.com/sells-group/pitchscore/internal/metrics"
	"github.com/sells-group/pitchscore/internal/notify"
	"github.com/sells-group/pitchscore/internal/scoring"
	"github.com/sells-group/pitchscore/internal/store"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins  []string
	AnalyzeRPS   float64
	AnalyzeBurst int
}

// Deps are the collaborators a Server routes requests to. Engine, Drafts,
// Notifier and Metrics fall back to defaults when nil.
type Deps struct {
	Store    store.Store
	Drafts   draft.Store
	Engine   *scoring.Engine
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

// Server holds the router and its dependencies.
type Server struct {
	store    store.Store
	drafts   draft.Store
	engine   *scoring.Engine
	notifier notify.Notifier
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	opts     Options
	now      func() time.Time
	router   chi.Router
}

// New builds a Server and its routes.
func New(deps Deps, opts Options) *Server {
	s := &Server{
		store:    deps.Store,
		drafts:   deps.Drafts,
		engine:   deps.Engine,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if s.drafts == nil {
		s.drafts = draft.NewMemoryStore()
	}
	if s.engine == nil {
		s.engine = scoring.Default()
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if len(s.opts.CORSOrigins) == 0 {
		s.opts.CORSOrigins = []string{"*"}
	}
	if s.opts.AnalyzeRPS <= 0 {
		s.opts.AnalyzeRPS = 20
	}
	if s.opts.AnalyzeBurst <= 0 {
		s.opts.AnalyzeBurst = 40
	}
	s.limiter = rate.NewLimiter(rate.Limit(s.opts.AnalyzeRPS), s.opts.AnalyzeBurst)
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ping", s.handlePing)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.With(s.rateLimit).Post("/analyze", s.handleAnalyze)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.handleListRecords)
		r.Post("/", s.handleCreateRecord)
		r.Get("/export", s.handleExportRecords)
		r.Get("/{id}", s.handleGetRecord)
		r.Patch("/{id}", s.handlePatchRecord)
		r.Post("/{id}/publish", s.handlePublishRecord)
	})

	r.Route("/drafts/{key}", func(r chi.Router) {
		r.Get("/", s.handleGetDraft)
		r.Put("/", s.handlePutDraft)
		r.Delete("/", s.handleDeleteDraft)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Warn("health check: store ping failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"store":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"endpoint": "/ping",
		"ts":       s.now().Format(time.RFC3339),
	})
}
