// Package server exposes runs over HTTP.
//
// Routes:
//
//	GET  /healthz                     liveness and build version
//	GET  /metrics                     Prometheus exposition
//	GET  /runs?scenario=&limit=       archived run summaries, newest first
//	POST /runs?mode=&reduce=&refresh= run the TOML scenario in the body
//	GET  /runs/{id}                   full result of a run
//	GET  /runs/{id}/nodes/{node}      one node, by numeric id or escaped name
//
// Errors are JSON bodies of the form {"error": {"code": ..., "message": ...}}.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/railsim/internal/archive"
	"github.com/matzehuels/railsim/pkg/observability"
	"github.com/matzehuels/railsim/pkg/pipeline"
)

// DefaultMaxBody bounds the size of a submitted scenario.
const DefaultMaxBody = 1 << 20

// Config holds the dependencies of a Server.
type Config struct {
	Runner  *pipeline.Runner
	Archive archive.Archive
	Logger  *log.Logger

	// Gatherer backs /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	// Workers bounds the scheduler of every submitted run.
	Workers int

	// MaxBody bounds request bodies. Zero selects DefaultMaxBody.
	MaxBody int64
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates a server and its routes. A nil runner runs without a cache,
// a nil archive selects an in-memory one and a nil logger selects
// log.Default().
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Archive == nil {
		cfg.Archive = archive.NewMemory()
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	s := &Server{cfg: cfg}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Post("/", s.handleSubmitRun)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/nodes/{node}", s.handleGetNode)
	})
	s.router = r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down,
// waiting up to shutdownTimeout for requests in flight.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down", "timeout", shutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.cfg.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// instrument reports requests to the HTTP hooks, labelled with the
// matched route pattern rather than the raw path.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		defer func() {
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		}()
		next.ServeHTTP(ww, r)
	})
}
