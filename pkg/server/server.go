// Package server exposes the planner over HTTP.
//
// # Routes
//
//	GET    /health                 build info and liveness
//	GET    /metrics                Prometheus metrics, when enabled
//	GET    /api/catalog            the active plant catalogue
//	POST   /api/plan               plan a garden sent in the request
//	POST   /api/decompose          decompose a garden sent in the request
//	GET    /api/gardens            list stored gardens
//	POST   /api/gardens            store a garden
//	GET    /api/gardens/{id}       fetch a stored garden
//	PUT    /api/gardens/{id}       replace a stored garden
//	DELETE /api/gardens/{id}       delete a stored garden
//	POST   /api/gardens/{id}/plan  plan a stored garden, optionally saving it
//
// Errors are JSON objects {"error": ..., "code": ...} whose HTTP status
// follows the error code (see [StatusFor]).
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/bedplan/pkg/catalog"
	"github.com/matzehuels/bedplan/pkg/observability"
	"github.com/matzehuels/bedplan/pkg/pipeline"
	"github.com/matzehuels/bedplan/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Deps are the server's collaborators.
type Deps struct {
	Runner  *pipeline.Runner
	Store   store.Store
	Catalog *catalog.Catalog
	Logger  *log.Logger

	// Defaults fills in options a request leaves unset.
	Defaults pipeline.Options

	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

// Server is the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	catalog  atomic.Pointer[catalog.Catalog]
	logger   *log.Logger
	defaults pipeline.Options
	metrics  http.Handler
}

// New creates a server. A nil catalogue uses the built-in one.
func New(d Deps) *Server {
	s := &Server{
		runner:   d.Runner,
		store:    d.Store,
		logger:   d.Logger,
		defaults: d.Defaults,
		metrics:  d.Metrics,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	cat := d.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	s.catalog.Store(cat)
	return s
}

// Catalog returns the active catalogue.
func (s *Server) Catalog() *catalog.Catalog { return s.catalog.Load() }

// SetCatalog swaps the active catalogue. In-flight requests keep the one
// they started with.
func (s *Server) SetCatalog(c *catalog.Catalog) {
	if c != nil {
		s.catalog.Store(c)
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.getCatalog)
		r.Post("/plan", s.plan)
		r.Post("/decompose", s.decompose)

		r.Route("/gardens", func(r chi.Router) {
			r.Get("/", s.listGardens)
			r.Post("/", s.createGarden)
			r.Get("/{id}", s.getGarden)
			r.Put("/{id}", s.updateGarden)
			r.Delete("/{id}", s.deleteGarden)
			r.Post("/{id}/plan", s.planGarden)
		})
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
