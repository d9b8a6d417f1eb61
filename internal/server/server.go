// Package server exposes page editing and export over HTTP.
//
// Every session is an independent [layout.Store] persisted in a
// [session.Store]. Requests against one session are serialized with a
// per-session lock; exports are serialized across the whole server since
// they read and write the same translation namespaces.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pagecraft/internal/metrics"
	"github.com/matzehuels/pagecraft/pkg/buildinfo"
	"github.com/matzehuels/pagecraft/pkg/config"
	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/pipeline"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/session"
)

// Defaults applied by New.
const (
	DefaultTimeout         = 60 * time.Second
	DefaultCleanupInterval = 10 * time.Minute
)

// Options configures a Server.
type Options struct {
	// Config supplies export options and the session TTL. Required.
	Config *config.Config

	// Runner executes exports. Required.
	Runner *pipeline.Runner

	// Catalog holds the component registry. Nil means the builtin catalog.
	Catalog *config.CatalogHolder

	// Sessions stores editing sessions. Nil means an in-memory store.
	Sessions session.Store

	// Metrics, when set, records per-route request metrics.
	Metrics *metrics.Collector

	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer

	Logger  *log.Logger
	Timeout time.Duration
}

// Server is the HTTP adapter.
type Server struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	catalog  *config.CatalogHolder
	sessions session.Store
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	logger   *log.Logger
	timeout  time.Duration

	locks    sync.Map // session id -> *sync.Mutex
	exportMu sync.Mutex
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server: no configuration")
	}
	if opts.Runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server: no export runner")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Catalog == nil {
		h, err := config.NewCatalogHolder("", opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Catalog = h
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	s := &Server{
		cfg:      opts.Config,
		runner:   opts.Runner,
		catalog:  opts.Catalog,
		sessions: opts.Sessions,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
	}
	s.runner.Registry = s.catalog.Get()
	s.catalog.OnChange(s.applyCatalog)
	return s, nil
}

// applyCatalog points exports at a reloaded catalog. Source cache keys
// include the catalog hash, so cached output for the old catalog is not
// reused.
func (s *Server) applyCatalog(reg *registry.Registry) {
	s.exportMu.Lock()
	defer s.exportMu.Unlock()
	s.runner.Registry = reg
	s.logger.Info("export catalog updated", "components", reg.Len())
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))

		r.Get("/components", s.listComponents)
		r.Get("/components/{type}", s.getComponent)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Delete("/", s.deleteSession)
				r.Post("/clear", s.clearLayout)
				r.Get("/preview", s.renderPreview)
				r.Post("/preview", s.togglePreview)
				r.Put("/selection", s.selectComponent)
				r.Delete("/selection", s.clearSelection)
				r.Post("/components", s.addComponent)
				r.Patch("/components/{cid}", s.updateComponent)
				r.Delete("/components/{cid}", s.removeComponent)
				r.Post("/components/{cid}/move", s.moveComponent)
				r.Post("/components/{cid}/duplicate", s.duplicateComponent)
				r.Get("/outline.svg", s.outline)
				r.Post("/export", s.export)
			})
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired sessions are swept periodically.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go s.sweep(ctx, done)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) sweep(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(DefaultCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.sessions.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
			}
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}

func (s *Server) registry() *registry.Registry {
	return s.catalog.Get()
}

// lock serializes requests against one session and returns the unlock
// function.
func (s *Server) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
