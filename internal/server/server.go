// Package server provides the HTTP API over the document store and the
// pipeline trigger.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"LegalScanner/internal/config"
	"LegalScanner/internal/domain"
	"LegalScanner/internal/ports"
)

// Runner triggers a pipeline execution; satisfied by usecase.Pipeline.
type Runner interface {
	Run(ctx context.Context, topic string) (domain.RunReport, error)
}

// Server is the HTTP API for stored documents and pipeline runs.
type Server struct {
	repository ports.DocumentRepository
	runner     Runner
	registry   *prometheus.Registry
	cfg        config.ServerConfig
	logger     *slog.Logger
	server     *http.Server

	// base context for background runs triggered over HTTP; they must
	// outlive the request that started them.
	runCtx context.Context
}

// New creates a server with the given dependencies.
func New(repo ports.DocumentRepository, runner Runner, registry *prometheus.Registry, cfg config.ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		repository: repo,
		runner:     runner,
		registry:   registry,
		cfg:        cfg,
		logger:     logger,
		runCtx:     context.Background(),
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	s.runCtx = ctx

	s.server = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	if s.logger != nil {
		s.logger.Info("starting http server", "addr", s.cfg.Addr)
	}
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/documents", s.handleListAll)
	r.Get("/api/documents/{topic}", s.handleListByTopic)
	r.Post("/api/track_click", s.handleTrackClick)
	r.Post("/run", s.handleRun)
	r.Get("/health", s.handleHealth)

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	return r
}
