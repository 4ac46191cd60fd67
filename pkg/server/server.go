// Package server hosts the double diamond generator over HTTP.
//
// The server is a thin host around [pipeline.Runner]: it captures form state
// from query strings or JSON bodies, resolves it with [config.Input.Resolve]
// and hands the result back as a live preview, a downloadable export or a
// JSON document.
//
// # Routes
//
//	GET  /               form page with inline preview; no query resets to defaults
//	GET  /api/preview    SVG for the query's form values
//	GET  /api/export     timestamped attachment (?format=svg|png|json)
//	POST /api/render     {"input": {...}, "formats": [...]} → SVG, geometry, warnings
//	GET  /api/defaults   default form state
//	GET  /healthz        liveness probe
//
// Every response carries an X-Request-ID header.
//
// [pipeline.Runner]: github.com/matzehuels/doublediamond/pkg/pipeline#Runner
// [config.Input.Resolve]: github.com/matzehuels/doublediamond/pkg/config#Input.Resolve
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
)

//go:embed templates/*.tmpl
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html.tmpl"))

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves the preview page and the generation API.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	defaults config.Input
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithDefaults sets the form state served on reset (default [config.DefaultInput]).
func WithDefaults(in config.Input) Option {
	return func(s *Server) { s.defaults = in.Clone() }
}

// WithClock sets the time source used for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server. A nil runner gets an uncached runner.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{
		runner:   runner,
		logger:   logger,
		defaults: config.DefaultInput(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/preview", s.handlePreview)
		r.Get("/export", s.handleExport)
		r.Post("/render", s.handleRender)
		r.Get("/defaults", s.handleDefaults)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
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
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
