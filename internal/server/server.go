// Package server exposes the preview pipeline over HTTP: status, document,
// diagnostics, visibility, tags, preferences, build history, an event
// stream and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/specpreview/internal/editor"
	"git.home.luguber.info/inful/specpreview/internal/eventstore"
	"git.home.luguber.info/inful/specpreview/internal/events"
	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/health"
	"git.home.luguber.info/inful/specpreview/internal/metrics"
	"git.home.luguber.info/inful/specpreview/internal/preferences"
	"git.home.luguber.info/inful/specpreview/internal/preview"
	"git.home.luguber.info/inful/specpreview/internal/server/middleware"
	"git.home.luguber.info/inful/specpreview/internal/storage"
	"git.home.luguber.info/inful/specpreview/internal/tags"
)

// Deps are the components the server reads and drives.
type Deps struct {
	Controller  *preview.Controller
	Store       storage.Store
	Editor      *editor.Surface
	Tags        *tags.Registry
	Preferences *preferences.Preferences
	Health      health.Checker
	Bus         *events.Bus
	// History is nil when build history is disabled.
	History *eventstore.History
	// Metrics is nil when metrics are disabled.
	Metrics *prom.Registry
}

// Server is the preview HTTP server.
type Server struct {
	deps    Deps
	router  *chi.Mux
	server  *http.Server
	hub     *Hub
	errors  *ferrors.HTTPErrorAdapter
	started time.Time
}

// New builds the router for deps.
func New(addr string, deps Deps) *Server {
	s := &Server{
		deps:    deps,
		router:  chi.NewRouter(),
		hub:     NewHub(),
		errors:  ferrors.NewHTTPErrorAdapter(nil),
		started: time.Now(),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Chain(slog.Default(), s.errors))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/events", s.hub.ServeHTTP)
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", metrics.HTTPHandler(s.deps.Metrics))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/document", s.handleGetDocument)
		r.Put("/document", s.handlePutDocument)
		r.Post("/reload", s.handleReload)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Get("/paths", s.handlePaths)
		r.Get("/tags", s.handleGetTags)
		r.Put("/tags", s.handlePutTags)
		r.Put("/preferences", s.handlePutPreferences)
		r.Post("/focus", s.handleFocus)
		r.Get("/history", s.handleHistory)
	})
}

// Handler returns the router; used by tests and embedding callers.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the event stream hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves until ctx is canceled, then shuts down gracefully. Bus events
// are forwarded to event stream clients while the server runs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "listen").
			WithContext("addr", s.server.Addr).Build()
	}

	if s.deps.Bus != nil {
		go s.hub.Forward(ctx, s.deps.Bus)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", slog.String("addr", ln.Addr().String()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "serve").Build()
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", slog.Any("error", err))
	}
	return nil
}
