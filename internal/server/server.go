// Package server provides the HTTP server and routing for Drachma.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/clients/exchangerate"
	"github.com/mstamatakis/drachma/internal/config"
	"github.com/mstamatakis/drachma/internal/events"
	"github.com/mstamatakis/drachma/internal/importer"
	importshandlers "github.com/mstamatakis/drachma/internal/modules/imports/handlers"
	ledgerhandlers "github.com/mstamatakis/drachma/internal/modules/ledger/handlers"
	referencehandlers "github.com/mstamatakis/drachma/internal/modules/reference/handlers"
	"github.com/mstamatakis/drachma/internal/scheduler"
	"github.com/mstamatakis/drachma/internal/session"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Cfg       *config.Config
	Session   *session.Session
	Bus       *events.Bus
	Pipeline  *importer.Pipeline
	Refresher *exchangerate.Refresher
	Jobs      []scheduler.Job
	Scheduler *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	session        *session.Session
	bus            *events.Bus
	pipeline       *importer.Pipeline
	refresher      *exchangerate.Refresher
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Cfg,
		session:   cfg.Session,
		bus:       cfg.Bus,
		pipeline:  cfg.Pipeline,
		refresher: cfg.Refresher,
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Session, cfg.Scheduler, cfg.Jobs)

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Events stream (SSE) before the module routes.
		eventsStreamHandler := NewEventsStreamHandler(s.bus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})

		ledgerHandler := ledgerhandlers.NewHandler(s.session, s.log)
		ledgerHandler.RegisterRoutes(r)

		referenceHandler := referencehandlers.NewHandler(s.session, s.refresher, s.cfg.BaseCurrency, s.log)
		referenceHandler.RegisterRoutes(r)

		importsHandler := importshandlers.NewHandler(s.session, s.pipeline, s.bus, s.log)
		importsHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
