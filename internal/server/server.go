// Package server provides the HTTP server and routing for the rotation service.
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

	"github.com/aristath/rotation/internal/database"
	"github.com/aristath/rotation/internal/events"
	"github.com/aristath/rotation/internal/metrics"
	"github.com/aristath/rotation/internal/modules/ledger"
	ledgerhandlers "github.com/aristath/rotation/internal/modules/ledger/handlers"
	rotationhandlers "github.com/aristath/rotation/internal/modules/rotation/handlers"
)

// Config holds server configuration
type Config struct {
	Log          zerolog.Logger
	Port         int
	DevMode      bool
	DataDir      string
	Databases    []*database.DB
	EventManager *events.Manager
	Metrics      *metrics.Registry
	Rotation     rotationhandlers.RotationService
	Ledger       *ledger.Repository
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	eventManager   *events.Manager
	metrics        *metrics.Registry
	rotation       rotationhandlers.RotationService
	ledger         *ledger.Repository
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		eventManager:   cfg.EventManager,
		metrics:        cfg.Metrics,
		rotation:       cfg.Rotation,
		ledger:         cfg.Ledger,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DataDir, cfg.Databases),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root router
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(devMode bool) {
	// Long-lived connections stay outside the timeout and compression middleware
	if s.eventManager != nil {
		stream := NewEventsStreamHandler(s.eventManager, s.log)
		s.router.Get("/api/events/ws", stream.ServeHTTP)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		if !devMode {
			r.Use(middleware.Compress(5))
		}

		r.Get("/health", s.handleHealth)
		if s.metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}

		r.Route("/api", func(r chi.Router) {
			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
				r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			})

			r.Route("/rotation", func(r chi.Router) {
				if s.ledger != nil {
					ledgerhandlers.NewHandler(s.ledger, s.log).RegisterRoutes(r)
				}
				if s.rotation != nil {
					rotationhandlers.NewHandler(s.rotation, s.log).RegisterRoutes(r)
				}
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
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
