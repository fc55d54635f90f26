// Package server exposes internal/engine's operations as a JSON HTTP API
// under /api/v1/users/{userID}/..., modeled on the teacher's chi-based
// handler-per-route style.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsengine/internal/config"
	"newsengine/internal/engine"
	"newsengine/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP adapter in front of the ranking engine.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	eng        *engine.Engine
	config     config.Server
	log        *slog.Logger
}

// New creates an HTTP server backed by eng.
func New(eng *engine.Engine, cfg config.Server) *Server {
	s := &Server{
		router: chi.NewRouter(),
		eng:    eng,
		config: cfg,
		log:    logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(securityHeaders)

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if s.config.RateLimit.Enabled {
		s.router.Use(middleware.Throttle(100))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Get("/onboarded", s.handleIsOnboarded)
		r.With(noCache).Get("/onboarding-articles", s.handleGetOnboardingArticles)
		r.Post("/onboarding", s.handleCompleteOnboarding)

		r.With(noCache).Get("/feed", s.handleRank)

		r.Post("/articles/{articleID}/view", s.handleRecordView)
		r.Post("/articles/{articleID}/deep-dive", s.handleRecordDeepDive)
		r.Post("/articles/{articleID}/not-interested", s.handleRecordNotInterested)

		r.Get("/interactions/ids", s.handleGetInteractedIDs)
		r.Get("/interactions/history", s.handleGetInteractionHistory)
		r.Get("/stats", s.handleGetStats)

		r.Get("/health/info", s.handleGetInfoHealth)
		r.Get("/health/hierarchical", s.handleGetHierarchicalHealth)
		r.Post("/health/group", s.handleGroupSimilarArticles)
		r.Post("/health/snapshot", s.handleRecordHealthSnapshot)
		r.Get("/health/history", s.handleGetHealthHistory)
	})
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Router returns the chi router, useful for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
