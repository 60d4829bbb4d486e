// Package api provides the HTTP API server and handlers for the PodSkip server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/podskipapp/podskip-server/internal/http/response"
	"github.com/podskipapp/podskip-server/internal/service"
	"github.com/podskipapp/podskip-server/internal/sse"
	"github.com/podskipapp/podskip-server/internal/store"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Episode   *service.EpisodeService
	Detection *service.DetectionService
	Playback  *service.PlaybackService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	services   *Services
	sseHandler *sse.Handler
	sseManager *sse.Manager
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, services *Services, sseManager *sse.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("PodSkip API", "1.0.0")
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:      store,
		services:   services,
		sseHandler: sse.NewHandler(sseManager, logger),
		sseManager: sseManager,
		router:     router,
		api:        api,
		logger:     logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Plain chi routes: SSE needs a streaming ResponseWriter, the
	// health check stays dependency-free.
	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)

	s.registerEpisodeRoutes()
	s.registerDetectionRoutes()
	s.registerPlaybackRoutes()
}

// handleHealthCheck reports liveness plus store readiness.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.Ping(); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "store unavailable", s.logger)
		return
	}
	response.Success(w, map[string]any{
		"status":      "healthy",
		"sse_clients": s.sseManager.ClientCount(),
	}, s.logger)
}
