// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/nutrimom/api/internal/infrastructure/http/handlers"
	"github.com/nutrimom/api/internal/infrastructure/http/middleware"
	"github.com/nutrimom/api/internal/infrastructure/monitoring"
	"github.com/nutrimom/api/pkg/healthcheck"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const compressionLevel = 5

// APIServer serves the versioned JSON API
type APIServer struct {
	config   config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	router   *chi.Mux
	handlers *handlers.RecommendationHandlers
	auth     *middleware.Authenticator
	limiter  *middleware.RateLimiter
	metrics  *monitoring.MetricsCollector
	health   *healthcheck.HealthCheck
	openAPI  *OpenAPIHandler
}

// NewAPIServer creates a new API server instance. metrics may be nil.
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	h *handlers.RecommendationHandlers,
	auth *middleware.Authenticator,
	limiter *middleware.RateLimiter,
	metrics *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
) (*APIServer, error) {
	s := &APIServer{
		config:   cfg.Server,
		logger:   log.Named("api-server"),
		handlers: h,
		auth:     auth,
		limiter:  limiter,
		metrics:  metrics,
		health:   health,
		openAPI:  NewOpenAPIHandler(log),
	}

	s.router = s.setupRoutes()

	var handler http.Handler = otelhttp.NewHandler(s.router, "nutrimom-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	s.server = &http.Server{
		Addr:           cfg.Server.Addr(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger),
	}

	if cfg.Server.EnableHTTP2 {
		h2s := &http2.Server{IdleTimeout: cfg.Server.IdleTimeout}
		if err := http2.ConfigureServer(s.server, h2s); err != nil {
			return nil, err
		}
		// cleartext HTTP/2 for clients behind a TLS terminating proxy
		handler = h2c.NewHandler(handler, h2s)
	}
	s.server.Handler = handler

	return s, nil
}

// setupRoutes configures the API routes
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.config.EnableCORS {
		r.Use(middleware.CORS(s.config.AllowedOrigins))
	}
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	if s.config.WriteTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.WriteTimeout))
	}
	if s.config.EnableCompression {
		r.Use(middleware.Compress(compressionLevel))
	}
	r.Use(middleware.MaxBodyBytes(s.config.MaxBodyBytes))

	r.Get("/health", s.health.HTTPHandler())

	r.Get("/api/v1/openapi.yaml", s.openAPI.ServeOpenAPISpec)
	r.Get("/api/v1/openapi.json", s.openAPI.ServeOpenAPIJSON)
	r.Get("/api/v1/docs", s.openAPI.ServeSwaggerUI)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		s.setupAPIV1Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.RespondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]string{"code": "NOT_FOUND", "message": "Route not found"},
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.RespondJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error": map[string]string{"code": "METHOD_NOT_ALLOWED", "message": "Method not allowed"},
		})
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints. The caller is authenticated.
func (s *APIServer) setupAPIV1Routes(r chi.Router) {
	h := s.handlers

	r.Get("/nutrition/targets", h.Targets)

	r.Get("/recommendations", h.Recommendations)
	r.Post("/recommendations", h.Recommendations)

	r.With(s.limiter.Middleware).Post("/scan", h.Scan)

	r.Route("/meal-logs", func(r chi.Router) {
		r.Get("/", h.ListMealLogs)
		r.Post("/", h.CreateMealLog)
		r.Post("/{id}/confirm", h.ConfirmMealLog)
	})

	r.Get("/preferences", h.GetPreference)
	r.Put("/preferences", h.SavePreference)
}

// Router exposes the route tree without the server level wrappers
func (s *APIServer) Router() http.Handler {
	return s.router
}

// Start binds the listen address and serves in the background. Bind
// errors are returned synchronously.
func (s *APIServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting API server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("http2", s.config.EnableHTTP2),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the underlying HTTP server instance
func (s *APIServer) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the API server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
