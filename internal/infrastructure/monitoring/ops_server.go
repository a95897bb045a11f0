package monitoring

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrimom/api/pkg/healthcheck"
)

// OpsServer serves metrics and health probes on a separate port so they
// stay off the public API
type OpsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewOpsRouter builds the operations routes
func NewOpsRouter(metrics *MetricsCollector, health *healthcheck.HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", health.Handler())
	router.GET("/health/live", health.LivenessHandler())
	router.GET("/health/ready", health.ReadinessHandler())

	return router
}

// NewOpsServer creates the operations server listening on port
func NewOpsServer(port int, metrics *MetricsCollector, health *healthcheck.HealthCheck, logger *zap.Logger) *OpsServer {
	return &OpsServer{
		server: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(port)),
			Handler:           NewOpsRouter(metrics, health),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.Named("ops"),
	}
}

// Start serves in the background
func (s *OpsServer) Start() {
	go func() {
		s.logger.Info("Starting operations server", zap.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Operations server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server
func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
