package apiserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/nutrimom/api/internal/infrastructure/http/handlers"
	"github.com/nutrimom/api/internal/infrastructure/http/middleware"
	"github.com/nutrimom/api/internal/infrastructure/monitoring"
	"github.com/nutrimom/api/internal/ports/inbound"
	"github.com/nutrimom/api/pkg/healthcheck"
	"github.com/nutrimom/api/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "server-test-secret"

func newTestServer(t *testing.T) (*APIServer, *testutils.MockRecommendationService, *monitoring.MetricsCollector) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			WriteTimeout:      5 * time.Second,
			MaxBodyBytes:      1 << 20,
			EnableCORS:        true,
			AllowedOrigins:    []string{"*"},
			EnableCompression: true,
			EnableHTTP2:       true,
		},
		Auth:      config.AuthConfig{JWTSecret: secret, UserIDClaim: "user_id"},
		RateLimit: config.RateLimitConfig{Enable: true, RequestsPerMin: 60, BurstSize: 1},
	}

	logger := zap.NewNop()
	service := new(testutils.MockRecommendationService)
	metrics := monitoring.NewMetricsCollector(logger)
	health := healthcheck.New("test", logger)

	server, err := NewAPIServer(
		cfg,
		logger,
		handlers.NewRecommendationHandlers(service, 1<<20, logger),
		middleware.NewAuthenticator(cfg.Auth, logger),
		middleware.NewRateLimiter(cfg.RateLimit),
		metrics,
		health,
	)
	require.NoError(t, err)
	return server, service, metrics
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAPIServer_Health(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Server().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestAPIServer_RequiresAuthentication(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nutrition/targets", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestAPIServer_AuthenticatedRoute(t *testing.T) {
	server, service, metrics := newTestServer(t)
	service.On("Targets", mock.Anything, uint(9)).
		Return(&inbound.TargetsDTO{UserID: 9, Role: "UMUM"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nutrition/targets", nil)
	req.Header.Set("Authorization", bearer(t, 9))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":9`)
	service.AssertExpectations(t)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `route="/api/v1/nutrition/targets"`)
}

func TestAPIServer_ScanIsRateLimited(t *testing.T) {
	server, _, _ := newTestServer(t)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil)
		req.Header.Set("Authorization", bearer(t, 3))
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, send(), "empty scan body is rejected by the handler")
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestAPIServer_OpenAPI(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/meal-logs/{id}/confirm")
}

func TestAPIServer_UnknownRoute(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}
