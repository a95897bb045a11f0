package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutrimom/api/pkg/healthcheck"
)

func TestMetricsCollector_BusinessMetrics(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.RecordPlan(1, true, 10*time.Millisecond)
	m.RecordPlan(3, false, 20*time.Millisecond)
	m.RecordScan("image", 2, true)
	m.RecordMealLog("created")
	m.RecordMealLog("created")
	m.RecordCatalogLoad(true)
	m.ObserveQuery("query", "food_menus", time.Millisecond, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.plansTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plansTotal.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansTotal.WithLabelValues("image", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mealLogsTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbQueryErrors.WithLabelValues("query", "food_menus")))
}

func TestMetricsCollector_HTTPMiddleware_UsesRoutePattern(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Post("/api/v1/meal-logs/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/meal-logs/abc/confirm", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/meal-logs/{id}/confirm", "404")))
}

func TestOpsRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetricsCollector(zap.NewNop())
	m.RecordMealLog("confirmed")
	health := healthcheck.New("test", zap.NewNop())
	health.Register("static", healthcheck.NewCustomChecker("static", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		return healthcheck.StatusHealthy, "", nil
	}))
	router := NewOpsRouter(m, health)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `nutrimom_meal_logs_total{action="confirmed"} 1`))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(context.Background(), TracingConfig{}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
