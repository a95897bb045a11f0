package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enable: true, RequestsPerMin: 60, BurstSize: 2})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("user:1"))
	assert.True(t, limiter.Allow("user:1"))
	assert.False(t, limiter.Allow("user:1"), "burst exhausted")
	assert.True(t, limiter.Allow("user:2"), "buckets are per caller")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("user:1"), "one token refills per second")
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enable: true, RequestsPerMin: 60, BurstSize: 1})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("ip:10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Minute)
	limiter.Allow("ip:10.0.0.2")

	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "ip:10.0.0.2")
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enable: false, RequestsPerMin: 1, BurstSize: 1})
	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("ip:1.2.3.4"))
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enable: true, RequestsPerMin: 1, BurstSize: 1})
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID uint) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/scan", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send(5).Code)

	rec := send(5)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"TOO_MANY_REQUESTS"`)

	assert.Equal(t, http.StatusOK, send(6).Code)
}
