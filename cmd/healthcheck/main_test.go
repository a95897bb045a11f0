package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nutrimom/api/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		got, expect healthcheck.Status
		want        int
	}{
		{healthcheck.StatusHealthy, healthcheck.StatusHealthy, exitCodeSuccess},
		{healthcheck.StatusDegraded, healthcheck.StatusHealthy, exitCodeFailure},
		{healthcheck.StatusDegraded, healthcheck.StatusDegraded, exitCodeSuccess},
		{healthcheck.StatusUnhealthy, healthcheck.StatusDegraded, exitCodeFailure},
		{healthcheck.StatusHealthy, "bogus", exitCodeSuccess},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.got, tt.expect), "%s vs %s", tt.got, tt.expect)
	}
}

func TestRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"degraded","version":"1.0.0","checks":[{"name":"redis","status":"degraded"}]}`))
	}))
	defer srv.Close()

	o := options{URL: srv.URL, Timeout: time.Second, Expect: "healthy"}
	assert.Equal(t, exitCodeFailure, run(o))

	o.Expect = "degraded"
	assert.Equal(t, exitCodeSuccess, run(o))

	o.URL = "http://127.0.0.1:1/health"
	assert.Equal(t, exitCodeError, run(o))
}
