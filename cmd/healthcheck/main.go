// Package main provides a health probe for container health checks. It
// queries the /health endpoint and exits non-zero when the service is not
// in the expected state.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/nutrimom/api/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

type options struct {
	URL        string
	Timeout    time.Duration
	Verbose    bool
	Format     string
	Expect     string
	RetryCount int
	RetryDelay time.Duration
}

func main() {
	os.Exit(run(parseFlags()))
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.URL, "url", envOr("HEALTH_CHECK_URL", "http://localhost:8080/health"), "Health endpoint URL")
	flag.DurationVar(&o.Timeout, "timeout", 5*time.Second, "Request timeout")
	flag.BoolVar(&o.Verbose, "verbose", false, "Print individual checks")
	flag.StringVar(&o.Format, "format", "text", "Output format: text, json")
	flag.StringVar(&o.Expect, "expect", "healthy", "Minimum acceptable status: healthy, degraded")
	flag.IntVar(&o.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&o.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.Parse()
	return o
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(o options) int {
	client := &http.Client{Timeout: o.Timeout}

	var lastErr error
	for attempt := 0; attempt <= o.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(o.RetryDelay)
		}
		resp, err := fetch(client, o.URL)
		if err != nil {
			lastErr = err
			if o.Verbose {
				fmt.Fprintf(os.Stderr, "attempt %d failed: %v\n", attempt+1, err)
			}
			continue
		}
		output(resp, o)
		return exitCode(resp.Status, healthcheck.Status(o.Expect))
	}

	fmt.Fprintf(os.Stderr, "Health check failed after %d attempts: %v\n", o.RetryCount+1, lastErr)
	return exitCodeError
}

// probeResponse mirrors healthcheck.Response with durations in milliseconds
type probeResponse struct {
	Status          healthcheck.Status `json:"status"`
	Version         string             `json:"version"`
	TotalDurationMS float64            `json:"total_duration_ms"`
	Checks          []struct {
		Name       string             `json:"name"`
		Status     healthcheck.Status `json:"status"`
		Message    string             `json:"message"`
		DurationMS float64            `json:"duration_ms"`
	} `json:"checks"`
}

func fetch(client *http.Client, url string) (*probeResponse, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body probeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return &body, nil
}

func output(r *probeResponse, o options) {
	if o.Format == "json" {
		data, _ := json.MarshalIndent(r, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Status: %s (version %s, %.0fms)\n", r.Status, r.Version, r.TotalDurationMS)
	if o.Verbose {
		for _, c := range r.Checks {
			fmt.Printf("  %s: %s", c.Name, c.Status)
			if c.Message != "" {
				fmt.Printf(" (%s)", c.Message)
			}
			fmt.Printf(" [%.0fms]\n", c.DurationMS)
		}
	}
}

// exitCode succeeds when got is at least as good as expect
func exitCode(got, expect healthcheck.Status) int {
	rank := map[healthcheck.Status]int{
		healthcheck.StatusHealthy:   2,
		healthcheck.StatusDegraded:  1,
		healthcheck.StatusUnhealthy: 0,
	}
	want, ok := rank[expect]
	if !ok {
		want = rank[healthcheck.StatusHealthy]
	}
	if rank[got] >= want {
		return exitCodeSuccess
	}
	return exitCodeFailure
}
