package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/core/scheduler"
	apperrors "github.com/domainscout/domainscout/internal/errors"
	"github.com/domainscout/domainscout/internal/server/handlers"
)

func newFailingHealthManager() *handlers.HealthManager {
	hm := handlers.NewHealthManager("test")
	hm.RegisterChecker("store", handlers.CheckFunc(func(ctx context.Context) error {
		return fmt.Errorf("store offline")
	}))
	return hm
}

type stubResolver struct {
	available map[string]bool
}

func (s *stubResolver) Resolve(ctx context.Context, domain string) core.AvailabilityResult {
	return core.AvailabilityResult{
		Domain:    domain,
		Available: s.available[domain],
		Provenance: core.Provenance{
			Source: "rdap",
		},
	}
}

type stubBatch struct {
	resolver *stubResolver
	err      error
}

func (s *stubBatch) ResolveBatch(ctx context.Context, domains []string, onResult scheduler.OnResult, opts core.BatchOptions) (core.BatchSummary, error) {
	if s.err != nil {
		return core.BatchSummary{}, s.err
	}
	summary := core.BatchSummary{}
	for _, domain := range domains {
		result := s.resolver.Resolve(ctx, domain)
		if result.Available {
			summary.AvailableFound++
		}
		summary.Resolved++
		onResult(result)
	}
	return summary, nil
}

func newTestServer(t *testing.T) (*Server, *stubResolver) {
	t.Helper()
	resolver := &stubResolver{available: map[string]bool{"nexify.io": true}}
	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, Deps{
		Resolver: resolver,
		Batch:    &stubBatch{resolver: resolver},
	})
	return srv, resolver
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/v1/availability", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "METHOD_NOT_ALLOWED", body.Error.Code)
}

func TestResolveEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/availability?domain=nexify.io", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result core.AvailabilityResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Equal(t, "nexify.io", result.Domain)
	require.True(t, result.Available)
	require.Equal(t, "rdap", result.Provenance.Source)
}

func TestResolveEndpointRequiresDomain(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/availability", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "INVALID_INPUT", body.Error.Code)
	require.NotEmpty(t, body.Error.RequestID)
}

func TestBatchEndpointStreamsNDJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"domains":["nexify.com","nexify.io","nexify.net"],"parallelism":2}`
	req := httptest.NewRequest(http.MethodPost, "/v1/availability/batch", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(rec.Body.Bytes()))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	require.Len(t, lines, 4)

	seen := make(map[string]bool)
	for _, line := range lines[:3] {
		var result core.AvailabilityResult
		require.NoError(t, json.Unmarshal([]byte(line), &result))
		seen[result.Domain] = result.Available
	}
	require.True(t, seen["nexify.io"])
	require.False(t, seen["nexify.com"])

	var tail struct {
		Summary core.BatchSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &tail))
	require.Equal(t, 3, tail.Summary.Resolved)
	require.Equal(t, 1, tail.Summary.AvailableFound)
}

func TestBatchEndpointRejectsEmptyBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/availability/batch", strings.NewReader(`{"domains":[]}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchEndpointRejectsMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/availability/batch", strings.NewReader(`{"domains":`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchEndpointSchedulerErrorInStream(t *testing.T) {
	resolver := &stubResolver{}
	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, Deps{
		Resolver: resolver,
		Batch:    &stubBatch{resolver: resolver, err: fmt.Errorf("scheduler unavailable")},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/availability/batch", strings.NewReader(`{"domains":["nexify.com"]}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	// Streaming has started by the time the scheduler fails, so the
	// error rides the body rather than the status code.
	require.Equal(t, http.StatusOK, rec.Code)

	var line struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(rec.Body.Bytes()), &line))
	require.Contains(t, line.Error, "scheduler unavailable")
}

func TestVersionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	app, ok := body["app"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "domainscout", app["name"])
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestHealthReportsUnhealthyChecker(t *testing.T) {
	resolver := &stubResolver{}
	health := newFailingHealthManager()
	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, Deps{
		Resolver: resolver,
		Batch:    &stubBatch{resolver: resolver},
		Health:   health,
	})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
}
