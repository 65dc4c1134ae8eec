package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/snapshots"
	"github.com/platinummonkey/tally/pkg/stats"
)

// fakeSource is an in-memory stats.Source recording the arguments it saw.
type fakeSource struct {
	mu      sync.Mutex
	values  map[string]float64
	err     error
	lastName    string
	lastFilters stats.Filters
	lastExcept  []string
}

func newFakeSource(values map[string]float64) *fakeSource {
	return &fakeSource{values: values}
}

func (f *fakeSource) Evaluate(ctx context.Context, name string, filters stats.Filters) (float64, error) {
	f.mu.Lock()
	f.lastName = name
	f.lastFilters = filters
	f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	value, ok := f.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", stats.ErrNotFound, name)
	}
	return value, nil
}

func (f *fakeSource) EvaluateAll(ctx context.Context, filters stats.Filters, except ...string) (map[string]float64, error) {
	f.mu.Lock()
	f.lastFilters = filters
	f.lastExcept = except
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	skip := make(map[string]bool, len(except))
	for _, name := range except {
		skip[name] = true
	}
	results := make(map[string]float64)
	for name, value := range f.values {
		if !skip[name] {
			results[name] = value
		}
	}
	return results, nil
}

func (f *fakeSource) Names() []string {
	names := make([]string, 0, len(f.values))
	for name := range f.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fakeHistory is an in-memory History recording the arguments it saw.
type fakeHistory struct {
	points    []snapshots.Point
	err       error
	lastName  string
	lastSince time.Time
}

func (f *fakeHistory) History(ctx context.Context, name string, since time.Time) ([]snapshots.Point, error) {
	f.lastName = name
	f.lastSince = since
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

func newTestServer(values map[string]float64) (*Server, *fakeSource) {
	source := newFakeSource(values)
	server := NewServer(source, &fakeHistory{}, nil, nil)
	return server, source
}

func TestNewServer_RegistersRoutes(t *testing.T) {
	health := observability.NewHealthChecker("test")
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	server := NewServer(newFakeSource(nil), &fakeHistory{}, health, metrics)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/statistics"},
		{"GET", "/api/v1/statistics/message_count"},
		{"GET", "/api/v1/snapshots/message_count"},
		{"GET", "/health"},
		{"GET", "/health/live"},
		{"GET", "/health/ready"},
		{"GET", "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			var match mux.RouteMatch
			matched := server.router.Match(req, &match)
			assert.True(t, matched, "Route %s %s should be registered", tt.method, tt.path)
		})
	}
}

func TestNewServer_OptionalRoutesAbsent(t *testing.T) {
	server := NewServer(newFakeSource(nil), nil, nil, nil)

	for _, path := range []string{"/api/v1/snapshots/x", "/health", "/metrics"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "Path %s should not be served", path)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(map[string]float64{"message_count": 1})

	req := httptest.NewRequest("POST", "/api/v1/statistics", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Swap(t *testing.T) {
	server, _ := newTestServer(map[string]float64{"message_count": 1})

	req := httptest.NewRequest("GET", "/api/v1/statistics/message_count", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `"value":1`)

	server.Swap(newFakeSource(map[string]float64{"message_count": 2}))

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `"value":2`)
}

func TestServer_HealthRoute(t *testing.T) {
	health := observability.NewHealthChecker("test")
	health.AddCheck("database", func(ctx context.Context) error { return nil })
	server := NewServer(newFakeSource(nil), nil, health, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestServer_MetricsRoute(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	metrics.EvaluationsTotal.WithLabelValues("message_count", "success").Inc()
	server := NewServer(newFakeSource(nil), nil, nil, metrics)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tally_evaluations_total")
}
