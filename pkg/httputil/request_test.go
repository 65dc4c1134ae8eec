package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestParsePathString(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/statistics/message_count", nil)
		req = mux.SetURLVars(req, map[string]string{"name": "message_count"})

		val, err := ParsePathString(req, "name")

		assert.NoError(t, err)
		assert.Equal(t, "message_count", val)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/statistics/", nil)

		_, err := ParsePathString(req, "name")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing path parameter")
	})
}

func TestParsePathStringOrError(t *testing.T) {
	req := httptest.NewRequest("GET", "/statistics/", nil)
	w := httptest.NewRecorder()

	_, ok := ParsePathStringOrError(w, req, "name")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQueryString(t *testing.T) {
	req := httptest.NewRequest("GET", "/snapshots?order=desc", nil)

	assert.Equal(t, "desc", ParseQueryString(req, "order", "asc"))
	assert.Equal(t, "asc", ParseQueryString(req, "missing", "asc"))
}

func TestParseQueryBool(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		defaultVal  bool
		want        bool
		expectError bool
	}{
		{name: "true", url: "/statistics?values=true", want: true},
		{name: "false", url: "/statistics?values=false", want: false},
		{name: "one", url: "/statistics?values=1", want: true},
		{name: "missing uses default", url: "/statistics", defaultVal: true, want: true},
		{name: "garbage", url: "/statistics?values=yep", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)

			val, err := ParseQueryBool(req, "values", tt.defaultVal)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, val)
			}
		})
	}
}

func TestParseQueryTime(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/snapshots?since=2026-08-01T00:00:00Z", nil)

		val, err := ParseQueryTime(req, "since", fallback)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), val)
	})

	t.Run("missing uses default", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/snapshots", nil)

		val, err := ParseQueryTime(req, "since", fallback)

		assert.NoError(t, err)
		assert.Equal(t, fallback, val)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/snapshots?since=yesterday", nil)

		_, err := ParseQueryTime(req, "since", fallback)

		assert.Error(t, err)
	})
}

func TestParseQueryDuration(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/snapshots?window=36h", nil)

		val, err := ParseQueryDuration(req, "window", 24*time.Hour)

		assert.NoError(t, err)
		assert.Equal(t, 36*time.Hour, val)
	})

	t.Run("missing uses default", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/snapshots", nil)

		val, err := ParseQueryDuration(req, "window", 24*time.Hour)

		assert.NoError(t, err)
		assert.Equal(t, 24*time.Hour, val)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/snapshots?window=tomorrow", nil)

		_, err := ParseQueryDuration(req, "window", 24*time.Hour)

		assert.Error(t, err)
	})
}
