package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	hc := NewHealthChecker("1.2.3")
	hc.AddCheck("database", func(ctx context.Context) error { return nil })
	hc.AddOptionalCheck("redis", func(ctx context.Context) error { return nil })

	status := hc.Check(context.Background())

	if status.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", status.Status)
	}
	if status.Version != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %s", status.Version)
	}
	if len(status.Dependencies) != 2 {
		t.Errorf("Expected 2 dependencies, got %d", len(status.Dependencies))
	}
	if status.Dependencies["database"].Status != StatusHealthy {
		t.Errorf("Expected healthy database, got %s", status.Dependencies["database"].Status)
	}
}

func TestHealthChecker_RequiredFailure(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.AddCheck("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	hc.AddOptionalCheck("redis", func(ctx context.Context) error { return nil })

	status := hc.Check(context.Background())

	if status.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", status.Status)
	}
	dep := status.Dependencies["database"]
	if dep.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy database, got %s", dep.Status)
	}
	if dep.Message != "connection refused" {
		t.Errorf("Expected failure message, got %q", dep.Message)
	}
}

func TestHealthChecker_OptionalFailure(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.AddCheck("database", func(ctx context.Context) error { return nil })
	hc.AddOptionalCheck("redis", func(ctx context.Context) error {
		return errors.New("redis down")
	})

	status := hc.Check(context.Background())

	if status.Status != StatusDegraded {
		t.Errorf("Expected degraded, got %s", status.Status)
	}
	if status.Dependencies["redis"].Status != StatusDegraded {
		t.Errorf("Expected degraded redis, got %s", status.Dependencies["redis"].Status)
	}
}

func TestHealthChecker_RequiredFailureOutranksOptional(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.AddOptionalCheck("redis", func(ctx context.Context) error {
		return errors.New("redis down")
	})
	hc.AddCheck("database", func(ctx context.Context) error {
		return errors.New("db down")
	})

	status := hc.Check(context.Background())

	if status.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy to win over degraded, got %s", status.Status)
	}
}

func TestHealthChecker_Liveness(t *testing.T) {
	hc := NewHealthChecker("test")
	// A failing check must not affect liveness.
	hc.AddCheck("database", func(ctx context.Context) error {
		return errors.New("down")
	})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	hc.Liveness(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from liveness, got %d", rec.Code)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("healthy returns 200", func(t *testing.T) {
		hc := NewHealthChecker("test")
		hc.AddCheck("database", func(ctx context.Context) error { return nil })

		rec := httptest.NewRecorder()
		hc.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}

		var status HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("Failed to decode readiness body: %v", err)
		}
		if status.Status != StatusHealthy {
			t.Errorf("Expected healthy body, got %s", status.Status)
		}
	})

	t.Run("degraded returns 200", func(t *testing.T) {
		hc := NewHealthChecker("test")
		hc.AddOptionalCheck("redis", func(ctx context.Context) error {
			return errors.New("down")
		})

		rec := httptest.NewRecorder()
		hc.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for degraded, got %d", rec.Code)
		}
	})

	t.Run("unhealthy returns 503", func(t *testing.T) {
		hc := NewHealthChecker("test")
		hc.AddCheck("database", func(ctx context.Context) error {
			return errors.New("down")
		})

		rec := httptest.NewRecorder()
		hc.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", rec.Code)
		}
	})
}

func TestHealthChecker_CheckNames(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.AddOptionalCheck("redis", func(ctx context.Context) error { return nil })
	hc.AddCheck("database", func(ctx context.Context) error { return nil })

	want := []string{"database", "redis"}
	if got := hc.CheckNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDatabaseCheck(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("Failed to create sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		if err := DatabaseCheck(db)(context.Background()); err != nil {
			t.Errorf("Expected healthy check, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("ping failure", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("Failed to create sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("dead"))

		if err := DatabaseCheck(db)(context.Background()); err == nil {
			t.Error("Expected ping failure to surface")
		}
	})
}
