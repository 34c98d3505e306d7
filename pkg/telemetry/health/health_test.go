package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{
			name: "no checks",
			want: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"sentry":           func(context.Context) error { return nil },
				"lifecycle_source": func(context.Context) error { return nil },
			},
			want: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"sentry":           func(context.Context) error { return nil },
				"lifecycle_source": func(context.Context) error { return errors.New("unavailable") },
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second, nil)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("status = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(20*time.Millisecond, nil)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != "health check timeout" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestCheckLiveness_UsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC))
	checker := New(0, clock)

	status := checker.CheckLiveness(context.Background())
	if status.Status != StatusOK || !status.Timestamp.Equal(clock.Now()) {
		t.Errorf("unexpected liveness %+v", status)
	}
}

func TestListChecks(t *testing.T) {
	checker := New(0, nil)
	checker.RegisterCheck("sentry", func(context.Context) error { return nil })
	checker.RegisterCheck("lifecycle_source", func(context.Context) error { return nil })
	checker.RegisterCheck("sentry", func(context.Context) error { return nil })

	want := []string{"lifecycle_source", "sentry"}
	if got := checker.ListChecks(); !reflect.DeepEqual(got, want) {
		t.Errorf("ListChecks() = %v, want %v", got, want)
	}
}

func TestHandlers(t *testing.T) {
	checker := New(time.Second, nil)
	checker.RegisterCheck("lifecycle_source", func(context.Context) error {
		return errors.New("lifecycle source unavailable")
	})

	mux := http.NewServeMux()
	Register(mux, checker, VersionInfo{Version: "0.1.0", Commit: "abc123"})

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{method: http.MethodGet, path: "/health", code: http.StatusOK},
		{method: http.MethodHead, path: "/health", code: http.StatusOK},
		{method: http.MethodGet, path: "/ready", code: http.StatusServiceUnavailable},
		{method: http.MethodGet, path: "/version", code: http.StatusOK},
		{method: http.MethodPost, path: "/health", code: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Checks["lifecycle_source"].Message != "lifecycle source unavailable" {
		t.Errorf("unexpected checks %+v", status.Checks)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "0.1.0" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}
