package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	if got := New(0).checkTimeout; got != 5*time.Second {
		t.Errorf("default timeout = %v, want 5s", got)
	}
	if got := New(time.Second).checkTimeout; got != time.Second {
		t.Errorf("custom timeout = %v, want 1s", got)
	}
}

func TestRegisterCheck(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("rules", func(context.Context) error { return nil })
	checker.RegisterCheck("config", func(context.Context) error { return nil })
	checker.RegisterCheck("rules", func(context.Context) error { return errors.New("replaced") })

	if diff := cmp.Diff([]string{"config", "rules"}, checker.ListChecks()); diff != "" {
		t.Errorf("ListChecks() mismatch (-want +got):\n%s", diff)
	}

	status := checker.CheckReadiness(context.Background())
	if status.Checks["rules"].Message != "replaced" {
		t.Errorf("rules check = %+v, want the replacement", status.Checks["rules"])
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{
			name:   "no checks",
			checks: nil,
			want:   StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"rules": func(context.Context) error { return nil },
			},
			want: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"rules":  func(context.Context) error { return errors.New("last reload failed") },
				"config": func(context.Context) error { return nil },
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Status = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("len(Checks) = %d, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestCheckTimeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	if status.Status != StatusDegraded {
		t.Errorf("Status = %q, want degraded", status.Status)
	}
	if status.Checks["slow"].Message != "health check timeout" {
		t.Errorf("slow check = %+v", status.Checks["slow"])
	}
}

func TestHandlers(t *testing.T) {
	checker := New(time.Second)
	failing := true
	checker.RegisterCheck("rules", func(context.Context) error {
		if failing {
			return errors.New("rules not loaded")
		}
		return nil
	})

	mux := http.NewServeMux()
	Register(mux, checker, "0.1.0", "abc123", "2026-10-15")

	get := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	if rec := get(http.MethodGet, LivenessPath); rec.Code != http.StatusOK {
		t.Errorf("liveness code = %d, want 200", rec.Code)
	}

	rec := get(http.MethodGet, ReadinessPath)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness code = %d, want 503", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode readiness: %v", err)
	}
	if status.Checks["rules"].Message != "rules not loaded" {
		t.Errorf("readiness body = %+v", status)
	}

	failing = false
	if rec := get(http.MethodGet, ReadinessPath); rec.Code != http.StatusOK {
		t.Errorf("readiness code after recovery = %d, want 200", rec.Code)
	}

	rec = get(http.MethodGet, VersionPath)
	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.Version != "0.1.0" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("version body = %+v", info)
	}

	if rec := get(http.MethodHead, LivenessPath); rec.Body.Len() != 0 {
		t.Error("HEAD response has a body")
	}
	if rec := get(http.MethodPost, LivenessPath); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST code = %d, want 405", rec.Code)
	}
}
