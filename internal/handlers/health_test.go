package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	domain "github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/services"
)

type stubSystemService struct {
	report services.SystemHealthReport
	err    error
	ctxErr error
}

var _ services.SystemService = (*stubSystemService)(nil)

func (s *stubSystemService) HealthReport(ctx context.Context) (services.SystemHealthReport, error) {
	if s.ctxErr != nil {
		<-ctx.Done()
		return services.SystemHealthReport{}, ctx.Err()
	}
	return s.report, s.err
}

type healthBody struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	CommitSHA   string `json:"commitSha"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	Timestamp   string `json:"timestamp"`
	Checks      map[string]struct {
		Status    string `json:"status"`
		Detail    string `json:"detail"`
		LatencyMS int64  `json:"latencyMs"`
	} `json:"checks"`
	Details []string `json:"details"`
}

func callHealth(t *testing.T, h http.HandlerFunc, path string) (int, http.Header, healthBody) {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body healthBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rr.Code, rr.Header(), body
}

var launch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestHealthzReportsBuildAndUptime(t *testing.T) {
	h := NewHealthHandlers(
		WithHealthBuildInfo(services.BuildInfo{Version: "0.4.0", CommitSHA: "f00d", Environment: "dev", StartedAt: launch}),
		WithHealthClock(func() time.Time { return launch.Add(2*time.Minute + 400*time.Millisecond) }),
		WithHealthSystemService(&stubSystemService{err: errors.New("never consulted")}),
	)

	code, _, body := callHealth(t, h.Healthz, "/healthz")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	want := healthBody{Status: "ok", Version: "0.4.0", CommitSHA: "f00d", Environment: "dev", Uptime: "2m0s", Timestamp: "2025-03-01T09:02:00Z"}
	if !reflect.DeepEqual(body, want) {
		t.Fatalf("expected %+v, got %+v", want, body)
	}
}

func TestReadyzWithoutSystemServiceActsAsLiveness(t *testing.T) {
	h := NewHealthHandlers(WithHealthClock(func() time.Time { return launch }))
	code, _, body := callHealth(t, h.Readyz, "/readyz")
	if code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("expected ok liveness answer, got %d %+v", code, body)
	}
}

func TestReadyzStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		report  services.SystemHealthReport
		code    int
		status  string
		details []string
	}{
		{
			name: "all ok",
			report: services.SystemHealthReport{
				Status: domain.HealthStatusOK,
				Checks: map[string]domain.SystemHealthCheck{
					"catalog": {Status: domain.HealthStatusOK, Detail: "books=10 fragrances=10"},
					"shares":  {Status: domain.HealthStatusOK, Latency: 12 * time.Millisecond},
				},
			},
			code:   http.StatusOK,
			status: "ok",
		},
		{
			name: "degraded keeps serving",
			report: services.SystemHealthReport{
				Status: domain.HealthStatusDegraded,
				Checks: map[string]domain.SystemHealthCheck{
					"events": {Status: domain.HealthStatusDegraded, Error: "topic book-events does not exist"},
					"shares": {Status: domain.HealthStatusOK},
				},
			},
			code:    http.StatusOK,
			status:  "degraded",
			details: []string{"events: topic book-events does not exist"},
		},
		{
			name: "error fails readiness",
			report: services.SystemHealthReport{
				Status: domain.HealthStatusError,
				Checks: map[string]domain.SystemHealthCheck{
					"shares":  {Status: domain.HealthStatusError, Error: "context deadline exceeded"},
					"catalog": {Status: domain.HealthStatusError, Error: "catalog is empty"},
				},
			},
			code:    http.StatusServiceUnavailable,
			status:  "error",
			details: []string{"catalog: catalog is empty", "shares: context deadline exceeded"},
		},
		{
			name:   "blank status defaults to ok",
			report: services.SystemHealthReport{},
			code:   http.StatusOK,
			status: "ok",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandlers(WithHealthSystemService(&stubSystemService{report: tc.report}))
			code, header, body := callHealth(t, h.Readyz, "/readyz")
			if code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
			if body.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, body.Status)
			}
			if !reflect.DeepEqual(body.Details, tc.details) {
				t.Fatalf("expected details %v, got %v", tc.details, body.Details)
			}
			if header.Get("Cache-Control") != "no-store" {
				t.Fatalf("expected no-store, got %q", header.Get("Cache-Control"))
			}
			if len(body.Checks) != len(tc.report.Checks) {
				t.Fatalf("expected %d checks, got %d", len(tc.report.Checks), len(body.Checks))
			}
		})
	}
}

func TestReadyzCheckPayload(t *testing.T) {
	h := NewHealthHandlers(WithHealthSystemService(&stubSystemService{report: services.SystemHealthReport{
		Status: domain.HealthStatusOK,
		Checks: map[string]domain.SystemHealthCheck{
			"catalog": {Status: domain.HealthStatusOK, Detail: "books=10 fragrances=10"},
			"shares":  {Status: domain.HealthStatusOK, Latency: 12 * time.Millisecond},
		},
	}}))

	_, _, body := callHealth(t, h.Readyz, "/readyz")
	if body.Checks["catalog"].Detail != "books=10 fragrances=10" {
		t.Fatalf("expected catalog counts, got %+v", body.Checks["catalog"])
	}
	if body.Checks["shares"].LatencyMS != 12 {
		t.Fatalf("expected 12ms latency, got %d", body.Checks["shares"].LatencyMS)
	}
}

func TestReadyzReportFailures(t *testing.T) {
	cases := map[string]HealthOption{
		"report error": WithHealthSystemService(&stubSystemService{err: errors.New("collect failed")}),
		"timeout":      WithHealthSystemService(&stubSystemService{ctxErr: context.DeadlineExceeded}),
	}
	for name, opt := range cases {
		h := NewHealthHandlers(opt, WithHealthTimeout(20*time.Millisecond))
		code, _, body := callHealth(t, h.Readyz, "/readyz")
		if code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", name, code)
		}
		if body.Status != "error" || len(body.Details) != 1 {
			t.Fatalf("%s: expected error status with one detail, got %+v", name, body)
		}
	}
}
