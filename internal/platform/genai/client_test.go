package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, srv *httptest.Server, failures int) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		Endpoint:        srv.URL + "/v1beta/models/",
		Model:           "test-model",
		APIKey:          "secret",
		RequestsPerMin:  6000,
		Burst:           10,
		BreakerFailures: failures,
		HTTPClient:      srv.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClientGenerateSendsRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("expected api key in query, got %q", got)
		}
		var body generateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.Contents) != 1 || body.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("unexpected contents %+v", body.Contents)
		}
		if body.GenerationConfig != DefaultGenerationConfig {
			t.Errorf("unexpected generation config %+v", body.GenerationConfig)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"world"}]}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, 3).Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "world" {
		t.Fatalf("expected world, got %q", got)
	}
}

func TestClientGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "non-200",
			status: http.StatusTooManyRequests,
			body:   `{"error":"quota"}`,
			check: func(err error) bool {
				var statusErr *StatusError
				return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests
			},
		},
		{
			name:   "no candidates",
			status: http.StatusOK,
			body:   `{"candidates":[]}`,
			check:  func(err error) bool { return errors.Is(err, ErrEmptyResponse) },
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"candidates":`,
			check:  func(err error) bool { return err != nil },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, 10).Generate(context.Background(), "x")
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 2)
	for i := 0; i < 2; i++ {
		if _, err := client.Generate(context.Background(), "x"); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}
	if _, err := client.Generate(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once the breaker is open, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected upstream to be called twice, got %d", got)
	}
}

func TestClientGenerateHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Errorf("request should not reach the server")
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{
		Endpoint:       srv.URL,
		Model:          "m",
		APIKey:         "k",
		RequestsPerMin: 1,
		Burst:          1,
		HTTPClient:     srv.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Generate(ctx, "x"); err == nil {
		t.Fatalf("expected limiter wait to fail on cancelled context")
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	cases := []ClientConfig{
		{Model: "m", APIKey: "k"},
		{Endpoint: "http://x", APIKey: "k"},
		{Endpoint: "http://x", Model: "m"},
	}
	for i, cfg := range cases {
		if _, err := NewClient(cfg); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
