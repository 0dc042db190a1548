package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jooyeonthemaster/book/internal/services"
)

type stubShareService struct {
	receipt services.ShareReceipt
	result  services.RecommendationResult
	err     error

	created *services.RecommendationResult
	lastID  string
}

func (s *stubShareService) Create(_ context.Context, result services.RecommendationResult) (services.ShareReceipt, error) {
	s.created = &result
	return s.receipt, s.err
}

func (s *stubShareService) Get(_ context.Context, shareID string) (services.RecommendationResult, error) {
	s.lastID = shareID
	return s.result, s.err
}

func (s *stubShareService) CleanupExpired(context.Context, int) (int, error) {
	return 0, nil
}

func newShareTestRouter(svc services.ShareService) http.Handler {
	h := NewShareHandlers(svc, nil)
	r := chi.NewRouter()
	r.Route("/shares", h.Routes)
	return r
}

func TestShareHandlersCreate(t *testing.T) {
	expires := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	svc := &stubShareService{receipt: services.ShareReceipt{
		ID:        "01HTESTSHARE",
		URL:       "https://books.example.com/share/01HTESTSHARE",
		ExpiresAt: expires,
	}}
	router := newShareTestRouter(svc)

	payload, err := json.Marshal(newRecommendationPayload(sampleResult()))
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/shares/", strings.NewReader(string(payload))))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != svc.receipt.URL {
		t.Fatalf("expected location %s, got %s", svc.receipt.URL, loc)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID        string `json:"id"`
			URL       string `json:"url"`
			ExpiresAt string `json:"expiresAt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Data.ID != "01HTESTSHARE" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Data.ExpiresAt != "2024-04-01T09:00:00Z" {
		t.Fatalf("expected expiresAt 2024-04-01T09:00:00Z, got %s", resp.Data.ExpiresAt)
	}

	if svc.created == nil {
		t.Fatalf("expected service to receive result")
	}
	if svc.created.Book.Title != "데미안" || svc.created.Fragrance.Characteristics.Woody != 8 {
		t.Fatalf("unexpected forwarded result %+v", svc.created)
	}
	if len(svc.created.AlternativeBooks) != 1 {
		t.Fatalf("expected alternatives to survive decoding, got %d", len(svc.created.AlternativeBooks))
	}
}

func TestShareHandlersCreateValidation(t *testing.T) {
	cases := map[string]string{
		"missing title":       `{"book":{"id":1},"fragrance":{"id":1},"confidence":50}`,
		"confidence range":    `{"book":{"id":1,"title":"t"},"fragrance":{"id":1},"confidence":150}`,
		"characteristic":      `{"book":{"id":1,"title":"t"},"fragrance":{"id":1,"characteristics":{"woody":11}},"confidence":50}`,
		"too many alternates": fmt.Sprintf(`{"book":{"id":1,"title":"t"},"fragrance":{"id":1},"alternativeBooks":[%s]}`, strings.TrimSuffix(strings.Repeat(`{"id":2,"title":"x"},`, 4), ",")),
	}
	for name, body := range cases {
		svc := &stubShareService{}
		router := newShareTestRouter(svc)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/shares/", strings.NewReader(body)))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", name, rr.Code)
		}
		if svc.created != nil {
			t.Fatalf("%s: expected service not to be called", name)
		}
	}
}

func TestShareHandlersGet(t *testing.T) {
	svc := &stubShareService{result: sampleResult()}
	router := newShareTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shares/01HTESTSHARE", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if svc.lastID != "01HTESTSHARE" {
		t.Fatalf("expected share id forwarded, got %s", svc.lastID)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("expected no-store, got %s", cc)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			MatchReason string `json:"matchReason"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Data.MatchReason == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestShareHandlersGetKeepsAlternativeKeys(t *testing.T) {
	shared := sampleResult()
	shared.AlternativeBooks = nil
	shared.AlternativeFragrances = nil
	router := newShareTestRouter(&stubShareService{result: shared})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shares/01HTESTSHARE", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	data := responseData(t, rr)
	for _, key := range []string{"alternativeBooks", "alternativeFragrances"} {
		if got := string(data[key]); got != "[]" {
			t.Fatalf("expected %s to encode as [], got %q", key, got)
		}
	}
}

func TestShareHandlersErrors(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		err    error
		status int
		code   string
	}{
		{"not found", "/shares/missing", services.ErrShareNotFound, http.StatusNotFound, "share_not_found"},
		{"invalid", "/shares/bad", services.ErrShareInvalidInput, http.StatusBadRequest, "invalid_share"},
		{"unexpected", "/shares/x", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{"id too long", "/shares/" + strings.Repeat("a", maxShareIDLength+1), nil, http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		router := newShareTestRouter(&stubShareService{err: tc.err})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rr.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: expected JSON body: %v", tc.name, err)
		}
		if body["error"] != tc.code {
			t.Fatalf("%s: expected error %s, got %v", tc.name, tc.code, body["error"])
		}
	}
}

var _ services.ShareService = (*stubShareService)(nil)
