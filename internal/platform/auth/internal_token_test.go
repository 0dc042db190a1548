package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/jooyeonthemaster/book/internal/platform/requestctx"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestInternalTokenRoundTrip(t *testing.T) {
	v, err := NewInternalTokenVerifier(testSecret, WithIssuer("book-ops"))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := v.Issue("ops@example.com", "stats:reset")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "ops@example.com" || claims.Scope != "stats:reset" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestInternalTokenRejections(t *testing.T) {
	v, _ := NewInternalTokenVerifier(testSecret)

	other, _ := NewInternalTokenVerifier(strings.Repeat("x", 32))
	foreign, _ := other.Issue("ops", "")

	otherIssuer, _ := NewInternalTokenVerifier(testSecret, WithIssuer("someone-else"))
	wrongIssuer, _ := otherIssuer.Issue("ops", "")

	past, _ := NewInternalTokenVerifier(testSecret, WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	expired, _ := past.Issue("ops", "")

	noSubject, _ := v.Issue("", "")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    defaultIssuer,
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"foreign secret": foreign,
		"wrong issuer":   wrongIssuer,
		"expired":        expired,
		"no subject":     noSubject,
		"alg none":       none,
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		if _, err := v.Verify(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestNewInternalTokenVerifierRequiresLongSecret(t *testing.T) {
	if _, err := NewInternalTokenVerifier("short"); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}

func TestRequireInternalToken(t *testing.T) {
	v, _ := NewInternalTokenVerifier(testSecret)
	token, _ := v.Issue("ops", "")

	var caller string
	handler := RequireInternalToken(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = requestctx.Caller(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/internal/stats:reset", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
	if caller != "ops" {
		t.Fatalf("expected caller ops on context, got %q", caller)
	}

	rec := httptest.NewRecorder()
	RequireInternalToken(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when internal auth is disabled, got %d", rec.Code)
	}
}
