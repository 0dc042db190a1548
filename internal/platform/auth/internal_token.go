package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/jooyeonthemaster/book/internal/platform/httpx"
	"github.com/jooyeonthemaster/book/internal/platform/requestctx"
)

const (
	defaultIssuer   = "book-ops"
	defaultTokenTTL = 15 * time.Minute
	minSecretBytes  = 32
)

var (
	// ErrTokenMissing signals a request without a bearer token.
	ErrTokenMissing = errors.New("auth: bearer token missing")
	// ErrTokenInvalid signals a token that failed signature, issuer or expiry checks.
	ErrTokenInvalid = errors.New("auth: bearer token invalid")
)

// InternalClaims are carried by tokens that guard operator endpoints.
type InternalClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// InternalTokenVerifier issues and verifies HS256 tokens for /internal routes.
type InternalTokenVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// VerifierOption customises an InternalTokenVerifier.
type VerifierOption func(*InternalTokenVerifier)

// WithIssuer overrides the expected iss claim.
func WithIssuer(issuer string) VerifierOption {
	return func(v *InternalTokenVerifier) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			v.issuer = issuer
		}
	}
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) VerifierOption {
	return func(v *InternalTokenVerifier) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

// WithClock overrides the clock used when issuing tokens.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *InternalTokenVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewInternalTokenVerifier requires a shared secret of at least 32 bytes.
func NewInternalTokenVerifier(secret string, opts ...VerifierOption) (*InternalTokenVerifier, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("auth: internal token secret must be at least %d bytes", minSecretBytes)
	}
	v := &InternalTokenVerifier{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// Issue signs a token for subject, used by operator tooling and tests.
func (v *InternalTokenVerifier) Issue(subject, scope string) (string, error) {
	now := v.now().UTC()
	claims := InternalClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign internal token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns its claims.
func (v *InternalTokenVerifier) Verify(raw string) (*InternalClaims, error) {
	claims := &InternalClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrTokenInvalid)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp claim required", ErrTokenInvalid)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: sub claim required", ErrTokenInvalid)
	}
	return claims, nil
}

// RequireInternalToken rejects requests without a valid bearer token and records the caller on the context.
// A nil verifier rejects everything.
func RequireInternalToken(v *InternalTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if v == nil {
				httpx.WriteError(ctx, w, httpx.NewError("internal_auth_disabled", "internal endpoints are disabled", http.StatusServiceUnavailable))
				return
			}
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", ErrTokenMissing.Error(), http.StatusUnauthorized))
				return
			}
			claims, err := v.Verify(raw)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_token", ErrTokenInvalid.Error(), http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithCaller(ctx, claims.Subject)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
