package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Catalog.Bucket != "" || cfg.Catalog.Object != defaultCatalogObject {
		t.Errorf("expected embedded catalog defaults, got %+v", cfg.Catalog)
	}
	if cfg.GenAI.Enabled {
		t.Errorf("expected generative recommender disabled by default")
	}
	if cfg.GenAI.Model != defaultGenAIModel || cfg.GenAI.Endpoint != defaultGenAIEndpoint {
		t.Errorf("unexpected genai defaults %+v", cfg.GenAI)
	}
	if cfg.Shares.Backend != ShareBackendMemory {
		t.Errorf("expected memory share backend, got %s", cfg.Shares.Backend)
	}
	if cfg.Shares.TTL != 720*time.Hour {
		t.Errorf("expected 30 day share ttl, got %s", cfg.Shares.TTL)
	}
	if cfg.Shares.CleanupBatchSize != defaultSharesBatchSize {
		t.Errorf("unexpected cleanup batch size: %d", cfg.Shares.CleanupBatchSize)
	}
	if cfg.RateLimits.PerMinute != 60 {
		t.Errorf("unexpected default rate limit: %d", cfg.RateLimits.PerMinute)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"*"}) {
		t.Errorf("expected wildcard origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Security.Environment != "local" {
		t.Errorf("expected default security environment local, got %s", cfg.Security.Environment)
	}
	if cfg.Security.InternalTokenSecret != "" {
		t.Errorf("expected internal routes disabled by default")
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                    "9090",
		"API_SERVER_IDLE_TIMEOUT":            "2m",
		"API_FIREBASE_PROJECT_ID":            "book-prod",
		"API_FIREBASE_CREDENTIALS_FILE":      "/secrets/sa.json",
		"API_CATALOG_BUCKET":                 "book-catalog",
		"API_CATALOG_OBJECT":                 "v2/catalog.yaml",
		"API_GENAI_ENABLED":                  "true",
		"API_GENAI_ENDPOINT":                 "https://llm.example.com/models/",
		"API_GENAI_API_KEY":                  "secret://genai/key",
		"API_GENAI_REQUESTS_PER_MINUTE":      "10",
		"API_GENAI_BREAKER_COOLDOWN":         "2m",
		"API_SHARES_BACKEND":                 "Firestore",
		"API_SHARES_TTL":                     "48h",
		"API_SHARES_PUBLIC_BASE_URL":         "https://book.example.com/",
		"API_EVENTS_TOPIC":                   "book-events",
		"API_RATELIMIT_PER_MIN":              "150",
		"API_CORS_ALLOWED_ORIGINS":           "https://book.example.com, https://preview.example.com",
		"API_SECURITY_ENVIRONMENT":           "PROD",
		"API_SECURITY_INTERNAL_TOKEN_SECRET": "sm://ops/token",
	}

	secrets := map[string]string{
		"secret://genai/key": "genai-key",
		"secret://ops/token": "ops-secret",
	}
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Firestore.ProjectID != "book-prod" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Firestore.CredentialsFile != "/secrets/sa.json" {
		t.Errorf("expected firestore credentials from firebase, got %s", cfg.Firestore.CredentialsFile)
	}
	if cfg.Catalog.Bucket != "book-catalog" || cfg.Catalog.Object != "v2/catalog.yaml" {
		t.Errorf("unexpected catalog config %+v", cfg.Catalog)
	}
	if cfg.GenAI.APIKey != "genai-key" {
		t.Errorf("expected resolved genai key, got %s", cfg.GenAI.APIKey)
	}
	if cfg.GenAI.Endpoint != "https://llm.example.com/models" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.GenAI.Endpoint)
	}
	if cfg.GenAI.RequestsPerMin != 10 || cfg.GenAI.BreakerCooldown != 2*time.Minute {
		t.Errorf("unexpected genai pacing %+v", cfg.GenAI)
	}
	if cfg.Shares.Backend != ShareBackendFirestore || cfg.Shares.TTL != 48*time.Hour {
		t.Errorf("unexpected share config %+v", cfg.Shares)
	}
	if cfg.Shares.PublicBaseURL != "https://book.example.com" {
		t.Errorf("expected base url without trailing slash, got %s", cfg.Shares.PublicBaseURL)
	}
	if cfg.Events.Topic != "book-events" {
		t.Errorf("unexpected events topic %s", cfg.Events.Topic)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 allowed origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Security.Environment != "prod" {
		t.Errorf("expected security environment prod, got %s", cfg.Security.Environment)
	}
	if cfg.Security.InternalTokenSecret != "ops-secret" {
		t.Errorf("expected legacy sm:// reference to resolve, got %s", cfg.Security.InternalTokenSecret)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nexport API_FIREBASE_PROJECT_ID=\"book-dot\"\n# comment\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firebase.ProjectID != "book-dot" {
		t.Errorf("expected firebase project from dotenv, got %s", cfg.Firebase.ProjectID)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"API_GENAI_ENABLED":  "true",
		"API_SHARES_BACKEND": "redis",
		"API_SHARES_TTL":     "-1h",
	}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := []string{"GenAI.APIKey", "Shares.Backend", "Shares.TTL"}
	if !reflect.DeepEqual(verr.Fields(), want) {
		t.Fatalf("expected fields %v, got %v", want, verr.Fields())
	}

	_, err = Load(context.Background(), WithEnvMap(map[string]string{"API_SHARES_BACKEND": "firestore"}), WithoutSystemEnv(), WithEnvFile(""))
	if !errors.As(err, &verr) || !reflect.DeepEqual(verr.Fields(), []string{"Firestore.ProjectID"}) {
		t.Fatalf("expected firestore project to be required, got %v", err)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := map[string]string{
		"API_GENAI_API_KEY": "secret://missing",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_FIREBASE_PROJECT_ID=dot-project\nAPI_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("API_FIREBASE_PROJECT_ID", "os-project")
	t.Setenv("API_SECRET_PROJECT_IDS", "prod=project-prod")

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(map[string]string{
		"API_FIREBASE_PROJECT_ID": "override-project",
	}))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}
	if got := values["API_FIREBASE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("expected override project, got %s", got)
	}
	if got := values["API_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback file, got %s", got)
	}
	if got := values["API_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("expected system env project map, got %s", got)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvMap(map[string]string{}),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Security.InternalTokenSecret"),
	)
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	expectedRedacted := redactSecretName("Security.InternalTokenSecret")
	if got := missing.RedactedNames(); len(got) != 1 || got[0] != expectedRedacted {
		t.Fatalf("unexpected redacted names %v", got)
	}
}

func TestLoadReportsUnparseableValues(t *testing.T) {
	env := map[string]string{
		"API_SERVER_READ_TIMEOUT":  "soon",
		"API_SHARES_CLEANUP_BATCH": "many",
		"API_GENAI_ENABLED":        "maybe",
	}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"API_SERVER_READ_TIMEOUT", "API_GENAI_ENABLED", "API_SHARES_CLEANUP_BATCH"}
	if !reflect.DeepEqual(verr.Fields(), want) {
		t.Fatalf("expected fields %v, got %v", want, verr.Fields())
	}
}

func TestLoadRequiredSecretsDeduplicated(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvMap(map[string]string{"API_GENAI_API_KEY": "key"}),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Security.InternalTokenSecret", " Security.InternalTokenSecret ", "GenAI.APIKey"),
	)
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %v", err)
	}
	if got := missing.Names(); !reflect.DeepEqual(got, []string{"Security.InternalTokenSecret"}) {
		t.Fatalf("expected only the internal token secret, got %v", got)
	}
}
