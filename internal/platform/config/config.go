package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile             = ".env"
	defaultPort                = "8080"
	defaultReadTimeout         = 15 * time.Second
	defaultWriteTimeout        = 30 * time.Second
	defaultIdleTimeout         = 120 * time.Second
	defaultCatalogObject       = "catalog.yaml"
	defaultGenAIEndpoint       = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGenAIModel          = "gemini-2.0-flash-exp"
	defaultGenAITimeout        = 30 * time.Second
	defaultGenAIPerMinute      = 30
	defaultGenAIBurst          = 5
	defaultGenAIBreakerFails   = 5
	defaultGenAIBreakerCool    = 60 * time.Second
	defaultSharesBackend       = ShareBackendMemory
	defaultSharesCollection    = "shares"
	defaultSharesTTL           = 30 * 24 * time.Hour
	defaultSharesInterval      = time.Hour
	defaultSharesBatchSize     = 200
	defaultSharesPublicBaseURL = "http://localhost:3000"
	defaultRateLimitPerMinute  = 60
	defaultSecurityEnvironment = "local"
	defaultInternalTokenIssuer = "book-ops"
)

// Share storage backends.
const (
	ShareBackendMemory    = "memory"
	ShareBackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Firebase   FirebaseConfig
	Firestore  FirestoreConfig
	Catalog    CatalogConfig
	GenAI      GenAIConfig
	Shares     ShareConfig
	Events     EventsConfig
	RateLimits RateLimitConfig
	CORS       CORSConfig
	Security   SecurityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID       string
	EmulatorHost    string
	CredentialsFile string
}

// CatalogConfig points at an optional Cloud Storage override of the embedded catalog.
type CatalogConfig struct {
	Bucket string
	Object string
}

// GenAIConfig configures the generative language API used for primary recommendations.
type GenAIConfig struct {
	Enabled         bool
	Endpoint        string
	Model           string
	APIKey          string
	Timeout         time.Duration
	RequestsPerMin  int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
}

// ShareConfig controls persistence of shared recommendations.
type ShareConfig struct {
	Backend          string
	Collection       string
	TTL              time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
	PublicBaseURL    string
}

// EventsConfig configures domain event publishing. An empty topic disables publishing.
type EventsConfig struct {
	Topic string
}

// RateLimitConfig controls request throttling.
type RateLimitConfig struct {
	PerMinute int
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig groups operator authentication settings.
type SecurityConfig struct {
	Environment         string
	InternalTokenSecret string
	InternalTokenIssuer string
}

// SecretResolver turns a secret:// reference into its value.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError lists config fields or env keys that are missing or unparseable.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return "config: invalid or missing [" + strings.Join(e.fields, ", ") + "]"
}

// Fields returns the offending names in the order they were found.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// SecretError wraps a failed secret lookup.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("config: resolve secret %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError reports required secrets that resolved to an empty value.
type MissingSecretsError struct {
	names []string
}

func (e *MissingSecretsError) Error() string {
	return "config: missing required secrets [" + strings.Join(e.RedactedNames(), ", ") + "]"
}

// Names returns the config field names of the missing secrets, sorted.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.names...)
}

// RedactedNames returns short hashes of the missing names, safe for logs.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.names))
	for i, name := range e.names {
		out[i] = redactSecretName(name)
	}
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises how Load gathers values.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// WithEnvFile reads KEY=VALUE lines from path. An empty path skips the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap supplies values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver resolves sm:// and secret:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

// WithRequiredSecrets names secret fields (e.g. "GenAI.APIKey") that must resolve to a non-empty value.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) { o.requiredSecrets = append(o.requiredSecrets, names...) }
}

func newOptions(opts []Option) loaderOptions {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// EnvironmentValues returns the merged view Load reads from: .env, then the process environment, then WithEnvMap.
// cmd/api uses it to build the secret resolver before calling Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	return mergeSources(newOptions(opts))
}

func mergeSources(options loaderOptions) (map[string]string, error) {
	values, err := readDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if ok && strings.TrimSpace(key) != "" {
				values[strings.TrimSpace(key)] = value
			}
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// Load builds Config from defaults and the merged environment, resolves secret references and validates the result.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newOptions(opts)
	values, err := mergeSources(options)
	if err != nil {
		return Config{}, err
	}
	e := &env{values: values}

	cfg := Config{
		Server: ServerConfig{
			Port:         e.str("API_SERVER_PORT", defaultPort),
			ReadTimeout:  e.duration("API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: e.duration("API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  e.duration("API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       e.str("API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: e.str("API_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    e.str("API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: e.str("API_FIRESTORE_EMULATOR_HOST", ""),
		},
		Catalog: CatalogConfig{
			Bucket: e.str("API_CATALOG_BUCKET", ""),
			Object: e.str("API_CATALOG_OBJECT", defaultCatalogObject),
		},
		GenAI: GenAIConfig{
			Enabled:         e.flag("API_GENAI_ENABLED", false),
			Endpoint:        strings.TrimRight(e.str("API_GENAI_ENDPOINT", defaultGenAIEndpoint), "/"),
			Model:           e.str("API_GENAI_MODEL", defaultGenAIModel),
			APIKey:          e.str("API_GENAI_API_KEY", ""),
			Timeout:         e.duration("API_GENAI_TIMEOUT", defaultGenAITimeout),
			RequestsPerMin:  e.integer("API_GENAI_REQUESTS_PER_MINUTE", defaultGenAIPerMinute),
			Burst:           e.integer("API_GENAI_BURST", defaultGenAIBurst),
			BreakerFailures: e.integer("API_GENAI_BREAKER_FAILURES", defaultGenAIBreakerFails),
			BreakerCooldown: e.duration("API_GENAI_BREAKER_COOLDOWN", defaultGenAIBreakerCool),
		},
		Shares: ShareConfig{
			Backend:          strings.ToLower(e.str("API_SHARES_BACKEND", defaultSharesBackend)),
			Collection:       e.str("API_SHARES_COLLECTION", defaultSharesCollection),
			TTL:              e.duration("API_SHARES_TTL", defaultSharesTTL),
			CleanupInterval:  e.duration("API_SHARES_CLEANUP_INTERVAL", defaultSharesInterval),
			CleanupBatchSize: e.integer("API_SHARES_CLEANUP_BATCH", defaultSharesBatchSize),
			PublicBaseURL:    strings.TrimRight(e.str("API_SHARES_PUBLIC_BASE_URL", defaultSharesPublicBaseURL), "/"),
		},
		Events: EventsConfig{
			Topic: e.str("API_EVENTS_TOPIC", ""),
		},
		RateLimits: RateLimitConfig{
			PerMinute: e.integer("API_RATELIMIT_PER_MIN", defaultRateLimitPerMinute),
		},
		CORS: CORSConfig{
			AllowedOrigins: e.list("API_CORS_ALLOWED_ORIGINS", "*"),
		},
		Security: SecurityConfig{
			Environment:         strings.ToLower(e.str("API_SECURITY_ENVIRONMENT", defaultSecurityEnvironment)),
			InternalTokenSecret: e.str("API_SECURITY_INTERNAL_TOKEN_SECRET", ""),
			InternalTokenIssuer: e.str("API_SECURITY_INTERNAL_TOKEN_ISSUER", defaultInternalTokenIssuer),
		},
	}

	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	cfg.Firestore.CredentialsFile = cfg.Firebase.CredentialsFile

	resolved := make(map[string]string, 2)
	for name, field := range map[string]*string{
		"GenAI.APIKey":                 &cfg.GenAI.APIKey,
		"Security.InternalTokenSecret": &cfg.Security.InternalTokenSecret,
	} {
		value, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*field = value
		resolved[name] = strings.TrimSpace(value)
	}

	if fields := append(e.invalid, validateConfig(cfg)...); len(fields) > 0 {
		return Config{}, &ValidationError{fields: fields}
	}

	var missing []string
	for _, name := range options.requiredSecrets {
		name = strings.TrimSpace(name)
		if name != "" && resolved[name] == "" && !containsString(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, &MissingSecretsError{names: missing}
	}
	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	ref := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(ref, "sm://"):
		ref = "secret://" + strings.TrimPrefix(ref, "sm://")
	case strings.HasPrefix(ref, "secret://"):
	default:
		return value, nil
	}
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) []string {
	var missing []string
	require := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}

	require(cfg.Server.Port != "", "Server.Port")
	if cfg.Catalog.Bucket != "" {
		require(strings.TrimSpace(cfg.Catalog.Object) != "", "Catalog.Object")
	}
	if cfg.GenAI.Enabled {
		require(cfg.GenAI.APIKey != "", "GenAI.APIKey")
		require(cfg.GenAI.Endpoint != "", "GenAI.Endpoint")
		require(cfg.GenAI.Model != "", "GenAI.Model")
		require(cfg.GenAI.Timeout > 0, "GenAI.Timeout")
		require(cfg.GenAI.RequestsPerMin > 0, "GenAI.RequestsPerMin")
	}
	switch cfg.Shares.Backend {
	case ShareBackendMemory:
	case ShareBackendFirestore:
		require(cfg.Firestore.ProjectID != "", "Firestore.ProjectID")
		require(strings.TrimSpace(cfg.Shares.Collection) != "", "Shares.Collection")
	default:
		missing = append(missing, "Shares.Backend")
	}
	require(cfg.Shares.TTL > 0, "Shares.TTL")
	require(cfg.Shares.CleanupInterval > 0, "Shares.CleanupInterval")
	require(cfg.Shares.CleanupBatchSize > 0, "Shares.CleanupBatchSize")
	if cfg.Events.Topic != "" {
		require(cfg.Firebase.ProjectID != "", "Firebase.ProjectID")
	}
	return missing
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// readDotEnv parses KEY=VALUE lines; blank lines, # comments and an "export " prefix are tolerated.
// A missing file yields an empty map.
func readDotEnv(path string) (map[string]string, error) {
	values := make(map[string]string)
	if path == "" {
		return values, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "export "))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	return values, nil
}

// env reads typed values and remembers keys whose values could not be parsed.
type env struct {
	values  map[string]string
	invalid []string
}

func (e *env) raw(key string) (string, bool) {
	value := strings.TrimSpace(e.values[key])
	return value, value != ""
}

func (e *env) str(key, fallback string) string {
	if value, ok := e.raw(key); ok {
		return value
	}
	return fallback
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	value, ok := e.raw(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return d
}

func (e *env) integer(key string, fallback int) int {
	value, ok := e.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return n
}

func (e *env) flag(key string, fallback bool) bool {
	value, ok := e.raw(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	e.invalid = append(e.invalid, key)
	return fallback
}

// list splits a comma-separated value, dropping blanks. An unset key yields the fallback entries.
func (e *env) list(key string, fallback ...string) []string {
	var out []string
	if value, ok := e.raw(key); ok {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
