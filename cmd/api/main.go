package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/jooyeonthemaster/book/internal/catalog"
	"github.com/jooyeonthemaster/book/internal/handlers"
	"github.com/jooyeonthemaster/book/internal/platform/auth"
	"github.com/jooyeonthemaster/book/internal/platform/config"
	"github.com/jooyeonthemaster/book/internal/platform/events"
	pfirestore "github.com/jooyeonthemaster/book/internal/platform/firestore"
	"github.com/jooyeonthemaster/book/internal/platform/genai"
	"github.com/jooyeonthemaster/book/internal/platform/observability"
	"github.com/jooyeonthemaster/book/internal/platform/secrets"
	"github.com/jooyeonthemaster/book/internal/platform/stats"
	platformstorage "github.com/jooyeonthemaster/book/internal/platform/storage"
	"github.com/jooyeonthemaster/book/internal/platform/validation"
	"github.com/jooyeonthemaster/book/internal/repositories"
	firestoreRepo "github.com/jooyeonthemaster/book/internal/repositories/firestore"
	memoryRepo "github.com/jooyeonthemaster/book/internal/repositories/memory"
	"github.com/jooyeonthemaster/book/internal/services"
)

const meterName = "github.com/jooyeonthemaster/book"

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	meter := otel.GetMeterProvider().Meter(meterName)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	resolver, err := newSecretResolver(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret resolver", zap.Error(err))
	}
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Warn("secret resolver close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(resolver),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)

	books, err := loadCatalog(ctx, logger.Named("catalog"), cfg)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	bookCount, fragranceCount := books.Counts()
	logger.Info("catalog loaded", zap.Int("books", bookCount), zap.Int("fragrances", fragranceCount))

	var firestoreProvider *pfirestore.Provider
	if cfg.Shares.Backend == config.ShareBackendFirestore {
		firestoreProvider = pfirestore.NewProvider(cfg.Firestore)
		if _, err := firestoreProvider.Client(ctx); err != nil {
			logger.Fatal("failed to initialise firestore client", zap.Error(err))
		}
		defer func() {
			if err := firestoreProvider.Close(); err != nil {
				logger.Warn("firestore close error", zap.Error(err))
			}
		}()
	}

	shareRepo, err := newShareRepository(firestoreProvider, cfg.Shares)
	if err != nil {
		logger.Fatal("failed to initialise share repository", zap.Error(err))
	}

	var (
		publisher   services.EventPublisher
		eventsTopic *pubsub.Topic
	)
	if topicID := strings.TrimSpace(cfg.Events.Topic); topicID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		eventsTopic = pubsubClient.Topic(topicID)
		pubsubPublisher, err := events.NewPubSubPublisher(eventsTopic, "book-api")
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
		defer pubsubPublisher.Stop()
		publisher = pubsubPublisher
	}

	var external services.ExternalRecommender
	if cfg.GenAI.Enabled {
		client, err := genai.NewClient(genai.ClientConfig{
			Endpoint:        cfg.GenAI.Endpoint,
			Model:           cfg.GenAI.Model,
			APIKey:          cfg.GenAI.APIKey,
			Timeout:         cfg.GenAI.Timeout,
			RequestsPerMin:  cfg.GenAI.RequestsPerMin,
			Burst:           cfg.GenAI.Burst,
			BreakerFailures: cfg.GenAI.BreakerFailures,
			BreakerCooldown: cfg.GenAI.BreakerCooldown,
			Meter:           meter,
		})
		if err != nil {
			logger.Fatal("failed to initialise genai client", zap.Error(err))
		}
		recommender, err := genai.NewRecommender(client, books)
		if err != nil {
			logger.Fatal("failed to initialise genai recommender", zap.Error(err))
		}
		external = recommender
	} else {
		logger.Info("genai disabled; serving rule-based recommendations only")
	}

	recommendationService, err := services.NewRecommendationService(services.RecommendationServiceDeps{
		Catalog:  books,
		Stats:    stats.NewMemoryStore(),
		External: external,
		Events:   publisher,
		Meter:    meter,
		Clock:    time.Now,
		Logger:   observability.EventLogger(logger, "recommendations"),
	})
	if err != nil {
		logger.Fatal("failed to initialise recommendation service", zap.Error(err))
	}

	shareService, err := services.NewShareService(services.ShareServiceDeps{
		Repository: shareRepo,
		Events:     publisher,
		TTL:        cfg.Shares.TTL,
		BaseURL:    cfg.Shares.PublicBaseURL,
		Clock:      time.Now,
		Logger:     observability.EventLogger(logger, "shares"),
	})
	if err != nil {
		logger.Fatal("failed to initialise share service", zap.Error(err))
	}

	systemService, err := newSystemService(books, shareRepo, eventsTopic, buildInfo)
	if err != nil {
		logger.Fatal("failed to initialise system service", zap.Error(err))
	}

	var internalVerifier *auth.InternalTokenVerifier
	if secret := strings.TrimSpace(cfg.Security.InternalTokenSecret); secret != "" {
		internalVerifier, err = auth.NewInternalTokenVerifier(secret, auth.WithIssuer(cfg.Security.InternalTokenIssuer))
		if err != nil {
			logger.Fatal("failed to initialise internal token verifier", zap.Error(err))
		}
	} else {
		logger.Warn("internal token secret not configured; internal routes disabled")
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	if cfg.Shares.CleanupInterval > 0 {
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			runShareCleanup(cleanupCtx, logger.Named("shares"), shareService, cfg.Shares.CleanupInterval, cfg.Shares.CleanupBatchSize)
		}()
	}

	validator := validation.New()
	recommendationHandlers := handlers.NewRecommendationHandlers(recommendationService, validator)
	shareHandlers := handlers.NewShareHandlers(shareService, validator)
	internalHandlers := handlers.NewInternalHandlers(recommendationService)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(systemService),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(traceProjectID(cfg)),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithAllowedOrigins(cfg.CORS.AllowedOrigins...),
		handlers.WithRateLimit(cfg.RateLimits.PerMinute),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithRecommendationRoutes(recommendationHandlers.Routes),
		handlers.WithShareRoutes(shareHandlers.Routes),
		handlers.WithInternalRoutes(internalHandlers.Routes),
		handlers.WithInternalMiddlewares(auth.RequireInternalToken(internalVerifier)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("book api listening",
			zap.String("environment", buildInfo.Environment),
			zap.Bool("genai", external != nil),
			zap.String("shares_backend", cfg.Shares.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func loadCatalog(ctx context.Context, logger *zap.Logger, cfg config.Config) (*catalog.Catalog, error) {
	bucket := strings.TrimSpace(cfg.Catalog.Bucket)
	if bucket == "" {
		return catalog.LoadEmbedded()
	}

	client, err := cloudstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	reader, err := platformstorage.NewReader(client)
	if err != nil {
		return nil, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	loaded, err := catalog.LoadFromBucket(loadCtx, reader, bucket, cfg.Catalog.Object)
	if err != nil {
		var invalid *catalog.ValidationError
		if errors.As(err, &invalid) {
			return nil, err
		}
		logger.Warn("catalog override unavailable; using embedded catalog",
			zap.String("bucket", bucket),
			zap.String("object", cfg.Catalog.Object),
			zap.Error(err),
		)
		return catalog.LoadEmbedded()
	}
	logger.Info("catalog loaded from bucket", zap.String("bucket", bucket), zap.String("object", cfg.Catalog.Object))
	return loaded, nil
}

func newShareRepository(provider *pfirestore.Provider, cfg config.ShareConfig) (repositories.ShareRepository, error) {
	switch cfg.Backend {
	case config.ShareBackendFirestore:
		return firestoreRepo.NewShareRepository(provider, cfg.Collection)
	case config.ShareBackendMemory, "":
		return memoryRepo.NewShareRepository(), nil
	default:
		return nil, fmt.Errorf("unknown share backend %q", cfg.Backend)
	}
}

func newSystemService(books *catalog.Catalog, shares repositories.ShareRepository, topic *pubsub.Topic, build services.BuildInfo) (services.SystemService, error) {
	checks := []repositories.DependencyCheck{
		{
			Name:    "shares",
			Timeout: 1500 * time.Millisecond,
			Check:   shares.Ping,
		},
	}
	if topic != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:     "events",
			Timeout:  time.Second,
			Optional: true,
			Check: func(ctx context.Context) error {
				ok, err := topic.Exists(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("topic %s does not exist", topic.ID())
				}
				return nil
			},
		})
	}

	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		Dependencies: repo,
		Catalog:      books,
		Clock:        time.Now,
		Build:        build,
	})
}

func runShareCleanup(ctx context.Context, logger *zap.Logger, shares services.ShareService, interval time.Duration, batch int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			removed, err := shares.CleanupExpired(runCtx, batch)
			cancel()
			if err != nil {
				logger.Error("share cleanup error", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("share cleanup removed records", zap.Int("count", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["API_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Security.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretResolver(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Resolver, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(env[key])
	}

	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithMeter(otel.GetMeterProvider().Meter(meterName)),
	}
	if fallback, ok := env["API_SECRET_FALLBACK_FILE"]; ok {
		opts = append(opts, secrets.WithFallbackFile(strings.TrimSpace(fallback)))
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if ttl, err := time.ParseDuration(lookup("API_SECRET_CACHE_TTL")); err == nil && ttl > 0 {
		opts = append(opts, secrets.WithCacheTTL(ttl))
	}
	if credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE"); credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewResolver(ctx, opts...)
}

func requiredSecretNames(env map[string]string) []string {
	var required []string
	switch strings.ToLower(strings.TrimSpace(env["API_GENAI_ENABLED"])) {
	case "1", "true", "yes", "on":
		required = append(required, "GenAI.APIKey")
	}
	if strings.EqualFold(strings.TrimSpace(env["API_SECURITY_ENVIRONMENT"]), "prod") {
		required = append(required, "Security.InternalTokenSecret")
	}
	return required
}
