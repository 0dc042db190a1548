package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jooyeonthemaster/book/internal/domain"
)

const (
	recommendationMetricNamespace = "github.com/jooyeonthemaster/book/internal/services"

	recommendationEventIssued        = "recommendation.issued"
	recommendationLogUnmapped        = "preferences.unmapped_label"
	recommendationLogExternalFailed  = "recommendation.external_failed"
	recommendationLogExternalInvalid = "recommendation.external_invalid"
	recommendationLogIssued          = "recommendation.issued"
	recommendationLogPublishFailed   = "recommendation.publish_failed"
	recommendationLogStatsReset      = "recommendation.stats_reset"

	bookSpecificConfidence = 90
)

// RecommendationServiceDeps bundles collaborators required to construct a recommendation service.
type RecommendationServiceDeps struct {
	Catalog  CatalogReader
	Stats    StatsStore
	External ExternalRecommender
	Events   EventPublisher
	Meter    metric.Meter
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type recommendationService struct {
	catalog  CatalogReader
	stats    StatsStore
	selector *Selector
	external ExternalRecommender
	events   EventPublisher
	issued   metric.Int64Counter
	clock    func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewRecommendationService constructs the recommendation pipeline. External and Events are optional.
func NewRecommendationService(deps RecommendationServiceDeps) (RecommendationService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("recommendation service: catalog is required")
	}
	if deps.Stats == nil {
		return nil, errors.New("recommendation service: stats store is required")
	}

	selector, err := NewSelector(deps.Catalog, deps.Stats)
	if err != nil {
		return nil, err
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(recommendationMetricNamespace)
	}
	issued, err := meter.Int64Counter(
		"recommendations.issued",
		metric.WithDescription("Count of recommendations returned, by producing engine"),
	)
	if err != nil {
		return nil, err
	}

	return &recommendationService{
		catalog:  deps.Catalog,
		stats:    deps.Stats,
		selector: selector,
		external: deps.External,
		events:   deps.Events,
		issued:   issued,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *recommendationService) Recommend(ctx context.Context, input SurveyInput) (RecommendationResult, error) {
	prefs, err := s.preferences(ctx, input)
	if err != nil {
		return RecommendationResult{}, err
	}

	if s.external != nil {
		if result, ok := s.recommendExternal(ctx, prefs); ok {
			s.stats.Increment(result.Fragrance.ID)
			s.finish(ctx, input, result)
			return result, nil
		}
	}

	selection, err := s.selector.Select(prefs)
	if err != nil {
		return RecommendationResult{}, err
	}

	confidence := clampPercent(selection.AdjustedScore)
	winner := selection.Winner
	result := RecommendationResult{
		Book:        winner.Book,
		Fragrance:   winner.Fragrance,
		MatchReason: FallbackMatchReason(ComposeMatchReason(winner.Book, winner.Fragrance, prefs, confidence)),
		Confidence:  confidence,
		Source:      domain.SourceFallback,
	}
	for _, alt := range selection.Alternatives {
		result.AlternativeBooks = append(result.AlternativeBooks, alt.Book)
		result.AlternativeFragrances = append(result.AlternativeFragrances, alt.Fragrance)
	}

	s.finish(ctx, input, result)
	return result, nil
}

func (s *recommendationService) RecommendForBook(ctx context.Context, bookID int, input SurveyInput) (RecommendationResult, error) {
	book, ok := s.catalog.Book(bookID)
	if !ok {
		return RecommendationResult{}, ErrRecommendationBookNotFound
	}
	fragrance, ok := s.catalog.FragranceForBook(book.ID)
	if !ok {
		return RecommendationResult{}, ErrRecommendationFragranceNotFound
	}

	prefs, err := s.preferences(ctx, input)
	if err != nil {
		return RecommendationResult{}, err
	}

	result := RecommendationResult{
		Book:        book,
		Fragrance:   fragrance,
		MatchReason: ComposeBookReason(book, fragrance, prefs),
		Confidence:  bookSpecificConfidence,
		Source:      domain.SourceBookSpecific,
	}
	s.finish(ctx, input, result)
	return result, nil
}

func (s *recommendationService) Stats(context.Context) (StatsSnapshot, error) {
	counts, total := s.stats.Snapshot()
	return StatsSnapshot{Counts: counts, Total: total}, nil
}

func (s *recommendationService) ResetStats(ctx context.Context) error {
	s.stats.Reset()
	s.logger(ctx, recommendationLogStatsReset, nil)
	return nil
}

func (s *recommendationService) preferences(ctx context.Context, input SurveyInput) (UserPreferences, error) {
	if err := ValidateSurvey(input); err != nil {
		return UserPreferences{}, err
	}
	normalized := NormalizeSurvey(input)
	for _, label := range normalized.Unmapped {
		s.logger(ctx, recommendationLogUnmapped, map[string]any{
			"field":         label.Field,
			"value":         label.Value,
			"surveyVersion": SurveyVersion(input),
		})
	}
	return normalized.Preferences, nil
}

func (s *recommendationService) recommendExternal(ctx context.Context, prefs UserPreferences) (RecommendationResult, bool) {
	selection, err := s.external.Recommend(ctx, prefs)
	if err != nil {
		s.logger(ctx, recommendationLogExternalFailed, map[string]any{"error": err.Error()})
		return RecommendationResult{}, false
	}

	book, ok := s.catalog.Book(selection.BookID)
	if !ok {
		s.logExternalInvalid(ctx, selection, "unknown book")
		return RecommendationResult{}, false
	}
	fragrance, ok := s.catalog.Fragrance(selection.FragranceID)
	if !ok {
		s.logExternalInvalid(ctx, selection, "unknown fragrance")
		return RecommendationResult{}, false
	}
	if fragrance.BookID != book.ID {
		s.logExternalInvalid(ctx, selection, "fragrance not paired with book")
		return RecommendationResult{}, false
	}
	if selection.FragranceDescription != "" {
		fragrance.Description = selection.FragranceDescription
	}

	result := RecommendationResult{
		Book:         book,
		Fragrance:    fragrance,
		MatchReason:  selection.MatchReason,
		Confidence:   clampPercent(float64(selection.Confidence)),
		DeepAnalysis: selection.DeepAnalysis,
		Source:       domain.SourceExternal,
	}
	for _, id := range selection.AlternativeBookIDs {
		if len(result.AlternativeBooks) == maxAlternatives {
			break
		}
		if alt, ok := s.catalog.Book(id); ok && alt.ID != book.ID {
			result.AlternativeBooks = append(result.AlternativeBooks, alt)
		}
	}
	for _, id := range selection.AlternativeFragranceIDs {
		if len(result.AlternativeFragrances) == maxAlternatives {
			break
		}
		if alt, ok := s.catalog.Fragrance(id); ok && alt.ID != fragrance.ID {
			result.AlternativeFragrances = append(result.AlternativeFragrances, alt)
		}
	}
	return result, true
}

func (s *recommendationService) logExternalInvalid(ctx context.Context, selection ExternalSelection, reason string) {
	s.logger(ctx, recommendationLogExternalInvalid, map[string]any{
		"bookId":      selection.BookID,
		"fragranceId": selection.FragranceID,
		"reason":      reason,
	})
}

func (s *recommendationService) finish(ctx context.Context, input SurveyInput, result RecommendationResult) {
	mode := string(result.Source)
	s.issued.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	s.logger(ctx, recommendationLogIssued, map[string]any{
		"bookId":      result.Book.ID,
		"fragranceId": result.Fragrance.ID,
		"confidence":  result.Confidence,
		"mode":        mode,
	})

	if s.events == nil {
		return
	}
	event := DomainEvent{
		Type:       recommendationEventIssued,
		OccurredAt: s.clock(),
		Attributes: map[string]string{
			"mode":          mode,
			"surveyVersion": SurveyVersion(input),
		},
		Payload: map[string]any{
			"bookId":      result.Book.ID,
			"fragranceId": result.Fragrance.ID,
			"confidence":  result.Confidence,
		},
	}
	if _, err := s.events.PublishEvent(ctx, event); err != nil {
		s.logger(ctx, recommendationLogPublishFailed, map[string]any{
			"error":       err.Error(),
			"fragranceId": result.Fragrance.ID,
		})
	}
}
