package services

import (
	"context"
	"time"

	domain "github.com/jooyeonthemaster/book/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Book                 = domain.Book
	Fragrance            = domain.Fragrance
	Pair                 = domain.Pair
	UserPreferences      = domain.UserPreferences
	RecommendationResult = domain.RecommendationResult
	DeepAnalysis         = domain.DeepAnalysis
	ExternalSelection    = domain.ExternalSelection
	Share                = domain.Share
	SystemHealthReport   = domain.SystemHealthReport
)

// RecommendationService turns survey answers into a book and fragrance recommendation.
type RecommendationService interface {
	Recommend(ctx context.Context, input SurveyInput) (RecommendationResult, error)
	RecommendForBook(ctx context.Context, bookID int, input SurveyInput) (RecommendationResult, error)
	Stats(ctx context.Context) (StatsSnapshot, error)
	ResetStats(ctx context.Context) error
}

// ShareService stores recommendation snapshots behind short-lived public ids.
type ShareService interface {
	Create(ctx context.Context, result RecommendationResult) (ShareReceipt, error)
	Get(ctx context.Context, shareID string) (RecommendationResult, error)
	CleanupExpired(ctx context.Context, limit int) (int, error)
}

// SystemService reports service health for liveness and readiness probes.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// CatalogReader is the read-only view of books and fragrances used by the recommendation pipeline.
type CatalogReader interface {
	Pairs() []Pair
	Book(id int) (Book, bool)
	Fragrance(id int) (Fragrance, bool)
	FragranceForBook(bookID int) (Fragrance, bool)
}

// StatsStore tracks how often each fragrance has been recommended.
type StatsStore interface {
	Register(ids ...int)
	Increment(id int) int
	Count(id int) int
	Average() float64
	Snapshot() (map[int]int, int)
	Reset()
}

// ExternalRecommender delegates selection to a generative language model.
type ExternalRecommender interface {
	Recommend(ctx context.Context, prefs UserPreferences) (ExternalSelection, error)
}

// EventPublisher forwards domain events to downstream consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event DomainEvent) (string, error)
}

// DomainEvent is the envelope published for recommendation and share lifecycle changes.
type DomainEvent struct {
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attributes map[string]string `json:"-"`
	Payload    map[string]any    `json:"payload,omitempty"`
}

// StatsSnapshot reports recommendation counts per fragrance id.
type StatsSnapshot struct {
	Counts map[int]int
	Total  int
}

// ShareReceipt is returned after a share has been stored.
type ShareReceipt struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}
