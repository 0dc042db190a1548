package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jooyeonthemaster/book/internal/repositories"
)

const (
	// DefaultShareTTL is how long a shared recommendation stays reachable.
	DefaultShareTTL = 30 * 24 * time.Hour

	shareVersion        = "1.0"
	shareEventCreated   = "share.created"
	shareLogCreated     = "share.created"
	shareLogPublishFail = "share.publish_failed"
	shareLogCleanup     = "share.cleanup"
)

// ShareServiceDeps bundles collaborators required to construct a share service.
type ShareServiceDeps struct {
	Repository  repositories.ShareRepository
	Events      EventPublisher
	TTL         time.Duration
	BaseURL     string
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type shareService struct {
	repo    repositories.ShareRepository
	events  EventPublisher
	ttl     time.Duration
	baseURL string
	clock   func() time.Time
	newID   func() string
	logger  func(ctx context.Context, event string, fields map[string]any)
}

var _ ShareService = (*shareService)(nil)

// NewShareService constructs the share service. Events is optional.
func NewShareService(deps ShareServiceDeps) (ShareService, error) {
	if deps.Repository == nil {
		return nil, errors.New("share service: repository is required")
	}

	ttl := deps.TTL
	if ttl <= 0 {
		ttl = DefaultShareTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return strings.ToLower(ulid.Make().String()) }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &shareService{
		repo:    deps.Repository,
		events:  deps.Events,
		ttl:     ttl,
		baseURL: strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/"),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *shareService) Create(ctx context.Context, result RecommendationResult) (ShareReceipt, error) {
	if result.Book.ID <= 0 || result.Fragrance.ID <= 0 || strings.TrimSpace(result.Book.Title) == "" {
		return ShareReceipt{}, fmt.Errorf("%w: book and fragrance are required", ErrShareInvalidInput)
	}

	// Shares keep only the primary recommendation.
	result.AlternativeBooks = nil
	result.AlternativeFragrances = nil

	now := s.clock()
	share := Share{
		ID:        s.newID(),
		Result:    result,
		Version:   shareVersion,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Insert(ctx, share); err != nil {
		return ShareReceipt{}, fmt.Errorf("share service: insert: %w", err)
	}

	receipt := ShareReceipt{
		ID:        share.ID,
		URL:       s.baseURL + "/share/" + share.ID,
		ExpiresAt: share.ExpiresAt,
	}
	s.logger(ctx, shareLogCreated, map[string]any{
		"shareId":     share.ID,
		"bookId":      result.Book.ID,
		"fragranceId": result.Fragrance.ID,
	})
	s.publishCreated(ctx, share)
	return receipt, nil
}

func (s *shareService) Get(ctx context.Context, shareID string) (RecommendationResult, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return RecommendationResult{}, fmt.Errorf("%w: share id is required", ErrShareInvalidInput)
	}

	now := s.clock()
	share, err := s.repo.Open(ctx, shareID, now)
	if err != nil {
		if isRepoNotFound(err) {
			return RecommendationResult{}, ErrShareNotFound
		}
		return RecommendationResult{}, fmt.Errorf("share service: open: %w", err)
	}
	if share.Expired(now) {
		return RecommendationResult{}, ErrShareNotFound
	}
	return share.Result, nil
}

func (s *shareService) CleanupExpired(ctx context.Context, limit int) (int, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.clock(), limit)
	if removed > 0 {
		s.logger(ctx, shareLogCleanup, map[string]any{"removed": removed})
	}
	return removed, err
}

func (s *shareService) publishCreated(ctx context.Context, share Share) {
	if s.events == nil {
		return
	}
	event := DomainEvent{
		Type:       shareEventCreated,
		OccurredAt: share.CreatedAt,
		Attributes: map[string]string{"version": share.Version},
		Payload: map[string]any{
			"shareId":     share.ID,
			"bookId":      share.Result.Book.ID,
			"fragranceId": share.Result.Fragrance.ID,
			"expiresAt":   share.ExpiresAt,
		},
	}
	if _, err := s.events.PublishEvent(ctx, event); err != nil {
		s.logger(ctx, shareLogPublishFail, map[string]any{
			"shareId": share.ID,
			"error":   err.Error(),
		})
	}
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
