package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/repositories"
	"github.com/jooyeonthemaster/book/internal/repositories/memory"
)

type failingShareRepository struct {
	repositories.ShareRepository
	err error
}

func (f failingShareRepository) Open(context.Context, string, time.Time) (domain.Share, error) {
	return domain.Share{}, f.err
}

func sharedResult() RecommendationResult {
	return RecommendationResult{
		Book:                  Book{ID: 2, Title: "아몬드"},
		Fragrance:             Fragrance{ID: 2, BookID: 2, LiteraryName: "아몬드 블라썸"},
		MatchReason:           "reason",
		Confidence:            84,
		AlternativeBooks:      []Book{{ID: 3, Title: "사피엔스"}},
		AlternativeFragrances: []Fragrance{{ID: 3, BookID: 3}},
		Source:                domain.SourceFallback,
	}
}

func TestShareServiceCreateAndGet(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	repo := memory.NewShareRepository()
	events := &stubEventPublisher{}
	svc, err := NewShareService(ShareServiceDeps{
		Repository:  repo,
		Events:      events,
		BaseURL:     "https://book.example.com/",
		Clock:       func() time.Time { return clock },
		IDGenerator: func() string { return "01jnshare" },
	})
	if err != nil {
		t.Fatalf("new share service: %v", err)
	}

	receipt, err := svc.Create(context.Background(), sharedResult())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if receipt.ID != "01jnshare" {
		t.Fatalf("expected generated id, got %s", receipt.ID)
	}
	if receipt.URL != "https://book.example.com/share/01jnshare" {
		t.Fatalf("unexpected share url %s", receipt.URL)
	}
	if want := now.Add(720 * time.Hour); !receipt.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, receipt.ExpiresAt)
	}
	if len(events.events) != 1 || events.events[0].Type != "share.created" {
		t.Fatalf("expected share.created event, got %+v", events.events)
	}

	got, err := svc.Get(context.Background(), " 01jnshare ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Book.Title != "아몬드" || got.Confidence != 84 {
		t.Fatalf("unexpected shared result %+v", got)
	}
	if len(got.AlternativeBooks) != 0 || len(got.AlternativeFragrances) != 0 {
		t.Fatalf("expected alternatives to be dropped, got %+v", got)
	}

	clock = now.Add(720 * time.Hour)
	if _, err := svc.Get(context.Background(), "01jnshare"); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected expired share to be not found, got %v", err)
	}

	removed, err := svc.CleanupExpired(context.Background(), 10)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 || repo.Len() != 0 {
		t.Fatalf("expected expired share removed, got %d (remaining %d)", removed, repo.Len())
	}
}

func TestShareServiceDefaultIDsAreLowercaseULIDs(t *testing.T) {
	svc, _ := NewShareService(ShareServiceDeps{Repository: memory.NewShareRepository()})
	receipt, err := svc.Create(context.Background(), sharedResult())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(receipt.ID) != 26 {
		t.Fatalf("expected 26 character id, got %q", receipt.ID)
	}
	for _, r := range receipt.ID {
		if r >= 'A' && r <= 'Z' {
			t.Fatalf("expected lowercase id, got %q", receipt.ID)
		}
	}
}

func TestShareServiceErrors(t *testing.T) {
	svc, _ := NewShareService(ShareServiceDeps{Repository: memory.NewShareRepository()})

	if _, err := svc.Create(context.Background(), RecommendationResult{}); !errors.Is(err, ErrShareInvalidInput) {
		t.Fatalf("expected invalid input for empty result, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "  "); !errors.Is(err, ErrShareInvalidInput) {
		t.Fatalf("expected invalid input for blank id, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	backendErr := errors.New("unavailable")
	broken, _ := NewShareService(ShareServiceDeps{Repository: failingShareRepository{err: backendErr}})
	if _, err := broken.Get(context.Background(), "abc"); !errors.Is(err, backendErr) || errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected backend error to propagate, got %v", err)
	}
}

func TestShareServicePublishFailureDoesNotFailCreate(t *testing.T) {
	logs := &logRecorder{}
	svc, _ := NewShareService(ShareServiceDeps{
		Repository: memory.NewShareRepository(),
		Events:     &stubEventPublisher{err: errors.New("pubsub down")},
		Logger:     logs.log,
	})
	if _, err := svc.Create(context.Background(), sharedResult()); err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if !logs.has("share.publish_failed") {
		t.Fatalf("expected publish failure to be logged, got %v", logs.events)
	}
}
