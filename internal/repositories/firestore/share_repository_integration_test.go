//go:build integration

package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	domain "github.com/jooyeonthemaster/book/internal/domain"
	pconfig "github.com/jooyeonthemaster/book/internal/platform/config"
	pfirestore "github.com/jooyeonthemaster/book/internal/platform/firestore"
	"github.com/jooyeonthemaster/book/internal/repositories"
)

func TestShareRepositoryIntegration(t *testing.T) {
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	provider := pfirestore.NewProvider(pconfig.FirestoreConfig{ProjectID: "share-test", EmulatorHost: host})
	t.Cleanup(func() {
		_ = provider.Close()
	})

	repo, err := NewShareRepository(provider, "shares-"+time.Now().Format("150405.000000"))
	if err != nil {
		t.Fatalf("new share repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	live := domain.Share{
		ID:      "01jnlive",
		Version: "1.0",
		Result: domain.RecommendationResult{
			Book:        domain.Book{ID: 2, Title: "아몬드"},
			Fragrance:   domain.Fragrance{ID: 2, BookID: 2, LiteraryName: "아몬드 블라썸", Category: domain.CategoryFloral},
			MatchReason: "reason",
			Confidence:  88,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	stale := live
	stale.ID = "01jnstale"
	stale.ExpiresAt = now.Add(-time.Minute)

	for _, share := range []domain.Share{live, stale} {
		if err := repo.Insert(ctx, share); err != nil {
			t.Fatalf("insert %s: %v", share.ID, err)
		}
	}
	if err := repo.Insert(ctx, live); err == nil {
		t.Fatalf("expected duplicate insert to fail")
	} else if repoErr, ok := err.(repositories.RepositoryError); !ok || !repoErr.IsConflict() {
		t.Fatalf("expected conflict, got %v", err)
	}

	for want := 1; want <= 2; want++ {
		got, err := repo.Open(ctx, live.ID, now)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if got.ViewCount != want {
			t.Fatalf("expected view count %d, got %d", want, got.ViewCount)
		}
		if got.Result.Book.Title != "아몬드" || got.Result.Fragrance.Category != domain.CategoryFloral {
			t.Fatalf("unexpected result %+v", got.Result)
		}
	}

	expired, err := repo.Open(ctx, stale.ID, now)
	if err != nil {
		t.Fatalf("open stale: %v", err)
	}
	if expired.ViewCount != 0 || !expired.Expired(now) {
		t.Fatalf("expected stale share untouched, got %+v", expired)
	}

	if _, err := repo.Open(ctx, "missing", now); err == nil {
		t.Fatalf("expected not found")
	} else if repoErr, ok := err.(repositories.RepositoryError); !ok || !repoErr.IsNotFound() {
		t.Fatalf("expected not found classification, got %v", err)
	}

	removed, err := repo.DeleteExpired(ctx, now, 10)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one expired share removed, got %d", removed)
	}
}
