package repositories

import (
	"context"
	"time"

	domain "github.com/jooyeonthemaster/book/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ShareRepository persists shared recommendation snapshots.
type ShareRepository interface {
	// Insert stores a new share. Returns a RepositoryError with IsConflict when the id is taken.
	Insert(ctx context.Context, share domain.Share) error
	// Open loads a share and, unless it has expired at now, increments its view counter in the same step.
	// Should return a RepositoryError with IsNotFound when the share is absent; expired shares are returned
	// unchanged and the caller decides.
	Open(ctx context.Context, shareID string, now time.Time) (domain.Share, error)
	// DeleteExpired removes up to limit shares whose expiry is at or before now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error)
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// HealthRepository aggregates dependency probes for readiness reporting.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
