package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/repositories"
)

// ShareRepository keeps shares in process memory. Used for local development and tests.
type ShareRepository struct {
	mu     sync.Mutex
	shares map[string]domain.Share
}

var _ repositories.ShareRepository = (*ShareRepository)(nil)

// NewShareRepository constructs an empty in-memory share repository.
func NewShareRepository() *ShareRepository {
	return &ShareRepository{shares: make(map[string]domain.Share)}
}

// Insert implements repositories.ShareRepository.
func (r *ShareRepository) Insert(_ context.Context, share domain.Share) error {
	id := strings.TrimSpace(share.ID)
	if id == "" {
		return &repositoryError{op: "shares.insert", msg: "id is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.shares[id]; exists {
		return &repositoryError{op: "shares.insert", msg: fmt.Sprintf("share %s already exists", id), conflict: true}
	}
	share.ID = id
	r.shares[id] = cloneShare(share)
	return nil
}

// Open implements repositories.ShareRepository.
func (r *ShareRepository) Open(_ context.Context, shareID string, now time.Time) (domain.Share, error) {
	id := strings.TrimSpace(shareID)

	r.mu.Lock()
	defer r.mu.Unlock()

	share, ok := r.shares[id]
	if !ok {
		return domain.Share{}, &repositoryError{op: "shares.open", msg: fmt.Sprintf("share %s not found", id), notFound: true}
	}
	if !share.Expired(now) {
		share.ViewCount++
		r.shares[id] = share
	}
	return cloneShare(share), nil
}

// DeleteExpired removes the oldest expired shares first, up to limit.
func (r *ShareRepository) DeleteExpired(_ context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	expired := make([]domain.Share, 0)
	for _, share := range r.shares {
		if share.Expired(now) {
			expired = append(expired, share)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		if expired[i].ExpiresAt.Equal(expired[j].ExpiresAt) {
			return expired[i].ID < expired[j].ID
		}
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if len(expired) > limit {
		expired = expired[:limit]
	}
	for _, share := range expired {
		delete(r.shares, share.ID)
	}
	return len(expired), nil
}

// Ping always succeeds.
func (r *ShareRepository) Ping(context.Context) error {
	return nil
}

// Len reports the number of stored shares.
func (r *ShareRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shares)
}

func cloneShare(share domain.Share) domain.Share {
	result := share.Result
	result.AlternativeBooks = append([]domain.Book(nil), result.AlternativeBooks...)
	result.AlternativeFragrances = append([]domain.Fragrance(nil), result.AlternativeFragrances...)
	if result.DeepAnalysis != nil {
		analysis := *result.DeepAnalysis
		analysis.PersonalKeywords = append([]string(nil), analysis.PersonalKeywords...)
		result.DeepAnalysis = &analysis
	}
	share.Result = result
	return share
}

type repositoryError struct {
	op       string
	msg      string
	notFound bool
	conflict bool
}

func (e *repositoryError) Error() string {
	return e.op + ": " + e.msg
}

func (e *repositoryError) IsNotFound() bool    { return e.notFound }
func (e *repositoryError) IsConflict() bool    { return e.conflict }
func (e *repositoryError) IsUnavailable() bool { return false }
