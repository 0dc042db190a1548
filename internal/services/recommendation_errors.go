package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecommendationInvalidInput indicates the survey answers are incomplete.
	ErrRecommendationInvalidInput = errors.New("recommendation: invalid input")
	// ErrRecommendationCatalogEmpty indicates no book has a paired fragrance, so nothing can be recommended.
	ErrRecommendationCatalogEmpty = errors.New("recommendation: catalog has no book and fragrance pairs")
	// ErrRecommendationBookNotFound indicates the requested book id is not in the catalog.
	ErrRecommendationBookNotFound = errors.New("recommendation: book not found")
	// ErrRecommendationFragranceNotFound indicates the requested book has no paired fragrance.
	ErrRecommendationFragranceNotFound = errors.New("recommendation: fragrance not found")
	// ErrShareInvalidInput indicates the share payload or id is malformed.
	ErrShareInvalidInput = errors.New("share: invalid input")
	// ErrShareNotFound indicates the share does not exist or has expired.
	ErrShareNotFound = errors.New("share: not found")
)

// FieldProblem names one invalid survey field.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError lists the survey fields that blocked a recommendation. It wraps ErrRecommendationInvalidInput.
type ValidationError struct {
	Problems []FieldProblem
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return fmt.Sprintf("%s: %s", ErrRecommendationInvalidInput.Error(), strings.Join(parts, "; "))
}

// Unwrap exposes the sentinel for errors.Is checks.
func (e *ValidationError) Unwrap() error {
	return ErrRecommendationInvalidInput
}

// Fields returns the invalid field names in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Field)
	}
	return out
}
