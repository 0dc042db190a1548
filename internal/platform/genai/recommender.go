package genai

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/services"
)

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recommender adapts a Generator into services.ExternalRecommender.
type Recommender struct {
	generator Generator
	catalog   Catalog
	policy    *bluemonday.Policy
}

var _ services.ExternalRecommender = (*Recommender)(nil)

// NewRecommender wires a generator to the catalog it prompts over.
func NewRecommender(generator Generator, catalog Catalog) (*Recommender, error) {
	if generator == nil {
		return nil, errors.New("genai: generator is required")
	}
	if catalog == nil {
		return nil, errors.New("genai: catalog is required")
	}
	return &Recommender{
		generator: generator,
		catalog:   catalog,
		policy:    bluemonday.StrictPolicy(),
	}, nil
}

// Recommend prompts the model and returns its parsed, sanitised selection. Catalog resolution is left to the caller.
func (r *Recommender) Recommend(ctx context.Context, prefs domain.UserPreferences) (domain.ExternalSelection, error) {
	text, err := r.generator.Generate(ctx, BuildPrompt(prefs, r.catalog))
	if err != nil {
		return domain.ExternalSelection{}, err
	}
	selection, err := ParseRecommendation(text)
	if err != nil {
		return domain.ExternalSelection{}, err
	}

	selection.MatchReason = r.sanitize(selection.MatchReason)
	if selection.MatchReason == "" {
		return domain.ExternalSelection{}, &ParseError{Reason: "matchReason empty after sanitising"}
	}
	selection.FragranceDescription = r.sanitize(selection.FragranceDescription)
	if da := selection.DeepAnalysis; da != nil {
		da.UserPsychology = r.sanitize(da.UserPsychology)
		da.EmotionalResonance = r.sanitize(da.EmotionalResonance)
		da.HiddenNeeds = r.sanitize(da.HiddenNeeds)
		keywords := da.PersonalKeywords[:0]
		for _, keyword := range da.PersonalKeywords {
			if clean := r.sanitize(keyword); clean != "" {
				keywords = append(keywords, clean)
			}
		}
		da.PersonalKeywords = keywords
	}
	return selection, nil
}

// sanitize strips markup and returns plain text.
func (r *Recommender) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}
