package genai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jooyeonthemaster/book/internal/domain"
)

// ParseError describes a model reply that could not be turned into a selection.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("genai: parse recommendation: %s: %v", e.Reason, e.Err)
	}
	return "genai: parse recommendation: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

type idRef struct {
	ID *int `json:"id"`
}

type recommendationPayload struct {
	SelectedBook      *idRef `json:"selectedBook"`
	SelectedFragrance *struct {
		ID          *int   `json:"id"`
		Description string `json:"description"`
	} `json:"selectedFragrance"`
	MatchReason           string  `json:"matchReason"`
	Confidence            float64 `json:"confidence"`
	AlternativeBooks      []idRef `json:"alternativeBooks"`
	AlternativeFragrances []idRef `json:"alternativeFragrances"`
	DeepAnalysis          *struct {
		UserPsychology     string   `json:"userPsychology"`
		EmotionalResonance string   `json:"emotionalResonance"`
		HiddenNeeds        string   `json:"hiddenNeeds"`
		PersonalKeywords   []string `json:"personalKeywords"`
	} `json:"deepAnalysis"`
}

// ParseRecommendation extracts the JSON object from a model reply and validates the required fields.
func ParseRecommendation(text string) (domain.ExternalSelection, error) {
	raw := extractJSON(text)
	if raw == "" {
		return domain.ExternalSelection{}, &ParseError{Reason: "no JSON object in reply"}
	}

	var payload recommendationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.ExternalSelection{}, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if payload.SelectedBook == nil || payload.SelectedBook.ID == nil {
		return domain.ExternalSelection{}, &ParseError{Reason: "selectedBook.id missing"}
	}
	if payload.SelectedFragrance == nil || payload.SelectedFragrance.ID == nil {
		return domain.ExternalSelection{}, &ParseError{Reason: "selectedFragrance.id missing"}
	}
	if strings.TrimSpace(payload.MatchReason) == "" {
		return domain.ExternalSelection{}, &ParseError{Reason: "matchReason missing"}
	}

	selection := domain.ExternalSelection{
		BookID:               *payload.SelectedBook.ID,
		FragranceID:          *payload.SelectedFragrance.ID,
		MatchReason:          strings.TrimSpace(payload.MatchReason),
		Confidence:           int(math.Round(payload.Confidence)),
		FragranceDescription: strings.TrimSpace(payload.SelectedFragrance.Description),
	}
	for _, ref := range payload.AlternativeBooks {
		if ref.ID != nil {
			selection.AlternativeBookIDs = append(selection.AlternativeBookIDs, *ref.ID)
		}
	}
	for _, ref := range payload.AlternativeFragrances {
		if ref.ID != nil {
			selection.AlternativeFragranceIDs = append(selection.AlternativeFragranceIDs, *ref.ID)
		}
	}
	if da := payload.DeepAnalysis; da != nil {
		selection.DeepAnalysis = &domain.DeepAnalysis{
			UserPsychology:     da.UserPsychology,
			EmotionalResonance: da.EmotionalResonance,
			HiddenNeeds:        da.HiddenNeeds,
			PersonalKeywords:   da.PersonalKeywords,
		}
	}
	return selection, nil
}

func extractJSON(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}
