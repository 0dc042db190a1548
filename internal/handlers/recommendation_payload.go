package handlers

import (
	"github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/services"
)

type bookPayload struct {
	ID          int      `json:"id" validate:"gt=0"`
	Title       string   `json:"title" validate:"required,max=200"`
	Author      string   `json:"author" validate:"max=200"`
	Genre       string   `json:"genre" validate:"max=64"`
	Description string   `json:"description" validate:"max=4000"`
	Themes      []string `json:"themes" validate:"max=32,dive,max=64"`
	Quote       string   `json:"quote" validate:"max=2000"`
	Speaker     string   `json:"speaker" validate:"max=200"`
	Keywords    []string `json:"keywords" validate:"max=32,dive,max=64"`
}

type characteristicsPayload struct {
	Citrus int `json:"citrus" validate:"gte=0,lte=10"`
	Floral int `json:"floral" validate:"gte=0,lte=10"`
	Woody  int `json:"woody" validate:"gte=0,lte=10"`
	Musk   int `json:"musk" validate:"gte=0,lte=10"`
	Fruity int `json:"fruity" validate:"gte=0,lte=10"`
	Spicy  int `json:"spicy" validate:"gte=0,lte=10"`
}

type fragrancePayload struct {
	ID              int                    `json:"id" validate:"gt=0"`
	BookID          int                    `json:"bookId"`
	LiteraryName    string                 `json:"literaryName" validate:"max=200"`
	BaseScent       string                 `json:"baseScent" validate:"max=200"`
	Description     string                 `json:"description" validate:"max=4000"`
	Category        string                 `json:"category" validate:"max=64"`
	Intensity       string                 `json:"intensity" validate:"max=16"`
	Mood            []string               `json:"mood" validate:"max=32,dive,max=64"`
	Characteristics characteristicsPayload `json:"characteristics"`
}

type deepAnalysisPayload struct {
	UserPsychology     string   `json:"userPsychology" validate:"max=4000"`
	EmotionalResonance string   `json:"emotionalResonance" validate:"max=4000"`
	HiddenNeeds        string   `json:"hiddenNeeds" validate:"max=4000"`
	PersonalKeywords   []string `json:"personalKeywords" validate:"max=32,dive,max=64"`
}

type recommendationPayload struct {
	Book                  bookPayload          `json:"book"`
	Fragrance             fragrancePayload     `json:"fragrance"`
	MatchReason           string               `json:"matchReason" validate:"max=8000"`
	Confidence            int                  `json:"confidence" validate:"gte=0,lte=100"`
	AlternativeBooks      []bookPayload        `json:"alternativeBooks" validate:"max=3,dive"`
	AlternativeFragrances []fragrancePayload   `json:"alternativeFragrances" validate:"max=3,dive"`
	DeepAnalysis          *deepAnalysisPayload `json:"deepAnalysis,omitempty"`
	Source                string               `json:"source,omitempty"`
}

func newBookPayload(b domain.Book) bookPayload {
	return bookPayload{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Description: b.Description,
		Themes:      nonNilStrings(b.Themes),
		Quote:       b.Quote,
		Speaker:     b.Speaker,
		Keywords:    nonNilStrings(b.Keywords),
	}
}

func (p bookPayload) toDomain() domain.Book {
	return domain.Book{
		ID:          p.ID,
		Title:       p.Title,
		Author:      p.Author,
		Genre:       p.Genre,
		Description: p.Description,
		Themes:      p.Themes,
		Quote:       p.Quote,
		Speaker:     p.Speaker,
		Keywords:    p.Keywords,
	}
}

func newFragrancePayload(f domain.Fragrance) fragrancePayload {
	c := f.Characteristics
	return fragrancePayload{
		ID:           f.ID,
		BookID:       f.BookID,
		LiteraryName: f.LiteraryName,
		BaseScent:    f.BaseScent,
		Description:  f.Description,
		Category:     string(f.Category),
		Intensity:    string(f.Intensity),
		Mood:         nonNilStrings(f.Mood),
		Characteristics: characteristicsPayload{
			Citrus: c.Citrus,
			Floral: c.Floral,
			Woody:  c.Woody,
			Musk:   c.Musk,
			Fruity: c.Fruity,
			Spicy:  c.Spicy,
		},
	}
}

func (p fragrancePayload) toDomain() domain.Fragrance {
	c := p.Characteristics
	return domain.Fragrance{
		ID:           p.ID,
		BookID:       p.BookID,
		LiteraryName: p.LiteraryName,
		BaseScent:    p.BaseScent,
		Description:  p.Description,
		Category:     domain.Category(p.Category),
		Intensity:    domain.Intensity(p.Intensity),
		Mood:         p.Mood,
		Characteristics: domain.Characteristics{
			Citrus: c.Citrus,
			Floral: c.Floral,
			Woody:  c.Woody,
			Musk:   c.Musk,
			Fruity: c.Fruity,
			Spicy:  c.Spicy,
		},
	}
}

func newRecommendationPayload(result services.RecommendationResult) recommendationPayload {
	payload := recommendationPayload{
		Book:                  newBookPayload(result.Book),
		Fragrance:             newFragrancePayload(result.Fragrance),
		MatchReason:           result.MatchReason,
		Confidence:            result.Confidence,
		AlternativeBooks:      make([]bookPayload, 0, len(result.AlternativeBooks)),
		AlternativeFragrances: make([]fragrancePayload, 0, len(result.AlternativeFragrances)),
		Source:                string(result.Source),
	}
	for _, b := range result.AlternativeBooks {
		payload.AlternativeBooks = append(payload.AlternativeBooks, newBookPayload(b))
	}
	for _, f := range result.AlternativeFragrances {
		payload.AlternativeFragrances = append(payload.AlternativeFragrances, newFragrancePayload(f))
	}
	if da := result.DeepAnalysis; da != nil {
		payload.DeepAnalysis = &deepAnalysisPayload{
			UserPsychology:     da.UserPsychology,
			EmotionalResonance: da.EmotionalResonance,
			HiddenNeeds:        da.HiddenNeeds,
			PersonalKeywords:   nonNilStrings(da.PersonalKeywords),
		}
	}
	return payload
}

func (p recommendationPayload) toDomain() services.RecommendationResult {
	result := services.RecommendationResult{
		Book:        p.Book.toDomain(),
		Fragrance:   p.Fragrance.toDomain(),
		MatchReason: p.MatchReason,
		Confidence:  p.Confidence,
		Source:      domain.RecommendationSource(p.Source),
	}
	for _, b := range p.AlternativeBooks {
		result.AlternativeBooks = append(result.AlternativeBooks, b.toDomain())
	}
	for _, f := range p.AlternativeFragrances {
		result.AlternativeFragrances = append(result.AlternativeFragrances, f.toDomain())
	}
	if da := p.DeepAnalysis; da != nil {
		result.DeepAnalysis = &domain.DeepAnalysis{
			UserPsychology:     da.UserPsychology,
			EmotionalResonance: da.EmotionalResonance,
			HiddenNeeds:        da.HiddenNeeds,
			PersonalKeywords:   da.PersonalKeywords,
		}
	}
	return result
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
