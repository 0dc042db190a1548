package domain

import "time"

// UserPreferences is the canonical preference profile consumed by the scoring engine.
type UserPreferences struct {
	Age                 AgeBand
	Gender              Gender
	FavoriteGenres      []Genre
	ReadingHabits       string
	CurrentMood         Mood
	MoodPreference      string
	FragrancePreference string
	PersonalityTraits   []Trait
	Themes              []string
	BookMeaning         string
	AdditionalNotes     string
	LifeStage           LifeStage
	StoryStyle          StoryStyle
}

// DeepAnalysis carries the optional psychological analysis produced by the external recommender.
type DeepAnalysis struct {
	UserPsychology     string
	EmotionalResonance string
	HiddenNeeds        string
	PersonalKeywords   []string
}

// RecommendationResult is the outcome handed to callers.
type RecommendationResult struct {
	Book                  Book
	Fragrance             Fragrance
	MatchReason           string
	Confidence            int
	AlternativeBooks      []Book
	AlternativeFragrances []Fragrance
	DeepAnalysis          *DeepAnalysis
	Source                RecommendationSource
}

// RecommendationSource records which engine produced a result.
type RecommendationSource string

const (
	SourceExternal     RecommendationSource = "external"
	SourceFallback     RecommendationSource = "fallback"
	SourceBookSpecific RecommendationSource = "book"
)

// ExternalSelection is the structured reply of the generative recommender before catalog resolution.
type ExternalSelection struct {
	BookID                  int
	FragranceID             int
	MatchReason             string
	Confidence              int
	FragranceDescription    string
	AlternativeBookIDs      []int
	AlternativeFragranceIDs []int
	DeepAnalysis            *DeepAnalysis
}

// Share is a persisted snapshot of a recommendation that can be reopened by id.
type Share struct {
	ID        string
	Result    RecommendationResult
	Version   string
	ViewCount int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the share is no longer retrievable at now.
func (s Share) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
