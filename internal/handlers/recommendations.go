package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jooyeonthemaster/book/internal/platform/httpx"
	"github.com/jooyeonthemaster/book/internal/platform/validation"
	"github.com/jooyeonthemaster/book/internal/services"
)

const maxSurveyBodySize = 32 * 1024

// RecommendationHandlers exposes survey driven recommendations.
type RecommendationHandlers struct {
	svc      services.RecommendationService
	validate *validation.Validator
}

// NewRecommendationHandlers constructs the recommendation handler set.
func NewRecommendationHandlers(svc services.RecommendationService, v *validation.Validator) *RecommendationHandlers {
	if v == nil {
		v = validation.New()
	}
	return &RecommendationHandlers{svc: svc, validate: v}
}

// Routes registers endpoints beneath /recommendations.
func (h *RecommendationHandlers) Routes(r chi.Router) {
	r.Post("/", h.recommend)
	r.Get("/stats", h.stats)
	r.Post("/books/{bookId}", h.recommendForBook)
}

// surveyRequest accepts both survey shapes; surveyVersion picks one explicitly, otherwise
// the presence of lifeStage or storyStyle selects the five-step survey.
type surveyRequest struct {
	SurveyVersion string `json:"surveyVersion" validate:"omitempty,oneof=five_step classic"`

	CurrentMood string   `json:"currentMood" validate:"max=64"`
	LifeStage   string   `json:"lifeStage" validate:"max=64"`
	StoryStyle  string   `json:"storyStyle" validate:"max=64"`
	Themes      []string `json:"themes" validate:"max=20,dive,max=64"`
	BookMeaning string   `json:"bookMeaning" validate:"max=1000"`

	Age                 string   `json:"age" validate:"max=16"`
	Gender              string   `json:"gender" validate:"max=16"`
	FavoriteGenres      []string `json:"favoriteGenres" validate:"max=20,dive,max=64"`
	ReadingHabits       string   `json:"readingHabits" validate:"max=500"`
	MoodPreference      string   `json:"moodPreference" validate:"max=200"`
	FragrancePreference string   `json:"fragrancePreference" validate:"max=500"`
	PersonalityTraits   []string `json:"personalityTraits" validate:"max=20,dive,max=64"`
	AdditionalNotes     string   `json:"additionalNotes" validate:"max=2000"`
}

func (req surveyRequest) toInput() services.SurveyInput {
	fiveStep := req.SurveyVersion == "five_step" ||
		(req.SurveyVersion == "" && (strings.TrimSpace(req.LifeStage) != "" || strings.TrimSpace(req.StoryStyle) != ""))
	if fiveStep {
		return services.FiveStepSurvey{
			CurrentMood: req.CurrentMood,
			LifeStage:   req.LifeStage,
			StoryStyle:  req.StoryStyle,
			Themes:      req.Themes,
			BookMeaning: req.BookMeaning,
		}
	}
	return services.ClassicSurvey{
		Age:                 req.Age,
		Gender:              req.Gender,
		FavoriteGenres:      req.FavoriteGenres,
		ReadingHabits:       req.ReadingHabits,
		CurrentMood:         req.CurrentMood,
		MoodPreference:      req.MoodPreference,
		FragrancePreference: req.FragrancePreference,
		PersonalityTraits:   req.PersonalityTraits,
		Themes:              req.Themes,
		BookMeaning:         req.BookMeaning,
		AdditionalNotes:     req.AdditionalNotes,
	}
}

type recommendationResponse struct {
	Success bool                  `json:"success"`
	Data    recommendationPayload `json:"data"`
}

type statsResponse struct {
	Success              bool           `json:"success"`
	Stats                map[string]int `json:"stats"`
	TotalRecommendations int            `json:"totalRecommendations"`
}

func (h *RecommendationHandlers) recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "recommendation service not available", http.StatusServiceUnavailable))
		return
	}

	input, ok := h.decodeSurvey(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Recommend(ctx, input)
	if err != nil {
		writeRecommendationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, recommendationResponse{Success: true, Data: newRecommendationPayload(result)})
}

func (h *RecommendationHandlers) recommendForBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "recommendation service not available", http.StatusServiceUnavailable))
		return
	}

	bookID, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "bookId")))
	if err != nil || bookID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "bookId must be a positive integer", http.StatusBadRequest))
		return
	}

	input, ok := h.decodeSurvey(w, r)
	if !ok {
		return
	}

	result, err := h.svc.RecommendForBook(ctx, bookID, input)
	if err != nil {
		writeRecommendationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, recommendationResponse{Success: true, Data: newRecommendationPayload(result)})
}

func (h *RecommendationHandlers) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "recommendation service not available", http.StatusServiceUnavailable))
		return
	}

	snapshot, err := h.svc.Stats(ctx)
	if err != nil {
		writeRecommendationError(ctx, w, err)
		return
	}
	stats := make(map[string]int, len(snapshot.Counts))
	for id, count := range snapshot.Counts {
		stats[strconv.Itoa(id)] = count
	}
	writeJSONResponse(w, http.StatusOK, statsResponse{
		Success:              true,
		Stats:                stats,
		TotalRecommendations: snapshot.Total,
	})
}

func (h *RecommendationHandlers) decodeSurvey(w http.ResponseWriter, r *http.Request) (services.SurveyInput, bool) {
	var req surveyRequest
	if !decodeJSONBody(w, r, maxSurveyBodySize, &req) {
		return nil, false
	}
	if !validatePayload(r.Context(), w, h.validate, req) {
		return nil, false
	}
	return req.toInput(), true
}

func writeRecommendationError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Problems))
		for _, p := range verr.Problems {
			fields[p.Field] = p.Message
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_survey", "survey answers are incomplete", http.StatusBadRequest).
			WithDetails(map[string]any{"fields": fields}))
	case errors.Is(err, services.ErrRecommendationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_survey", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrRecommendationBookNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("book_not_found", "book not found", http.StatusNotFound))
	case errors.Is(err, services.ErrRecommendationFragranceNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("fragrance_not_found", "no fragrance is paired with this book", http.StatusNotFound))
	case errors.Is(err, services.ErrRecommendationCatalogEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "recommendation catalog is empty", http.StatusInternalServerError))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		httpx.WriteError(ctx, w, httpx.NewError("request_timeout", "recommendation timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to produce recommendation", http.StatusInternalServerError))
	}
}
