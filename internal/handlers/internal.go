package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jooyeonthemaster/book/internal/platform/httpx"
	"github.com/jooyeonthemaster/book/internal/services"
)

// InternalHandlers serves operator endpoints mounted under /internal behind token auth.
type InternalHandlers struct {
	recommendations services.RecommendationService
}

// NewInternalHandlers constructs the operator handler set.
func NewInternalHandlers(recommendations services.RecommendationService) *InternalHandlers {
	return &InternalHandlers{recommendations: recommendations}
}

// Routes registers the internal endpoints.
func (h *InternalHandlers) Routes(r chi.Router) {
	r.Post("/stats:reset", h.resetStats)
}

func (h *InternalHandlers) resetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.recommendations == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "recommendation service not available", http.StatusServiceUnavailable))
		return
	}
	if err := h.recommendations.ResetStats(ctx); err != nil {
		writeRecommendationError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
