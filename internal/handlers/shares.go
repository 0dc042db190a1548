package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jooyeonthemaster/book/internal/platform/httpx"
	"github.com/jooyeonthemaster/book/internal/platform/validation"
	"github.com/jooyeonthemaster/book/internal/services"
)

const (
	maxShareBodySize = 64 * 1024
	maxShareIDLength = 64
)

// ShareHandlers stores and reopens shared recommendations.
type ShareHandlers struct {
	svc      services.ShareService
	validate *validation.Validator
}

// NewShareHandlers constructs the share handler set.
func NewShareHandlers(svc services.ShareService, v *validation.Validator) *ShareHandlers {
	if v == nil {
		v = validation.New()
	}
	return &ShareHandlers{svc: svc, validate: v}
}

// Routes registers endpoints beneath /shares.
func (h *ShareHandlers) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{shareId}", h.get)
}

type shareReceiptPayload struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

type shareCreatedResponse struct {
	Success bool                `json:"success"`
	Data    shareReceiptPayload `json:"data"`
}

func (h *ShareHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "share service not available", http.StatusServiceUnavailable))
		return
	}

	var req recommendationPayload
	if !decodeJSONBody(w, r, maxShareBodySize, &req) {
		return
	}
	if !validatePayload(ctx, w, h.validate, req) {
		return
	}

	receipt, err := h.svc.Create(ctx, req.toDomain())
	if err != nil {
		writeShareError(ctx, w, err)
		return
	}

	w.Header().Set("Location", receipt.URL)
	writeJSONResponse(w, http.StatusCreated, shareCreatedResponse{
		Success: true,
		Data: shareReceiptPayload{
			ID:        receipt.ID,
			URL:       receipt.URL,
			ExpiresAt: formatTime(receipt.ExpiresAt),
		},
	})
}

func (h *ShareHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "share service not available", http.StatusServiceUnavailable))
		return
	}

	shareID := strings.TrimSpace(chi.URLParam(r, "shareId"))
	if shareID == "" || len(shareID) > maxShareIDLength {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "shareId is invalid", http.StatusBadRequest))
		return
	}

	result, err := h.svc.Get(ctx, shareID)
	if err != nil {
		writeShareError(ctx, w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, http.StatusOK, recommendationResponse{Success: true, Data: newRecommendationPayload(result)})
}

func writeShareError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrShareInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_share", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrShareNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("share_not_found", "share not found or expired", http.StatusNotFound))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		httpx.WriteError(ctx, w, httpx.NewError("request_timeout", "share request timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process share", http.StatusInternalServerError))
	}
}
