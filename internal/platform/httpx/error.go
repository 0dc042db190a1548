package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jooyeonthemaster/book/internal/platform/requestctx"
)

const (
	maxCodeLen    = 80
	maxMessageLen = 512
	maxIDLen      = 80
)

// reserved envelope keys cannot be overwritten by Details.
var reserved = map[string]struct{}{
	"success": {}, "error": {}, "message": {}, "status": {}, "request_id": {}, "trace_id": {},
}

// Error is an API failure rendered as
// {"success":false,"error":code,"message":...,"status":n,"request_id":...,"trace_id":...,<details>}.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	TraceID   string
	Details   map[string]any
}

// NewError returns an Error with a single-line code and message. Status 0 becomes 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: oneLine(code, maxCodeLen), Message: oneLine(message, maxMessageLen), Status: status}
}

func (e Error) Error() string { return e.Code + ": " + e.Message }

// WithDetails returns a copy of e carrying extra top-level fields.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	e.Details = merged
	return e
}

// WriteError renders err, taking the request id from chi's middleware and the trace id from requestctx
// when err does not carry them.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	if err.RequestID == "" {
		err.RequestID = oneLine(middleware.GetReqID(ctx), maxIDLen)
	}
	if err.TraceID == "" {
		err.TraceID = oneLine(requestctx.TraceID(ctx), maxIDLen)
	}

	body := make(map[string]any, len(err.Details)+6)
	for k, v := range err.Details {
		if _, ok := reserved[k]; !ok {
			body[k] = v
		}
	}
	body["success"] = false
	body["error"] = err.Code
	body["message"] = err.Message
	body["status"] = err.Status
	if err.RequestID != "" {
		body["request_id"] = err.RequestID
	}
	if err.TraceID != "" {
		body["trace_id"] = err.TraceID
	}
	WriteJSON(w, err.Status, body)
}

// WriteJSON writes payload as UTF-8 JSON. A nil payload sends headers only.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// oneLine flattens line breaks and truncates to limit bytes without splitting a rune.
func oneLine(value string, limit int) string {
	value = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, value))
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
