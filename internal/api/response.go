package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/logging"
)

// Error codes returned in APIError.Code.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
)

// APIResponse is the envelope for every query endpoint.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Meta    *Meta     `json:"meta,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// Meta carries response metadata.
type Meta struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Timezone    string    `json:"timezone,omitempty"`
}

// APIError is the error body of a failed request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// EventLogResponse is the bare acknowledgement editors expect from eventLog.
type EventLogResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// sanitizeLogValue escapes control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeJSON marshals v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData writes a successful envelope around data.
func respondData(w http.ResponseWriter, data any, meta *Meta) {
	writeJSON(w, http.StatusOK, &APIResponse{Success: true, Data: data, Meta: meta})
}

// respondError writes an error envelope. err, when set, is logged but never
// echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	requestID := logging.RequestIDFromContext(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	writeJSON(w, status, &APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}

// respondServiceError maps engine errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, codetime.ErrInvalidArgument):
		respondError(w, r, http.StatusBadRequest, CodeValidationFailed, err.Error(), nil)
	case errors.Is(err, codetime.ErrStoreUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, CodeDatabaseError, "Aggregate store unavailable", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Internal server error", err)
	}
}
