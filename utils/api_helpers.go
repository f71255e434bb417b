package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// CORS and content headers carried by every response.
var responseHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,Authorization",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// SetResponseHeaders writes the fixed response headers.
func SetResponseHeaders(w http.ResponseWriter) {
	h := w.Header()
	for k, v := range responseHeaders {
		h.Set(k, v)
	}
}

// RespondJSON sends payload as JSON with the given status code. A 204 or a
// nil payload sends headers only.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	SetResponseHeaders(w)
	w.WriteHeader(status)
	if status == http.StatusNoContent || payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent; all that is left is to record it.
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
	}
}

// RespondError sends the error envelope {error, message, details?}.
func RespondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	RespondJSON(w, r, status, ErrorBody{Error: code, Message: message, Details: details})
}
