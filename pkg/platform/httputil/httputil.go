// Package httputil centralizes JSON request decoding, DTO validation, and
// domain-error translation so handlers stay thin and error envelopes stay
// consistent across modules.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	dErrors "sovereign/pkg/domain-errors"
)

// validate is shared across handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// errorEnvelope is the JSON error body returned by every endpoint.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a consistent JSON error envelope.
// Unclassified errors map to 500 with the message suppressed.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	msg := ""
	var de *dErrors.Error
	if errors.As(err, &de) && status < http.StatusInternalServerError {
		msg = de.Message
	}
	WriteJSON(w, status, errorEnvelope{Error: string(code), Message: msg})
}

// Decode decodes and validates a JSON request body into T. On failure it
// writes the error response and returns ok=false; handlers should return
// immediately.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if logger != nil {
			logger.DebugContext(r.Context(), "request decode failed", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "request validation failed"))
		return req, false
	}
	return req, true
}
