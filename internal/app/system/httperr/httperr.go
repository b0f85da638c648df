// Package httperr writes JSON responses and maps errs kinds to HTTP status
// codes.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/memberhub/internal/domain/errs"
	"go.uber.org/zap"
)

// Response is the error body.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrAlreadyProcessed), errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// message is the client-facing text for each status. Internal error text
// never reaches the client.
var message = map[int]string{
	http.StatusUnprocessableEntity: "validation failed",
	http.StatusNotFound:            "not found",
	http.StatusForbidden:           "forbidden",
	http.StatusConflict:            "conflict",
	http.StatusServiceUnavailable:  "temporarily unavailable, retry",
	http.StatusInternalServerError: "internal error",
}

// Write sends err as JSON. Server-side failures are logged at error level.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	resp := Response{Error: message[status]}

	switch {
	case status == http.StatusUnprocessableEntity:
		var ve *errs.ValidationError
		if errors.As(err, &ve) {
			resp.Fields = ve.Fields
		}
	case errors.Is(err, errs.ErrAlreadyProcessed):
		resp.Error = "already processed"
	}

	if status >= 500 && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	JSON(w, status, resp)
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Decode reads a JSON request body into v. On failure it writes a 400 and
// returns false.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// BadRequest sends a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, Response{Error: msg})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
