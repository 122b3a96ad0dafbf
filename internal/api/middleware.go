package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sajjad-MoBe/tuplespace/internal/errors"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// RecoveryMiddleware recovers panics and writes JSON errors
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				handleError(w, errors.RecoverError(rec))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// handleError writes an error response to the client
func handleError(w http.ResponseWriter, err error) {
	var statusCode int
	var errType string

	switch {
	case errors.IsNotFound(err):
		statusCode = http.StatusNotFound
		errType = string(errors.ErrorTypeNotFound)
	case errors.IsInvalidInput(err):
		statusCode = http.StatusBadRequest
		errType = string(errors.ErrorTypeInvalidInput)
	default:
		statusCode = http.StatusInternalServerError
		errType = string(errors.ErrorTypeInternal)
	}

	response := ErrorResponse{}
	response.Error.Type = errType
	response.Error.Message = err.Error()

	writeJSON(w, statusCode, response)
}

// LoggingMiddleware logs request details
func LoggingMiddleware(logger *shared.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			logger.Debug("%s %s %d %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
		})
	}
}

// responseWriter is a custom response writer that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
