package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	logpkg "github.com/benvon/login-demo/internal/logger"
	"github.com/benvon/login-demo/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx JSON response the API produces.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	msgInternal = "An unexpected error occurred"
	msgNotFound = "The requested resource does not exist"
)

// ErrorHandler turns handler panics into a 500 JSON response. Panic values
// are logged but never echoed to the client.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("request_id", request.RequestID(r.Context())),
				)
				WriteError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), msgInternal, logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// NotFound answers unmatched routes with a JSON 404.
func NotFound(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound), msgNotFound, logger)
	})
}

// WriteError writes an ErrorResponse with the given status. The message is
// sanitized before it reaches the body.
func WriteError(w http.ResponseWriter, r *http.Request, status int, errorType, message string, logger *zap.Logger) {
	body := ErrorResponse{
		Error:     errorType,
		Message:   logpkg.SanitizeString(message, logpkg.MaxErrorMessageLength),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
		RequestID: request.RequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("error_response_encode_failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
	}
}
