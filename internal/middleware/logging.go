package middleware

import (
	"net/http"

	logpkg "github.com/benvon/login-demo/internal/logger"
	"github.com/benvon/login-demo/internal/request"
	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

// Logging writes one http_request entry per request. 5xx responses are
// logged at error level.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status_code", m.Code),
				zap.Int64("duration_ms", m.Duration.Milliseconds()),
				zap.Int64("bytes", m.Written),
				zap.String("request_id", request.RequestID(r.Context())),
			}

			if m.Code >= http.StatusInternalServerError {
				logger.Error("http_request", fields...)
				return
			}
			logger.Info("http_request", fields...)
		})
	}
}
