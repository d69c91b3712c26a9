package middleware

import (
	"net/http"

	logpkg "github.com/benvon/login-demo/internal/logger"
	"github.com/benvon/login-demo/internal/request"
	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

var securityEvents = map[int]string{
	http.StatusUnauthorized:    "authentication_failed",
	http.StatusForbidden:       "authorization_failed",
	http.StatusTooManyRequests: "rate_limit_violation",
}

// Audit logs a security_event warning for rejected credentials, missing
// permissions and rate limiting.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			event, ok := securityEvents[m.Code]
			if !ok {
				return
			}
			logger.Warn("security_event",
				zap.String("event", event),
				zap.Int("status_code", m.Code),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				zap.String("request_id", request.RequestID(r.Context())),
			)
		})
	}
}
