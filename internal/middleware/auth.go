package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	logpkg "github.com/benvon/login-demo/internal/logger"
	"github.com/benvon/login-demo/internal/models"
	"github.com/benvon/login-demo/internal/request"
	"github.com/benvon/login-demo/internal/services/oidc"
	"go.uber.org/zap"
)

// TokenVerifier verifies a raw bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.TokenClaims, error)
}

const (
	msgMissingToken = "No authorization token was found"
	msgBadFormat    = "Format is Authorization: Bearer [token]"
	msgInvalidToken = "Invalid or expired token"
)

// Auth creates authentication middleware that validates bearer tokens and
// stores the verified claims in the request context
func Auth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				WriteError(w, r, http.StatusUnauthorized, "Unauthorized", msgMissingToken, logger)
				return
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_request"`)
				WriteError(w, r, http.StatusUnauthorized, "Unauthorized", msgBadFormat, logger)
				return
			}

			claims, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				code := oidc.CodeOf(err)
				fields := []zap.Field{
					zap.String("reason", string(code)),
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				}
				if code == oidc.ErrCodeJWKSUnavailable || errors.Is(err, oidc.ErrJWKSRateLimited) {
					logger.Error("token_verification_unavailable", fields...)
				} else {
					logger.Info("token_verification_failed", fields...)
				}
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				WriteError(w, r, http.StatusUnauthorized, "Unauthorized", msgInvalidToken, logger)
				return
			}

			logger.Debug("token_verified",
				zap.String("sub", logpkg.SanitizeSubject(claims.Subject)),
				zap.Strings("permissions", claims.Permissions),
			)

			ctx := request.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header value
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
