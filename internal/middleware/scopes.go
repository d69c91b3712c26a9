package middleware

import (
	"fmt"
	"net/http"
	"strings"

	logpkg "github.com/benvon/login-demo/internal/logger"
	"github.com/benvon/login-demo/internal/request"
	"go.uber.org/zap"
)

// PermissionsClaim is the claim Auth0 uses for RBAC permissions
const PermissionsClaim = "permissions"

// RequireScopes allows the request when the named claim holds at least one of
// the expected scopes. It must run after Auth.
func RequireScopes(claim string, logger *zap.Logger, scopes ...string) func(http.Handler) http.Handler {
	if claim == "" {
		claim = PermissionsClaim
	}
	if len(scopes) == 0 {
		panic("middleware.RequireScopes: at least one scope is required")
	}
	challenge := fmt.Sprintf(`Bearer error="insufficient_scope", scope="%s"`, strings.Join(scopes, " "))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := request.ClaimsFromContext(r)
			if claims == nil {
				WriteError(w, r, http.StatusUnauthorized, "Unauthorized", msgMissingToken, logger)
				return
			}

			if !claims.HasAny(claim, scopes...) {
				logger.Info("insufficient_scope",
					zap.String("sub", logpkg.SanitizeSubject(claims.Subject)),
					zap.String("claim", claim),
					zap.Strings("required", scopes),
				)
				w.Header().Set("WWW-Authenticate", challenge)
				WriteError(w, r, http.StatusForbidden, "Forbidden", "Insufficient scope", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
