// Package request carries per-request values (verified claims, request ID)
// through a request's context.
package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/benvon/login-demo/internal/models"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	requestIDKey
)

// ClientIP returns the caller's address as reported by a reverse proxy. The
// first X-Forwarded-For hop wins, then X-Real-IP, then RemoteIP. Clients can
// set these headers themselves, so only use it behind a proxy that
// overwrites them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return RemoteIP(r)
}

// RemoteIP returns the connection's peer address without a port, ignoring
// forwarding headers.
func RemoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithClaims attaches verified token claims to ctx.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims set by the auth middleware, or nil.
func ClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, _ := r.Context().Value(claimsKey).(*models.TokenClaims)
	return claims
}

// WithRequestID attaches the request's correlation ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the ID stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
