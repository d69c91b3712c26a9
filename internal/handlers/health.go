package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

// KeySetSource provides the cached verification key set
type KeySetSource interface {
	KeySet(ctx context.Context) (jwk.Set, error)
}

// HealthChecker handles health check requests
type HealthChecker struct {
	keys   KeySetSource
	redis  *redis.Client
	logger *zap.Logger
}

// NewHealthChecker creates a new health checker. redisClient may be nil when
// rate-limit counters are kept in memory.
func NewHealthChecker(keys KeySetSource, redisClient *redis.Client, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{keys: keys, redis: redisClient, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		respondJSON(w, http.StatusOK, response, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	record := func(name string, err error) {
		if err != nil {
			response.Status = "unhealthy"
			checks[name] = "unhealthy: " + err.Error()
			h.logger.Warn("health_check_failed", zap.String("check", name), zap.Error(err))
			return
		}
		checks[name] = "healthy"
	}

	record("jwks", h.checkJWKS(ctx))
	if h.redis != nil {
		record("redis", h.redis.Ping(ctx).Err())
	}
	response.Checks = checks

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, response, h.logger)
}

// checkJWKS verifies that a non-empty key set is available
func (h *HealthChecker) checkJWKS(ctx context.Context) error {
	set, err := h.keys.KeySet(ctx)
	if err != nil {
		return err
	}
	if set.Len() == 0 {
		return errors.New("key set is empty")
	}
	return nil
}
