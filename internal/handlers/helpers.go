package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benvon/login-demo/internal/middleware"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("response_encode_failed", zap.Error(err), zap.Int("status", status))
	}
}

// respondJSONError writes a middleware.ErrorResponse.
func respondJSONError(w http.ResponseWriter, r *http.Request, status int, message string, logger *zap.Logger) {
	middleware.WriteError(w, r, status, http.StatusText(status), message, logger)
}
