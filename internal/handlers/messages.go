package handlers

import (
	"net/http"

	logpkg "github.com/benvon/login-demo/internal/logger"
	"github.com/benvon/login-demo/internal/models"
	"github.com/benvon/login-demo/internal/request"
	"go.uber.org/zap"
)

// MessageHandler serves the static API messages
type MessageHandler struct {
	logger *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(logger *zap.Logger) *MessageHandler {
	return &MessageHandler{logger: logger}
}

// Public handles GET /api/public
func (h *MessageHandler) Public(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.PublicMessage)
}

// Private handles GET /api/private
func (h *MessageHandler) Private(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.PrivateMessage)
}

// External handles GET /api/external
func (h *MessageHandler) External(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.ExternalMessage)
}

// Permission handles GET /api/permission
func (h *MessageHandler) Permission(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.PermissionMessage)
}

func (h *MessageHandler) respond(w http.ResponseWriter, r *http.Request, msg string) {
	if claims := request.ClaimsFromContext(r); claims != nil {
		h.logger.Debug("authenticated_request",
			zap.String("subject", logpkg.SanitizeSubject(claims.Subject)),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
	}
	respondJSON(w, http.StatusOK, models.Message{Msg: msg}, h.logger)
}
