package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/login-demo/internal/middleware"
	"go.uber.org/zap"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		data     any
		wantBody string
	}{
		{
			name:     "message payload",
			status:   http.StatusOK,
			data:     map[string]string{"msg": "hello"},
			wantBody: `{"msg":"hello"}`,
		},
		{
			name:     "nil data",
			status:   http.StatusCreated,
			data:     nil,
			wantBody: `null`,
		},
		{
			name:     "array data",
			status:   http.StatusOK,
			data:     []string{"a", "b"},
			wantBody: `["a","b"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data, zap.NewNop())

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("Expected body %s, got %s", tt.wantBody, got)
			}
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/missing", nil)
	w := httptest.NewRecorder()
	respondJSONError(w, req, http.StatusNotFound, "line one\nline two", zap.NewNop())

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	var body middleware.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Success {
		t.Error("Expected success to be false")
	}
	if body.Error != "Not Found" {
		t.Errorf("Expected error 'Not Found', got %s", body.Error)
	}
	if strings.Contains(body.Message, "\n") {
		t.Errorf("Expected newlines stripped from message, got %q", body.Message)
	}
	if body.Path != "/missing" {
		t.Errorf("Expected path '/missing', got %s", body.Path)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q", body.Timestamp)
	}
}
