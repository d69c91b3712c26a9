package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS([]string{"http://localhost:3000"}, zap.NewNop())(next)

	tests := []struct {
		name           string
		method         string
		origin         string
		requestHeaders string
		wantStatus     int
		wantACAO       string
	}{
		{"allowed origin", http.MethodGet, "http://localhost:3000", "", http.StatusOK, "http://localhost:3000"},
		{"disallowed origin", http.MethodGet, "http://evil.example.com", "", http.StatusOK, ""},
		{"no origin", http.MethodGet, "", "", http.StatusOK, ""},
		{"preflight allowed", http.MethodOptions, "http://localhost:3000", "authorization", http.StatusNoContent, "http://localhost:3000"},
		{"preflight allowed with content type", http.MethodOptions, "http://localhost:3000", "authorization,content-type", http.StatusNoContent, "http://localhost:3000"},
		{"preflight disallowed origin", http.MethodOptions, "http://evil.example.com", "authorization", http.StatusNoContent, ""},
		{"preflight disallowed header", http.MethodOptions, "http://localhost:3000", "x-api-key", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/private", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
				req.Header.Set("Access-Control-Request-Headers", tt.requestHeaders)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantACAO {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.wantACAO, got)
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"http://localhost:3000", []string{"http://localhost:3000"}},
		{" http://a.com/ , http://b.com,,http://a.com ", []string{"http://a.com", "http://b.com"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseOrigins(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseOrigins(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
