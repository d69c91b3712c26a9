package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benvon/login-demo/internal/config"
	"github.com/benvon/login-demo/internal/metrics"
	"github.com/benvon/login-demo/internal/middleware"
	"github.com/benvon/login-demo/internal/models"
	"github.com/benvon/login-demo/internal/services/oidc"
	"github.com/benvon/login-demo/internal/services/oidc/oidctest"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(env string) *config.Config {
	return &config.Config{
		Environment: env,
		FrontendURL: middleware.DefaultCORSOrigin,
		RateLimit:   "1000-M",
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, opts ...func(*Deps)) (http.Handler, *oidctest.Issuer) {
	t.Helper()

	issuer := oidctest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	keys, err := oidc.NewJWKSManager(ctx, issuer.JWKSURL(), oidc.JWKSOptions{})
	if err != nil {
		t.Fatalf("NewJWKSManager: %v", err)
	}
	verifier, err := oidc.NewVerifier(keys, oidc.VerifierConfig{Issuer: issuer.Issuer, Audience: issuer.Audience})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	deps := Deps{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Verifier: verifier,
		Keys:     keys,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	router, err := NewRouter(deps)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, issuer
}

func TestRouter_Endpoints(t *testing.T) {
	t.Parallel()

	router, issuer := newTestRouter(t, testConfig(config.EnvDevelopment))

	valid := issuer.Token(t)
	withPermission := issuer.Token(t, oidctest.WithPermissions(ReadFlightsPermission))
	otherPermission := issuer.Token(t, oidctest.WithPermissions("write:flights"))

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantMsg    string
	}{
		{"public without token", "/api/public", "", http.StatusOK, models.PublicMessage},
		{"public ignores bad token", "/api/public", "garbage", http.StatusOK, models.PublicMessage},
		{"private without token", "/api/private", "", http.StatusUnauthorized, ""},
		{"private with invalid token", "/api/private", "not.a.jwt", http.StatusUnauthorized, ""},
		{"private with valid token", "/api/private", valid, http.StatusOK, models.PrivateMessage},
		{"external without token", "/api/external", "", http.StatusUnauthorized, ""},
		{"external with valid token", "/api/external", valid, http.StatusOK, models.ExternalMessage},
		{"permission without token", "/api/permission", "", http.StatusUnauthorized, ""},
		{"permission without scope", "/api/permission", valid, http.StatusForbidden, ""},
		{"permission with other scope", "/api/permission", otherPermission, http.StatusForbidden, ""},
		{"permission with scope", "/api/permission", withPermission, http.StatusOK, models.PermissionMessage},
		{"unknown api route", "/api/nope", "", http.StatusNotFound, ""},
		{"unknown route outside production", "/profile", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("Expected request ID header")
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("Expected security headers on response")
			}

			if tt.wantMsg == "" {
				var errResp middleware.ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
					t.Fatalf("Failed to decode error response: %v", err)
				}
				if errResp.Success {
					t.Error("Expected success to be false")
				}
				return
			}

			var msg models.Message
			if err := json.NewDecoder(w.Body).Decode(&msg); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if msg.Msg != tt.wantMsg {
				t.Errorf("Expected msg %q, got %q", tt.wantMsg, msg.Msg)
			}
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, testConfig(config.EnvDevelopment))

	req := httptest.NewRequest(http.MethodOptions, "/api/private", nil)
	req.Header.Set("Origin", middleware.DefaultCORSOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "authorization")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != middleware.DefaultCORSOrigin {
		t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", middleware.DefaultCORSOrigin, got)
	}
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, testConfig(config.EnvDevelopment))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (%s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"jwks":"healthy"`) {
		t.Errorf("Expected healthy jwks check, got %s", w.Body.String())
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.EnvDevelopment)
	cfg.RateLimit = "2-M"
	router, _ := newTestRouter(t, cfg)

	var last int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public", nil))
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the limit is exhausted, got %d", last)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected /healthz to bypass the API rate limit, got %d", w.Code)
	}
}

func TestRouter_ProductionServesSPA(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>login demo</html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(config.EnvProduction)
	cfg.StaticDir = dir
	router, _ := newTestRouter(t, cfg)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"client route", "/profile", http.StatusOK, "login demo"},
		{"root", "/", http.StatusOK, "login demo"},
		{"api routes still win", "/api/public", http.StatusOK, models.PublicMessage},
		{"unknown api route is json 404", "/api/nope", http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("Expected body to contain %q, got %q", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	router, issuer := newTestRouter(t, testConfig(config.EnvDevelopment), func(d *Deps) {
		d.Metrics = metrics.New(reg)
	})

	for _, token := range []string{"", issuer.Token(t)} {
		req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	w := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		`login_demo_http_requests_total{code="401",handler="private",method="get"} 1`,
		`login_demo_http_requests_total{code="200",handler="private",method="get"} 1`,
		`login_demo_token_verifications_total{result="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %s", want)
		}
	}
}

func TestNewRouter_RequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewRouter(Deps{}); err == nil {
		t.Error("Expected error for missing dependencies")
	}
}

func TestNewRouter_InvalidRateLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.EnvDevelopment)
	cfg.RateLimit = "fast"

	_, err := NewRouter(Deps{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Verifier: stubVerifier{},
		Keys:     stubKeys{},
	})
	if err == nil {
		t.Error("Expected error for invalid rate limit")
	}
}

func TestRouter_TimeoutIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	router, _ := newTestRouter(t, testConfig(config.EnvDevelopment), func(d *Deps) {
		d.Logger = zap.New(core)
		d.Verifier = blockingVerifier{}
		d.RequestTimeout = 50 * time.Millisecond
	})

	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set("Authorization", "Bearer slow-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	var body middleware.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Error != "Service Unavailable" {
		t.Errorf("Expected error 'Service Unavailable', got '%s'", body.Error)
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 http_request entry, got %d", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel {
		t.Errorf("Expected error level for a timed-out request, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["status_code"]; got != int64(http.StatusServiceUnavailable) {
		t.Errorf("Expected status_code 503, got %v", got)
	}
}
