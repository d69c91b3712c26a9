// Package server assembles the HTTP route table and middleware chain.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/login-demo/internal/config"
	"github.com/benvon/login-demo/internal/handlers"
	"github.com/benvon/login-demo/internal/metrics"
	"github.com/benvon/login-demo/internal/middleware"
	"github.com/benvon/login-demo/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReadFlightsPermission guards /api/permission
const ReadFlightsPermission = "read:flights"

// Deps are the collaborators the router wires into handlers and middleware
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Verifier middleware.TokenVerifier
	Keys     handlers.KeySetSource
	// Redis is optional; when nil rate-limit counters are kept in memory
	Redis *redis.Client
	// Metrics is optional; when set API routes and token verification are instrumented
	Metrics *metrics.Metrics
	// Tracing enables otelmux spans; the tracer provider must already be installed
	Tracing bool
	// RequestTimeout bounds each request; zero means middleware.DefaultRequestTimeout
	RequestTimeout time.Duration
}

// NewRouter builds the API router
func NewRouter(deps Deps) (*mux.Router, error) {
	cfg, logger := deps.Config, deps.Logger
	if cfg == nil || logger == nil || deps.Verifier == nil || deps.Keys == nil {
		return nil, fmt.Errorf("router requires config, logger, verifier and key set")
	}

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, deps.Redis, cfg.TrustProxy, logger)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Registration order is execution order: the first Use is the outermost wrapper
	if deps.Tracing {
		r.Use(telemetry.Middleware())
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.FrontendURL), logger))
	r.Use(middleware.RequestID)
	// Logging and Audit sit outside Timeout so timed-out requests are recorded
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Audit(logger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.ErrorHandler(logger))

	// Preflight requests are answered by the CORS middleware
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	healthChecker := handlers.NewHealthChecker(deps.Keys, deps.Redis, logger)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)

	verifier := deps.Verifier
	instrument := func(_ string, h http.Handler) http.Handler { return h }
	if deps.Metrics != nil {
		verifier = deps.Metrics.InstrumentVerifier(verifier)
		instrument = deps.Metrics.InstrumentHandler
	}

	messages := handlers.NewMessageHandler(logger)
	auth := middleware.Auth(verifier, logger)
	readFlights := middleware.RequireScopes(middleware.PermissionsClaim, logger, ReadFlightsPermission)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rateLimitMW)
	api.Handle("/public", instrument("public", http.HandlerFunc(messages.Public))).Methods(http.MethodGet)
	api.Handle("/private", instrument("private", auth(http.HandlerFunc(messages.Private)))).Methods(http.MethodGet)
	api.Handle("/external", instrument("external", auth(http.HandlerFunc(messages.External)))).Methods(http.MethodGet)
	api.Handle("/permission", instrument("permission", auth(readFlights(http.HandlerFunc(messages.Permission))))).Methods(http.MethodGet)
	api.PathPrefix("/").Handler(middleware.NotFound(logger))

	if cfg.IsProduction() {
		logger.Info("serving_static_files", zap.String("dir", cfg.StaticDir))
		r.PathPrefix("/").Handler(handlers.NewSPAHandler(cfg.StaticDir, logger))
	} else {
		r.PathPrefix("/").Handler(middleware.NotFound(logger))
	}

	return r, nil
}
