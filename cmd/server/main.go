package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/benvon/login-demo/internal/config"
	"github.com/benvon/login-demo/internal/logger"
	"github.com/benvon/login-demo/internal/metrics"
	"github.com/benvon/login-demo/internal/middleware"
	"github.com/benvon/login-demo/internal/server"
	"github.com/benvon/login-demo/internal/services/oidc"
	"github.com/benvon/login-demo/internal/telemetry"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const missingConfigMessage = "Please make sure that auth_config.json is in place and populated"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	configPath := flag.String("config", "", "Path to the auth config file (default $AUTH_CONFIG_PATH or auth_config.json)")
	flag.Parse()

	env := config.Environment()
	zapLogger, err := logger.New(logger.Options{
		Production:  env == config.EnvProduction,
		Debug:       *debugFlag,
		Environment: env,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if errors.Is(err, config.ErrMissingAuthConfig) {
			zapLogger.Fatal(missingConfigMessage, zap.Error(err))
		}
		zapLogger.Fatal("failed_to_load_configuration", zap.Error(err))
	}

	if cfg.ServerDebugMode && !*debugFlag {
		if zapLogger, err = logger.New(logger.Options{Production: cfg.IsProduction(), Debug: true, Environment: cfg.Environment}); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	zapLogger.Info("starting_server",
		zap.String("environment", cfg.Environment),
		zap.String("server_port", cfg.ServerPort),
		zap.String("issuer", cfg.Auth.Issuer()),
		zap.String("audience", cfg.Auth.Audience),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tracing := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracing = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	var (
		registry   *prometheus.Registry
		apiMetrics *metrics.Metrics
	)
	jwksOpts := oidc.JWKSOptions{
		RefreshInterval:   cfg.JWKSRefreshInterval,
		RequestsPerMinute: cfg.JWKSRequestsPerMinute,
	}
	if cfg.MetricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		apiMetrics = metrics.New(registry)
		jwksOpts.Observer = apiMetrics
	}

	jwksManager, err := oidc.NewJWKSManager(ctx, cfg.Auth.JWKSURL(), jwksOpts)
	if err != nil {
		zapLogger.Fatal("failed_to_create_jwks_manager", zap.Error(err))
	}

	warmupCtx, warmupCancel := context.WithTimeout(ctx, 10*time.Second)
	if set, err := jwksManager.Warmup(warmupCtx); err != nil {
		zapLogger.Warn("jwks_warmup_failed", zap.String("jwks_url", jwksManager.URL()), zap.Error(err))
	} else {
		zapLogger.Info("jwks_loaded", zap.String("jwks_url", jwksManager.URL()), zap.Int("keys", set.Len()))
	}
	warmupCancel()

	verifier, err := oidc.NewVerifier(jwksManager, oidc.VerifierConfig{
		Issuer:    cfg.Auth.Issuer(),
		Audience:  cfg.Auth.Audience,
		ClockSkew: cfg.JWTClockSkew,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_create_verifier", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	router, err := server.NewRouter(server.Deps{
		Config:   cfg,
		Logger:   zapLogger,
		Verifier: verifier,
		Keys:     jwksManager,
		Redis:    redisClient,
		Metrics:  apiMetrics,
		Tracing:  tracing,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		zapLogger.Fatal("server_failed_to_start", zap.Error(err))
	}

	var g run.Group
	{
		g.Add(func() error {
			zapLogger.Info("Server started on port " + cfg.ServerPort)
			if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			zapLogger.Info("server_shutting_down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
			}
		})
	}
	if registry != nil {
		internal := http.NewServeMux()
		internal.Handle("/metrics", metrics.Handler(registry))
		metricsSrv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           internal,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Add(func() error {
			zapLogger.Info("metrics_server_started", zap.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		})
	}
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	if err := g.Run(); err != nil {
		var sigErr run.SignalError
		if !errors.As(err, &sigErr) {
			zapLogger.Error("server_stopped_with_error", zap.Error(err))
		}
	}

	zapLogger.Info("server_exited")
}
