package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/login-demo/internal/validation"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAuthConfigPath is where the auth config is read from when AUTH_CONFIG_PATH is unset
	DefaultAuthConfigPath = "auth_config.json"

	// DevelopmentPort is the listen port outside production
	DevelopmentPort = "3001"
	// ProductionPort is the listen port in production
	ProductionPort = "3010"

	// EnvProduction selects the production port and static bundle serving
	EnvProduction = "production"
	// EnvDevelopment is the mode used when APP_ENV and NODE_ENV are unset
	EnvDevelopment = "development"

	// DefaultRateLimit is the per-client API rate in ulule's format
	DefaultRateLimit = "100-M"
)

// ErrMissingAuthConfig is returned when the auth config file is absent or lacks domain/audience
var ErrMissingAuthConfig = errors.New("please make sure that auth_config.json is in place and populated")

// AuthConfig is the content of auth_config.json
type AuthConfig struct {
	Domain    string `json:"domain" yaml:"domain" validate:"required,auth_domain"`
	Audience  string `json:"audience" yaml:"audience" validate:"required"`
	ClientID  string `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	APIURI    string `json:"apiUri,omitempty" yaml:"apiUri,omitempty" validate:"omitempty,url"`
	AppURI    string `json:"appUri,omitempty" yaml:"appUri,omitempty" validate:"omitempty,url"`
	ErrorPath string `json:"errorPath,omitempty" yaml:"errorPath,omitempty"`
}

// Issuer returns the expected iss claim for tokens minted by the domain
func (a AuthConfig) Issuer() string {
	return "https://" + a.Domain + "/"
}

// JWKSURL returns the well-known key set location for the domain
func (a AuthConfig) JWKSURL() string {
	return "https://" + a.Domain + "/.well-known/jwks.json"
}

// TokenURL returns the OAuth token endpoint for the domain
func (a AuthConfig) TokenURL() string {
	return "https://" + a.Domain + "/oauth/token"
}

// Config holds application configuration
type Config struct {
	Auth           AuthConfig
	AuthConfigPath string

	Environment string
	ServerPort  string
	StaticDir   string
	FrontendURL string
	EnableHSTS  bool

	JWKSRequestsPerMinute int
	JWKSRefreshInterval   time.Duration
	JWTClockSkew          time.Duration

	RateLimit string
	RedisURL  string

	// TrustProxy keys rate limiting on X-Forwarded-For/X-Real-IP instead of the connection address
	TrustProxy bool

	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
	// MetricsAddr is the listen address of the internal metrics server; empty disables it
	MetricsAddr string
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load loads configuration from environment variables and the auth config
// file named by AUTH_CONFIG_PATH.
func Load() (*Config, error) {
	return LoadFrom(getEnv("AUTH_CONFIG_PATH", DefaultAuthConfigPath))
}

// LoadFrom loads configuration from environment variables and the given auth config file
func LoadFrom(authConfigPath string) (*Config, error) {
	auth, err := LoadAuthConfig(authConfigPath)
	if err != nil {
		return nil, err
	}

	env := Environment()

	cfg := &Config{
		Auth:                  *auth,
		AuthConfigPath:        authConfigPath,
		Environment:           env,
		ServerPort:            getEnv("SERVER_PORT", ""),
		StaticDir:             getEnv("STATIC_DIR", filepath.Join("dist", "login-demo")),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:            getEnvBool("ENABLE_HSTS", false),
		JWKSRequestsPerMinute: getEnvInt("JWKS_REQUESTS_PER_MINUTE", 5),
		JWKSRefreshInterval:   getEnvDuration("JWKS_REFRESH_INTERVAL", 15*time.Minute),
		JWTClockSkew:          getEnvDuration("JWT_CLOCK_SKEW", 0),
		RateLimit:             rateLimitFromEnv(),
		RedisURL:              getEnv("REDIS_URL", ""),
		TrustProxy:            getEnvBool("TRUST_PROXY", false),
		ServerDebugMode:       getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:           getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsAddr:           getEnv("METRICS_ADDR", ""),
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = DevelopmentPort
		if cfg.IsProduction() {
			cfg.ServerPort = ProductionPort
		}
	}

	if cfg.JWKSRequestsPerMinute <= 0 {
		return nil, fmt.Errorf("JWKS_REQUESTS_PER_MINUTE must be positive, got %d", cfg.JWKSRequestsPerMinute)
	}

	return cfg, nil
}

// Environment returns the run mode from APP_ENV, falling back to NODE_ENV
func Environment() string {
	return strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment))))
}

// LoadAuthConfig reads and validates an auth config file. JSON is expected
// unless the file has a .yaml or .yml extension. Every failure wraps
// ErrMissingAuthConfig.
func LoadAuthConfig(path string) (*AuthConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrMissingAuthConfig, path, err)
	}

	auth := &AuthConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, auth)
	default:
		err = json.Unmarshal(data, auth)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrMissingAuthConfig, path, err)
	}

	auth.Normalize()
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	return auth, nil
}

// Normalize trims whitespace and strips a scheme or trailing slash from the domain
func (a *AuthConfig) Normalize() {
	a.Domain = strings.TrimSpace(a.Domain)
	a.Domain = strings.TrimPrefix(a.Domain, "https://")
	a.Domain = strings.TrimPrefix(a.Domain, "http://")
	a.Domain = strings.TrimRight(a.Domain, "/")
	a.Audience = strings.TrimSpace(a.Audience)
}

// Validate checks that domain and audience are populated
func (a *AuthConfig) Validate() error {
	if err := validation.Validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingAuthConfig, strings.Join(validation.FieldErrors(err), "; "))
	}
	return nil
}

// WriteAuthConfig writes cfg to path, as YAML for .yaml/.yml paths and indented JSON otherwise
func WriteAuthConfig(path string, cfg *AuthConfig) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode auth config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write auth config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// RateLimitOff is the RATE_LIMIT value that disables API rate limiting.
const RateLimitOff = "off"

func rateLimitFromEnv() string {
	value := getEnv("RATE_LIMIT", DefaultRateLimit)
	if strings.EqualFold(strings.TrimSpace(value), RateLimitOff) {
		return ""
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
