// Package logger builds the zap loggers used by the API and its CLI, and
// sanitizes request-derived values before they are logged.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceField is the service name attached to every entry.
const ServiceField = "login-demo-api"

// Options controls logger construction.
type Options struct {
	// Production selects JSON output. Otherwise entries are colored console lines.
	Production bool
	Debug      bool
	// Environment is recorded as a field when set.
	Environment string
}

// New builds a logger for opts.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Production {
		cfg = productionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}

	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}

	fields := []zap.Field{zap.String("service", ServiceField)}
	if opts.Environment != "" {
		fields = append(fields, zap.String("environment", opts.Environment))
	}
	return cfg.Build(zap.Fields(fields...))
}

func productionConfig() zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder
	// every entry is kept
	cfg.Sampling = nil
	return cfg
}

// Sync flushes buffered entries. A nil logger is a no-op.
func Sync(l *zap.Logger) error {
	if l == nil {
		return nil
	}
	return l.Sync()
}
