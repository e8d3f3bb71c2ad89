// Package observability builds the process logger and the scoped child
// loggers each battle and connection writes through.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		// Battle logs are bursty; sampling would drop combat lines.
		zapCfg.Sampling = nil
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]interface{}{"service": "skirmish"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ForBattle returns a child of logger tagged with the stage being fought.
// The battle session adds its own id.
//
// Precondition: logger must not be nil.
func ForBattle(logger *zap.Logger, stageID string, level int) *zap.Logger {
	return logger.Named("battle").With(
		zap.String("stage", stageID),
		zap.Int("level", level),
	)
}

// ForConn returns a child of logger tagged with a telnet peer address.
func ForConn(logger *zap.Logger, remote string) *zap.Logger {
	return logger.Named("telnet").With(zap.String("remote", remote))
}
