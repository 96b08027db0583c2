// Package logger builds zap loggers for the client and carries them in contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger for the given format.
// "json" (or "prod") uses JSON output, "console" (or "dev") uses colored console output,
// "" and "none" return a no-op logger.
// levelOverride (if non-empty) overrides the log level: debug, info, warn, error.
func NewLogger(format string, levelOverride ...string) (*zap.Logger, error) {
	var cfg zap.Config
	switch format {
	case "", "none":
		return zap.NewNop(), nil
	case "json", "prod":
		cfg = zap.NewProductionConfig()
	case "console", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	if len(levelOverride) > 0 && levelOverride[0] != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(levelOverride[0])); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelOverride[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Named("aetherfy"), nil
}
