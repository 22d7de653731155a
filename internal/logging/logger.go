// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a production zap logger at the requested level. An empty
// level means info; an unrecognized level is a configuration error rather
// than a silent fallback, since the pipeline's rejection decisions are only
// auditable through these logs.
func NewLogger(level string) (*zap.Logger, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		normalized = "info"
	}
	if normalized == "warning" {
		normalized = "warn"
	}

	parsed, err := zapcore.ParseLevel(normalized)
	if err != nil {
		return nil, fmt.Errorf("logging: unknown level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
