// internal/logging/logging.go
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger: production JSON to stdout, no sampling,
// caller on every entry and stack traces from error level up.
// "trace" is accepted and maps to debug.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	lvl, err := zap.ParseAtomicLevel(normalizeLevel(level))
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	cfg.Sampling = nil

	return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

func normalizeLevel(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "":
		return "info"
	case "trace":
		return "debug"
	case "warning":
		return "warn"
	}
	return l
}
