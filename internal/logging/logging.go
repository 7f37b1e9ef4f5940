package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLevel = "warn"

// New builds the CLI logger. Output goes to stderr so stdout stays machine readable.
func New(level string) (*zap.Logger, zap.AtomicLevel, error) {
	atomicLevel, err := ParseLevel(level)
	if err != nil {
		return nil, atomicLevel, err
	}

	config := zap.NewDevelopmentConfig()
	config.Level = atomicLevel
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, atomicLevel, fmt.Errorf("build logger: %w", err)
	}

	return logger.Named("mailbin"), atomicLevel, nil
}

func ParseLevel(level string) (zap.AtomicLevel, error) {
	atomicLevel := zap.NewAtomicLevel()

	level = strings.TrimSpace(level)
	if level == "" {
		level = DefaultLevel
	}
	if err := atomicLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return atomicLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return atomicLevel, nil
}
