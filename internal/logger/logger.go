package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. Initialized once at bootstrap.
var L = zap.NewNop()

// Init configures the global logger. `level` is one of "debug", "info",
// "warn", "error". Production mode emits JSON, development mode a colored
// console format.
func Init(level string, isProduction bool) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
		fmt.Fprintf(os.Stderr, "Warning: Invalid log level '%s', using default 'info'. Error: %v\n", level, err)
	}

	var err error
	if isProduction {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
		L, err = config.Build(zap.AddCallerSkip(1))
	} else {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Level = zap.NewAtomicLevelAt(zapLevel)
		L, err = config.Build(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	return nil
}

// Sync flushes buffered log entries. Call before the application exits.
func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
