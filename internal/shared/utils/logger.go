package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// InitServerLogger builds the process-wide zap logger from LOG_LEVEL
// (OFF/ERROR/WARN/INFO/DEBUG, default INFO). OFF installs a no-op core so
// call sites never need a nil check.
func InitServerLogger() error {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if level == "OFF" {
		globalLogger = zap.NewNop()
		return nil
	}

	atomicLevel := zap.NewAtomicLevel()
	switch level {
	case "ERROR":
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	case "WARN":
		atomicLevel.SetLevel(zapcore.WarnLevel)
	case "DEBUG":
		atomicLevel.SetLevel(zapcore.DebugLevel)
	default:
		atomicLevel.SetLevel(zapcore.InfoLevel)
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "level",
		TimeKey:       "time",
		NameKey:       "logger",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
		LineEnding:    zapcore.DefaultLineEnding,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		atomicLevel,
	)

	globalLogger = zap.New(core, zap.AddCaller())
	return nil
}

// GetLogger returns the process-wide logger, falling back to a no-op logger
// if InitServerLogger was never called (e.g. in tests).
func GetLogger() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Sync flushes the process-wide logger's buffered entries.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
