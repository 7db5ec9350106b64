package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewProductionLogger creates a JSON logger writing to stderr. Routine
// request logging sits at debug level, so only warnings show by default.
func NewProductionLogger(debugMode bool) (*zap.Logger, error) {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.SecondsDurationEncoder

	config := zap.NewProductionConfig()
	config.Level = level(debugMode)
	config.EncoderConfig = enc
	config.OutputPaths = []string{"stderr"}
	config.Sampling = nil
	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return l.Named("ticktask"), nil
}

// NewDevelopmentLogger creates a console logger for interactive use.
func NewDevelopmentLogger(debugMode bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = level(debugMode)
	config.DisableStacktrace = !debugMode
	return config.Build()
}

// Sync flushes buffered entries. Safe on a nil logger.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}

func level(debugMode bool) zap.AtomicLevel {
	if debugMode {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zapcore.WarnLevel)
}
