package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with opsdeck defaults.
type Logger struct {
	*zap.Logger
}

// NewDefault creates a production logger (JSON, info level).
func NewDefault() *Logger {
	return New("info", false)
}

// NewDevelopment creates a development logger (console, debug level).
func NewDevelopment() *Logger {
	return New("debug", true)
}

// New creates a logger with the given level and mode.
func New(level string, development bool) *Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		// Config is static apart from the level, which is already validated.
		logger = zap.NewNop()
	}
	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger with the given name segment.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// With returns a child logger with the given fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}
