package logger

import (
	"github.com/leandrodaf/continuator/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// callerSkip drops ZapLogger.<Level> and ZapLogger.log from reported callers.
const callerSkip = 2

// ZapLogger implements contracts.Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	config zap.Config
}

// NewZapLogger builds a production zap logger writing JSON to stderr.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewProductionConfig()
	cfg.Level = level

	l, err := cfg.Build(zap.AddCallerSkip(callerSkip))
	if err != nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l, level: level, config: cfg}
}

// NewZapLoggerFrom wraps an existing zap logger. Entries are still gated by
// SetLevel on top of whatever level the wrapped core enforces.
func NewZapLoggerFrom(l *zap.Logger) contracts.Logger {
	cfg := zap.NewProductionConfig()
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Level = level
	return &ZapLogger{
		logger: l.WithOptions(zap.AddCallerSkip(callerSkip)),
		level:  level,
		config: cfg,
	}
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level; zap terminates the process.
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
}

// Field returns a builder for typed log fields.
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the minimum level that will be written.
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(zapLevel(level))
}

// SetDestination rebuilds the underlying logger so it writes to the console
// or to filePath[0].
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	paths := []string{"stderr"}
	if dest == contracts.FileLog {
		if len(filePath) == 0 || filePath[0] == "" {
			z.Warn("file log destination requested without a path; keeping current destination")
			return
		}
		paths = []string{filePath[0]}
	}

	cfg := z.config
	cfg.Level = z.level
	cfg.OutputPaths = paths
	l, err := cfg.Build(zap.AddCallerSkip(callerSkip))
	if err != nil {
		z.Error("failed to switch log destination", z.Field().Error("error", err))
		return
	}
	_ = z.logger.Sync()
	z.logger = l
	z.config = cfg
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}
	ce := z.logger.Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(fields)...)
}

// zapLevel maps the SDK levels onto zapcore levels.
func zapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok {
			out = append(out, f.field)
		}
	}
	return out
}
