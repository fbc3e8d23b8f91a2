package rules

import (
	"time"

	"go.uber.org/zap"
)

// LogEvent describes an evaluation attempt.
type LogEvent struct {
	Engine   string
	Expr     string
	Field    string
	Duration time.Duration
	Err      error
}

// Logger records evaluation events.
type Logger interface {
	LogEvaluation(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvaluation implements Logger.
func (f LoggerFunc) LogEvaluation(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvaluation(LogEvent) {}

// ZapLogger writes evaluation events at debug level, failures at warn.
func ZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return LoggerFunc(func(event LogEvent) {
		fields := []zap.Field{
			zap.String("engine", event.Engine),
			zap.String("expr", event.Expr),
			zap.String("field", event.Field),
			zap.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			logger.Warn("rule evaluation failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("rule evaluated", fields...)
	})
}
