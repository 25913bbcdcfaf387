// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer StructuredLogger with domain
// specific logging helpers for steps and model calls.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel represents different logging levels.
// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the logging interface for FlowMesh: the four leveled
// methods plus the two domain calls the executor makes on every step and
// the llm/chat primitives make on every model turn. Users may plug their
// own implementation as long as it satisfies all seven.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// LogStepStart records the beginning of a workflow step execution.
	LogStepStart(stepID, stepType string, index, total int)
	// LogStepComplete records the completion of a workflow step, successful or not.
	LogStepComplete(stepID, stepType string, dur time.Duration, success bool, err error)
	// LogModelCall records a single model generation turn made by the llm/chat primitives.
	LogModelCall(provider, model string, tokens int, dur time.Duration, success bool, err error)
}

// StructuredLogger wraps slog.Logger, adding the domain convenience methods
// required by Logger.
type StructuredLogger struct {
	logger *slog.Logger
	level  LogLevel
}

// LoggerConfig configures construction of a StructuredLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true}
}

// NewLogger builds a StructuredLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *StructuredLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &StructuredLogger{logger: slog.New(handler), level: cfg.Level}
}

// NewSlogLogger creates a new StructuredLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *StructuredLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *StructuredLogger) log(level slog.Level, allowed bool, msg string, args ...interface{}) {
	if !allowed {
		return
	}
	attrs := append([]any{slog.Time("timestamp", time.Now())}, args...)
	l.logger.Log(context.Background(), level, msg, attrs...)
}

// Debug logs at debug level.
func (l *StructuredLogger) Debug(msg string, args ...interface{}) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *StructuredLogger) Info(msg string, args ...interface{}) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *StructuredLogger) Warn(msg string, args ...interface{}) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *StructuredLogger) Error(msg string, args ...interface{}) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogStepStart records the beginning of a workflow step execution.
func (l *StructuredLogger) LogStepStart(stepID, stepType string, index, total int) {
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "Step started",
		slog.String("step_id", stepID), slog.String("step_type", stepType),
		slog.Int("step_index", index), slog.Int("total_steps", total))
}

// LogStepComplete records the completion of a workflow step, successful or not.
func (l *StructuredLogger) LogStepComplete(stepID, stepType string, dur time.Duration, success bool, err error) {
	attrs := []slog.Attr{
		slog.String("step_id", stepID), slog.String("step_type", stepType),
		slog.Duration("duration", dur), slog.Bool("success", success),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level, msg := slog.LevelInfo, "Step completed"
	if !success {
		level, msg = slog.LevelError, "Step failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogModelCall records model call latency, token usage and success for llm/chat primitives.
func (l *StructuredLogger) LogModelCall(provider, model string, tokens int, dur time.Duration, success bool, err error) {
	attrs := []slog.Attr{
		slog.String("provider", provider), slog.String("model", model),
		slog.Int("token_count", tokens), slog.Duration("duration", dur), slog.Bool("success", success),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level, msg := slog.LevelInfo, "Model call completed"
	if !success {
		level, msg = slog.LevelError, "Model call failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// LogStepStart discards the event.
func (NoOpLogger) LogStepStart(string, string, int, int) {}

// LogStepComplete discards the event.
func (NoOpLogger) LogStepComplete(string, string, time.Duration, bool, error) {}

// LogModelCall discards the event.
func (NoOpLogger) LogModelCall(string, string, int, time.Duration, bool, error) {}
