package common

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a textual level onto LogLevel. An empty string is info.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "info", "":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	default:
		return LogLevelInfo, false
	}
}

// Logger provides a centralized logging interface for varstore
type Logger struct {
	*slog.Logger
	level  LogLevel
	masker *Masker
}

func maskingOptions(level LogLevel, m *Masker) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level.ToSlogLevel(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if !m.IsEnabled() || a.Value.Kind() != slog.KindString {
				return a
			}
			masked := m.MaskValue(a.Key, a.Value.String())
			if s, ok := masked.(string); ok {
				return slog.String(a.Key, s)
			}
			return a
		},
	}
}

// NewLogger creates a new structured logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a text logger writing to w.
func NewLoggerTo(w io.Writer, level LogLevel) *Logger {
	m := NewMasker()
	handler := slog.NewTextHandler(w, maskingOptions(level, m))
	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		masker: m,
	}
}

// NewJSONLogger creates a structured logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	m := NewMasker()
	handler := slog.NewJSONHandler(os.Stdout, maskingOptions(level, m))
	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		masker: m,
	}
}

// NewColorLogger creates a logger using the ANSI color handler
func NewColorLogger(level LogLevel) *Logger {
	m := NewMasker()
	handler := NewColorHandler(os.Stdout, &slog.HandlerOptions{Level: level.ToSlogLevel()})
	handler.SetMasker(m)
	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		masker: m,
	}
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// EnableMasking toggles masking of sensitive attribute values for this logger.
func (l *Logger) EnableMasking(enabled bool) {
	if l.masker != nil {
		l.masker.SetEnabled(enabled)
	}
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
		masker: l.masker,
	}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithStore returns a logger with storage backend context
func (l *Logger) WithStore(storeType string) *Logger {
	return l.with("store", storeType)
}

// WithVariable returns a logger scoped to a single variable name
func (l *Logger) WithVariable(name string) *Logger {
	return l.with("variable", name)
}

// WithRequest returns a logger with HTTP request context.
// The url is masked so tokens carried in the query string never reach the sink.
func (l *Logger) WithRequest(method, url string) *Logger {
	return l.with("method", method, "url", MaskSensitiveData(url))
}

// Global default logger instance
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}
