package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents log level
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	CriticalLevel
)

// Config holds logger configuration
type Config struct {
	Level  string
	Format string
	Output io.Writer
	// OnLog, if set, is called with every emitted level/message/fields
	// triple after it is written, letting a caller (the bridge's metrics
	// collector, a test harness) observe log traffic without parsing
	// output text.
	OnLog func(level Level, msg string, fields []Field)
}

// Logger represents a structured logger
type Logger struct {
	level  Level
	format string
	logger *log.Logger
	onLog  func(level Level, msg string, fields []Field)
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new logger
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level := parseLevel(cfg.Level)

	return &Logger{
		level:  level,
		format: cfg.Format,
		logger: log.New(output, "", log.LstdFlags),
		onLog:  cfg.OnLog,
	}
}

// Discard returns a logger that writes nowhere, the nil-safe fallback used
// by core packages whose caller passed a nil *Logger.
func Discard() *Logger {
	return New(Config{Level: "error", Output: io.Discard})
}

// WithComponent creates a child logger with a component prefix
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		level:  l.level,
		format: l.format,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s] ", component), log.LstdFlags),
		onLog:  l.onLog,
	}
}

// Trace logs a trace message (per-bit/per-burst detail, off by default).
func (l *Logger) Trace(msg string, fields ...Field) {
	if l.level <= TraceLevel {
		l.log("TRACE", TraceLevel, msg, fields...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	if l.level <= DebugLevel {
		l.log("DEBUG", DebugLevel, msg, fields...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	if l.level <= InfoLevel {
		l.log("INFO", InfoLevel, msg, fields...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	if l.level <= WarnLevel {
		l.log("WARN", WarnLevel, msg, fields...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	if l.level <= ErrorLevel {
		l.log("ERROR", ErrorLevel, msg, fields...)
	}
}

// Critical logs a critical message: unrecoverable transport or routing
// faults that a caller may want to page on, distinct from an ordinary
// decode-time Error.
func (l *Logger) Critical(msg string, fields ...Field) {
	if l.level <= CriticalLevel {
		l.log("CRITICAL", CriticalLevel, msg, fields...)
	}
}

func (l *Logger) log(levelName string, level Level, msg string, fields ...Field) {
	if len(fields) == 0 {
		l.logger.Printf("[%s] %s", levelName, msg)
	} else {
		var fieldStrs []string
		for _, f := range fields {
			fieldStrs = append(fieldStrs, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		l.logger.Printf("[%s] %s %s", levelName, msg, strings.Join(fieldStrs, " "))
	}
	if l.onLog != nil {
		l.onLog(level, msg, fields)
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	default:
		return InfoLevel
	}
}

// Field constructors

// String creates a string field
func String(key, val string) Field {
	return Field{Key: key, Value: val}
}

// Int creates an int field
func Int(key string, val int) Field {
	return Field{Key: key, Value: val}
}

// Int64 creates an int64 field
func Int64(key string, val int64) Field {
	return Field{Key: key, Value: val}
}

// Uint64 creates a uint64 field
func Uint64(key string, val uint64) Field {
	return Field{Key: key, Value: val}
}

// Bool creates a bool field
func Bool(key string, val bool) Field {
	return Field{Key: key, Value: val}
}

// Uint creates a uint field
func Uint(key string, val uint) Field {
	return Field{Key: key, Value: val}
}

// Uint32 creates a uint32 field
func Uint32(key string, val uint32) Field {
	return Field{Key: key, Value: val}
}

// Float64 creates a float64 field
func Float64(key string, val float64) Field {
	return Field{Key: key, Value: val}
}

// Error creates an error field
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "nil"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any creates a field with any value
func Any(key string, val interface{}) Field {
	return Field{Key: key, Value: val}
}
