// Package logging provides the logging interface and default implementation
// used by the ring store.
//
// Design: four-level interface (Error, Warn, Info, Debug), the same shape
// used across the broader storage-engine stack this module grows out of, so
// embedders who already wrap slog/zap for that stack can reuse the adapter.
//
// Log format: YYYY/MM/DD HH:MM:SS LEVEL [component] message
//
// Example: 2026/07/29 18:45:13 WARN [store] persist header: ...
//
// The store itself only logs off the hot path: header-flush failures and
// shutdown-hook failures, both at WARN. Everything else is left to callers.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
)

// Level represents the logging level.
type Level int

const (
	// LevelError logs only errors.
	LevelError Level = iota
	// LevelWarn logs warnings and errors.
	LevelWarn
	// LevelInfo logs info, warnings, and errors.
	LevelInfo
	// LevelDebug logs everything including debug messages.
	LevelDebug
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the interface for ring store logging.
//
// Concurrency: DefaultLogger and Discard are safe for concurrent use.
// User-provided Logger implementations MUST be safe for concurrent use, since
// the store may log from the writer goroutine and the scheduler goroutine
// concurrently.
type Logger interface {
	// Errorf logs a formatted error message.
	Errorf(format string, args ...any)

	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)

	// Infof logs a formatted informational message.
	Infof(format string, args ...any)

	// Debugf logs a formatted debug message.
	Debugf(format string, args ...any)
}

// DefaultLogger is the default logger that writes to a specified output.
// It is stateless and safe for concurrent use (log.Logger is thread-safe).
// Level is read-only after construction — create a new logger to change level.
type DefaultLogger struct {
	logger *log.Logger
	level  Level
}

// NewDefaultLogger creates a new default logger with the specified level.
// It writes to stderr.
func NewDefaultLogger(level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "", log.LstdFlags),
		level:  level,
	}
}

// NewLogger creates a new logger with the specified output and level.
func NewLogger(w io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// Level returns the logging level.
func (l *DefaultLogger) Level() Level {
	return l.level
}

// Errorf logs a formatted error message.
func (l *DefaultLogger) Errorf(format string, args ...any) {
	if l.level >= LevelError {
		_ = l.logger.Output(2, "ERROR "+fmt.Sprintf(format, args...))
	}
}

// Warnf logs a formatted warning message.
func (l *DefaultLogger) Warnf(format string, args ...any) {
	if l.level >= LevelWarn {
		_ = l.logger.Output(2, "WARN "+fmt.Sprintf(format, args...))
	}
}

// Infof logs a formatted informational message.
func (l *DefaultLogger) Infof(format string, args ...any) {
	if l.level >= LevelInfo {
		_ = l.logger.Output(2, "INFO "+fmt.Sprintf(format, args...))
	}
}

// Debugf logs a formatted debug message.
func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.level >= LevelDebug {
		_ = l.logger.Output(2, "DEBUG "+fmt.Sprintf(format, args...))
	}
}

// Namespace prefixes for log messages, used with fmt.Sprintf-style formats.
const (
	// NSRing is the namespace for FileRing messages. Header-flush failures
	// are logged by the store under NSStore.
	NSRing = "[ring] "
	// NSStore is the namespace for CappedStore lifecycle operations.
	NSStore = "[store] "
	// NSShutdown is the namespace for shutdown-hook operations.
	NSShutdown = "[shutdown] "
)

// IsNil returns true if the logger is nil or a typed-nil.
// A typed-nil occurs when a nil pointer is assigned to an interface:
//
//	var l *MyLogger = nil
//	opts.Logger = l  // Interface is not nil, but underlying pointer is
//
// Calling methods on a typed-nil panics, so this function detects both cases.
func IsNil(l Logger) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// OrDefault returns the provided logger if it is valid (non-nil and not
// typed-nil), otherwise returns a default WARN-level logger writing to
// stderr. This ensures the store's logger is never nil after Open.
func OrDefault(l Logger) Logger {
	if IsNil(l) {
		return NewDefaultLogger(LevelWarn)
	}
	return l
}
