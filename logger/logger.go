// Package logger provides the logging abstraction used across go-owfs.
//
// Bus adapters, the transaction engine and the property dispatcher all log
// through the Logger interface, so applications can plug in their own logging
// framework. The default implementation is backed by log/slog.
//
// Log Levels:
//
//   - DebugLevel: frame-level tracing (opcodes, addresses, CRC failures).
//   - InfoLevel: lifecycle events such as bus open/close and flash progress.
//   - WarnLevel: recoverable hardware misbehaviour, e.g. a rejected flash chunk.
//   - ErrorLevel: failures surfaced to the caller.
//   - FatalLevel: unrecoverable errors that terminate the program.
package logger

// Level indicates the logging severity level.
type Level = int8

// LogLevel is an alias of Level kept for callers that prefer the longer name.
type LogLevel = Level

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If the bus is healthy it shouldn't
	// generate any error-level logs.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// Logger defines a common interface for logging.
type Logger interface {
	// Debug logs a message at DebugLevel.
	// The message includes any fields passed at the log site, as well as any fields accumulated on the logger.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at FatalLevel, then calls os.Exit(1) even if
	// logging at FatalLevel is disabled.
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger and adds structured context to it.
	// Key-values added to the child don't affect the parent, and vice versa.
	With(keyValues ...any) Logger
	// Level returns the minimum enabled level for this logger.
	Level() Level
	// SetLevel sets the minimum enabled level for this logger.
	SetLevel(level Level)
}
