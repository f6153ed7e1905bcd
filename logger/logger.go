package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var global atomic.Pointer[slog.Logger]

func init() {
	config := LoadConfig()
	// Seq shipping needs a closer, so it is only enabled through Setup.
	config.SeqURL = ""
	l, _ := NewLogger(config)
	global.Store(l)
}

// Setup replaces the global logger and returns the function that releases
// its resources.
func Setup(config Config) func() {
	l, closeFn := NewLogger(config)
	global.Store(l)
	return closeFn
}

// L returns the global logger
func L() *slog.Logger {
	return global.Load()
}

// SetLogger replaces the global logger
func SetLogger(l *slog.Logger) {
	global.Store(l)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// DebugContext logs a debug message with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	L().DebugContext(ctx, msg, appendContextArgs(ctx, args...)...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// InfoContext logs an info message with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	L().InfoContext(ctx, msg, appendContextArgs(ctx, args...)...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// WarnContext logs a warning message with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	L().WarnContext(ctx, msg, appendContextArgs(ctx, args...)...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// ErrorContext logs an error message with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	L().ErrorContext(ctx, msg, appendContextArgs(ctx, args...)...)
}

// With returns a new Logger that includes the given attributes in each output operation
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// WithContext returns a new Logger that includes context information
func WithContext(ctx context.Context) *slog.Logger {
	return L().With(ExtractContextValues(ctx)...)
}

func appendContextArgs(ctx context.Context, args ...any) []any {
	return append(args, ExtractContextValues(ctx)...)
}
