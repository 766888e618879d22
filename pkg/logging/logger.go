package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// LevelTrace is below debug; used for per-switch solver dumps
const LevelTrace = slog.LevelDebug - 4

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	roundIDKey   contextKey = "round"
)

var (
	logger atomic.Pointer[slog.Logger]
	output atomic.Pointer[io.Writer]
)

func init() {
	var w io.Writer = os.Stdout
	output.Store(&w)
	SetLevel(slog.LevelInfo)
}

func current() *slog.Logger {
	return logger.Load()
}

// SetOutput redirects all further log output. The current format and
// level must be set again afterwards.
func SetOutput(w io.Writer) {
	output.Store(&w)
}

// SetLevel switches to compact console output at the given level
func SetLevel(level slog.Level) {
	handler := NewCompactHandler(*output.Load(), &slog.HandlerOptions{
		Level: level,
	})
	logger.Store(slog.New(handler))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	handler := slog.NewJSONHandler(*output.Load(), &slog.HandlerOptions{
		Level: level,
	})
	logger.Store(slog.New(handler))
}

// Configure applies a verbosity count (0 info, 1 debug, 2+ trace) and
// output format
func Configure(verbosity int, json bool) {
	level := LevelForVerbosity(verbosity)
	if json {
		SetJSONOutput(level)
		return
	}
	SetLevel(level)
}

// LevelForVerbosity maps a -v count to a level
func LevelForVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelInfo
	case verbosity == 1:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// ParseLevel parses trace, debug, info, warn or error
func ParseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return LevelTrace, nil
	}
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// Logger returns the current logger, for libraries that want a *slog.Logger
func Logger() *slog.Logger {
	return current()
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRoundID tags the context with the id of a probing round
func WithRoundID(ctx context.Context, roundID string) context.Context {
	return context.WithValue(ctx, roundIDKey, roundID)
}

// GetRoundID retrieves the probing round id from context
func GetRoundID(ctx context.Context) string {
	if roundID, ok := ctx.Value(roundIDKey).(string); ok {
		return roundID
	}
	return ""
}

// withContextIDs prepends the request and round ids found in ctx
func withContextIDs(ctx context.Context, args []any) []any {
	if roundID := GetRoundID(ctx); roundID != "" {
		args = append([]any{"round", roundID}, args...)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		args = append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	current().Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	current().Log(ctx, LevelTrace, msg, withContextIDs(ctx, args)...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	current().DebugContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	current().InfoContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	current().WarnContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	current().ErrorContext(ctx, msg, withContextIDs(ctx, args)...)
}

// Fatal logs at ERROR level and exits (unrecoverable bugs)
func Fatal(msg string, args ...any) {
	current().Error(msg, args...)
	os.Exit(1)
}

// Enabled reports whether a level would be logged. Use it to skip
// building expensive dumps.
func Enabled(level slog.Level) bool {
	return current().Enabled(context.Background(), level)
}
