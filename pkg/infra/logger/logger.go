// Package logger provides structured logging for the NAS assistant.
// It wraps log/slog so every component logs through one configured
// handler, and carries per-interaction correlation (request ID, chat ID,
// command) in the context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys in this package.
type contextKey int

const (
	requestIDKey contextKey = iota
	chatIDKey
	commandKey
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
	mu            sync.RWMutex
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the writer to log to (defaults to os.Stderr).
	Output io.Writer
}

// Init initializes the default logger with the given configuration.
// Only the first call takes effect; use Reset() to reconfigure.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	once.Do(func() {
		defaultLogger = New(cfg)
		slog.SetDefault(defaultLogger)
	})
}

// Reset resets the default logger so Init can be called again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	defaultLogger = nil
}

// New builds a standalone logger without touching the default.
func New(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the default logger instance, falling back to
// slog.Default() when Init has not been called.
func Default() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}

// WithContext returns a logger enriched with the correlation values found
// in ctx.
func WithContext(ctx context.Context) *slog.Logger {
	l := Default()

	if rid := GetRequestID(ctx); rid != "" {
		l = l.With("request_id", rid)
	}
	if cid, ok := ctx.Value(chatIDKey).(int64); ok {
		l = l.With("chat_id", cid)
	}
	if c, ok := ctx.Value(commandKey).(string); ok && c != "" {
		l = l.With("command", c)
	}

	return l
}

// NewInteraction starts the context of one user interaction: a fresh
// request ID plus the command name ("chat" for free text).
func NewInteraction(ctx context.Context, command string) context.Context {
	ctx = SetRequestID(ctx, uuid.NewString())
	return SetCommand(ctx, command)
}

// SetCommand records the command being handled.
func SetCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// SetRequestID adds a request ID to the context.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// SetChatID adds the chat the interaction originates from.
func SetChatID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, chatIDKey, id)
}

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetChatID extracts the chat ID from the context.
func GetChatID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(chatIDKey).(int64)
	return id, ok
}

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
