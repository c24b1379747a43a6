// Package logger is the process-wide structured logger. Entries logged with
// a request context carry the request id.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"
)

type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	level   = new(slog.LevelVar)
	current atomic.Pointer[slog.Logger]
)

func init() {
	Setup(os.Stderr, "text")
}

// Setup replaces the output and format ("text" or "json") of the logger.
func Setup(w io.Writer, format string) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	current.Store(slog.New(handler))
}

func SetLevel(l Level) {
	level.Set(l)
}

// ParseLevel maps debug|info|warn|error to a level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger returns the underlying slog logger.
func Logger() *slog.Logger {
	return current.Load()
}

func Debug(ctx context.Context, msg string, args ...any) {
	log(ctx, LevelDebug, msg, args)
}

func Info(ctx context.Context, msg string, args ...any) {
	log(ctx, LevelInfo, msg, args)
}

func Warn(ctx context.Context, msg string, args ...any) {
	log(ctx, LevelWarn, msg, args)
}

// Error logs msg with err attached. A nil err logs the message alone.
func Error(ctx context.Context, err error, msg string, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	log(ctx, LevelError, msg, args)
}

func log(ctx context.Context, l Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		args = append(args, "request_id", reqID)
	}
	current.Load().Log(ctx, l, msg, args...)
}
