// Package log provides category-tagged structured logging for pitchplay.
//
// Every record carries a "cat" attribute so output from the loader, the
// scheduler, and the audio backends can be filtered independently. Errors
// logged through ErrorErr are also forwarded to Sentry when a client has been
// initialized.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// Category groups log records by subsystem.
type Category string

const (
	CatBank     Category = "bank"
	CatFetch    Category = "fetch"
	CatAudio    Category = "audio"
	CatPlayback Category = "playback"
	CatConfig   Category = "config"
	CatWatch    Category = "watch"
	CatServe    Category = "serve"
	CatTrace    Category = "trace"
	CatBuild    Category = "build"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(New(os.Stderr, "warn", "text"))
}

// New builds a slog.Logger for the given level and format without installing it.
// Unknown levels fall back to info; any format other than "json" is text.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// Init installs a new process logger writing to w.
func Init(w io.Writer, level, format string) {
	SetLogger(New(w, level, format))
}

// SetLogger replaces the process logger. A nil logger is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// Logger returns the current process logger.
func Logger() *slog.Logger {
	return logger.Load()
}

func emit(level slog.Level, cat Category, msg string, args []any) {
	l := logger.Load()
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, msg, append([]any{"cat", string(cat)}, args...)...)
}

// Debug logs at debug level.
func Debug(cat Category, msg string, args ...any) {
	emit(slog.LevelDebug, cat, msg, args)
}

// Info logs at info level.
func Info(cat Category, msg string, args ...any) {
	emit(slog.LevelInfo, cat, msg, args)
}

// Warn logs at warn level.
func Warn(cat Category, msg string, args ...any) {
	emit(slog.LevelWarn, cat, msg, args)
}

// Error logs at error level without an error value.
func Error(cat Category, msg string, args ...any) {
	emit(slog.LevelError, cat, msg, args)
}

// ErrorErr logs err at error level and reports it to Sentry if configured.
func ErrorErr(cat Category, msg string, err error, args ...any) {
	emit(slog.LevelError, cat, msg, append([]any{"error", err}, args...))
	captureException(cat, msg, err, args)
}

func captureException(cat Category, msg string, err error, args []any) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("category", string(cat))
		scope.SetContext("log", fieldsToMap(msg, args))
		hub.CaptureException(err)
	})
}

// fieldsToMap converts alternating key/value args into a Sentry context map.
func fieldsToMap(msg string, args []any) map[string]interface{} {
	fields := map[string]interface{}{"message": msg}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	return fields
}
