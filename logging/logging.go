// Package logging is the leveled logging facade go-servicekit seeds into
// the ambient locator. Applications register a Logger (the minimal sink)
// and consume FullLogger (the formatting convenience wrapper) through a
// Manager that memoizes one FullLogger per requesting type.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Level orders log severities from chattiest to most severe.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel converts a level name to a Level, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Logger is the minimal sink contract: one write method plus the
// threshold below which messages are discarded.
type Logger interface {
	Write(level Level, msg string)
	Level() Level
}

// ── Null logger ───────────────────────────────────────────────────────────────

// nullLogger discards everything. Its threshold sits at LevelFatal so
// wrappers skip formatting for nearly all calls.
type nullLogger struct{}

// NewNullLogger returns a Logger that discards every message.
func NewNullLogger() Logger { return nullLogger{} }

func (nullLogger) Write(Level, string) {}
func (nullLogger) Level() Level        { return LevelFatal }

// ── slog-backed loggers ───────────────────────────────────────────────────────

// slogLogger forwards writes to a slog.Logger.
type slogLogger struct {
	inner *slog.Logger
	level Level
}

// NewSlogLogger adapts any slog.Handler to the Logger contract, with the
// given threshold.
func NewSlogLogger(h slog.Handler, level Level) Logger {
	return &slogLogger{inner: slog.New(h), level: level}
}

// NewConsoleLogger returns a Logger writing slog text lines to stderr.
func NewConsoleLogger(level Level) Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: toSlogLevel(level)})
	return &slogLogger{inner: slog.New(h), level: level}
}

func (l *slogLogger) Write(level Level, msg string) {
	if level < l.level {
		return
	}
	l.inner.Log(context.Background(), toSlogLevel(level), msg)
}

func (l *slogLogger) Level() Level { return l.level }

// toSlogLevel maps the facade levels onto slog's; fatal sits above
// slog.LevelError, which has no named counterpart.
func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// ── FullLogger ────────────────────────────────────────────────────────────────

// FullLogger wraps a Logger with Sprint/Sprintf convenience methods and
// an optional per-type prefix. Formatting is skipped entirely for
// messages below the inner logger's threshold.
type FullLogger struct {
	logger Logger
	prefix string
}

// NewFullLogger wraps l; a nil l falls back to the null logger. The
// prefix, usually a type name, is prepended to every message.
func NewFullLogger(l Logger, prefix string) *FullLogger {
	if l == nil {
		l = NewNullLogger()
	}
	return &FullLogger{logger: l, prefix: prefix}
}

// Level exposes the inner logger's threshold.
func (f *FullLogger) Level() Level { return f.logger.Level() }

func (f *FullLogger) enabled(level Level) bool { return level >= f.logger.Level() }

func (f *FullLogger) emit(level Level, msg string) {
	if f.prefix != "" {
		msg = f.prefix + ": " + msg
	}
	f.logger.Write(level, msg)
}

// Debug logs its arguments Sprint-style at LevelDebug.
func (f *FullLogger) Debug(args ...any) {
	if !f.enabled(LevelDebug) {
		return
	}
	f.emit(LevelDebug, fmt.Sprint(args...))
}

// Debugf logs a Sprintf-formatted message at LevelDebug.
func (f *FullLogger) Debugf(format string, args ...any) {
	if !f.enabled(LevelDebug) {
		return
	}
	f.emit(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs its arguments Sprint-style at LevelInfo.
func (f *FullLogger) Info(args ...any) {
	if !f.enabled(LevelInfo) {
		return
	}
	f.emit(LevelInfo, fmt.Sprint(args...))
}

// Infof logs a Sprintf-formatted message at LevelInfo.
func (f *FullLogger) Infof(format string, args ...any) {
	if !f.enabled(LevelInfo) {
		return
	}
	f.emit(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs its arguments Sprint-style at LevelWarn.
func (f *FullLogger) Warn(args ...any) {
	if !f.enabled(LevelWarn) {
		return
	}
	f.emit(LevelWarn, fmt.Sprint(args...))
}

// Warnf logs a Sprintf-formatted message at LevelWarn.
func (f *FullLogger) Warnf(format string, args ...any) {
	if !f.enabled(LevelWarn) {
		return
	}
	f.emit(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs its arguments Sprint-style at LevelError.
func (f *FullLogger) Error(args ...any) {
	if !f.enabled(LevelError) {
		return
	}
	f.emit(LevelError, fmt.Sprint(args...))
}

// Errorf logs a Sprintf-formatted message at LevelError.
func (f *FullLogger) Errorf(format string, args ...any) {
	if !f.enabled(LevelError) {
		return
	}
	f.emit(LevelError, fmt.Sprintf(format, args...))
}

// Fatal logs its arguments Sprint-style at LevelFatal. It does not
// terminate the process.
func (f *FullLogger) Fatal(args ...any) {
	if !f.enabled(LevelFatal) {
		return
	}
	f.emit(LevelFatal, fmt.Sprint(args...))
}

// Fatalf logs a Sprintf-formatted message at LevelFatal. It does not
// terminate the process.
func (f *FullLogger) Fatalf(format string, args ...any) {
	if !f.enabled(LevelFatal) {
		return
	}
	f.emit(LevelFatal, fmt.Sprintf(format, args...))
}
