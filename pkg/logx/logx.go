// Package logx is the process-wide leveled logger.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a LOG_LEVEL string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Fields are structured attributes attached to an Entry
type Fields map[string]any

var (
	mu       sync.RWMutex
	level    = new(slog.LevelVar)
	logger   = newLogger(os.Stderr)
	exitFunc = os.Exit
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func SetLevel(l Level) {
	level.Set(l.slog())
}

// SetOutput redirects all log output, mainly for tests
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func Debug(msg string)                  { current().Debug(msg) }
func Debugf(format string, args ...any) { current().Debug(fmt.Sprintf(format, args...)) }
func Info(msg string)                   { current().Info(msg) }
func Infof(format string, args ...any)  { current().Info(fmt.Sprintf(format, args...)) }
func Warn(msg string)                   { current().Warn(msg) }
func Warnf(format string, args ...any)  { current().Warn(fmt.Sprintf(format, args...)) }
func Error(msg string)                  { current().Error(msg) }
func Errorf(format string, args ...any) { current().Error(fmt.Sprintf(format, args...)) }

func Fatal(msg string) {
	current().Error(msg)
	exitFunc(1)
}

func Fatalf(format string, args ...any) {
	Fatal(fmt.Sprintf(format, args...))
}

// Entry is a logger bound to a set of fields
type Entry struct {
	fields Fields
}

func WithFields(fields Fields) *Entry {
	return &Entry{fields: fields}
}

func (e *Entry) log(l slog.Level, msg string) {
	attrs := make([]slog.Attr, 0, len(e.fields))
	for k, v := range e.fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	current().LogAttrs(context.Background(), l, msg, attrs...)
}

func (e *Entry) Debugf(format string, args ...any) {
	e.log(slog.LevelDebug, fmt.Sprintf(format, args...))
}
func (e *Entry) Infof(format string, args ...any) {
	e.log(slog.LevelInfo, fmt.Sprintf(format, args...))
}
func (e *Entry) Warnf(format string, args ...any) {
	e.log(slog.LevelWarn, fmt.Sprintf(format, args...))
}
func (e *Entry) Errorf(format string, args ...any) {
	e.log(slog.LevelError, fmt.Sprintf(format, args...))
}
