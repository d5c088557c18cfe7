// Package logger provides a structured logger with trace id support.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// TraceIDFn knows how to extract the trace id from a context.
type TraceIDFn func(ctx context.Context) string

// Level represents the logging levels, clients are kept away from slog.
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// Environment decides the output format, text in dev and json in prod.
type Environment int

const (
	EnvironmentDev  Environment = 1
	EnvironmentProd Environment = 2
)

// Logger writes structured records through a slog handler.
type Logger struct {
	handler   slog.Handler
	discard   bool
	traceIDFn TraceIDFn
}

// New constructs a Logger writing into w.
func New(w io.Writer, minLevel Level, env Environment, serviceName string, traceIDFn TraceIDFn) Logger {
	return Logger{
		handler:   newHandler(w, serviceName, minLevel, env),
		discard:   w == io.Discard,
		traceIDFn: traceIDFn,
	}
}

// NewDiscard returns a Logger that drops everything, handy in tests.
func NewDiscard() Logger {
	return New(io.Discard, LevelError, EnvironmentDev, "", nil)
}

// Debug logs at LevelDebug.
func (l Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, 3, msg, args...)
}

// Info logs at LevelInfo.
func (l Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, 3, msg, args...)
}

// Warn logs at LevelWarn.
func (l Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, 3, msg, args...)
}

// Error logs at LevelError.
func (l Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, 3, msg, args...)
}

// NewStdLogger returns a standard library logger, used as http.Server ErrorLog.
func NewStdLogger(l Logger, level Level) *log.Logger {
	return slog.NewLogLogger(l.handler, slog.Level(level))
}

func (l Logger) write(ctx context.Context, level Level, skip int, msg string, args ...any) {
	if l.discard || l.handler == nil || !l.handler.Enabled(ctx, slog.Level(level)) {
		return
	}

	//skip runtime.Callers, write and the level method itself.
	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])

	if l.traceIDFn != nil {
		args = append(args, "traceID", l.traceIDFn(ctx))
	}
	r.Add(args...)

	_ = l.handler.Handle(ctx, r)
}

func newHandler(w io.Writer, service string, minLevel Level, env Environment) slog.Handler {
	//only keep the base name of the file.
	replace := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.SourceKey {
			return a
		}

		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}

		return slog.String("file", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
	}

	opts := slog.HandlerOptions{AddSource: true, Level: slog.Level(minLevel), ReplaceAttr: replace}

	var h slog.Handler
	switch env {
	case EnvironmentProd:
		h = slog.NewJSONHandler(w, &opts)
	default:
		h = slog.NewTextHandler(w, &opts)
	}

	return h.WithAttrs([]slog.Attr{slog.String("service", service)})
}
