// Package logging is the structured logger shared by the engine, the CLI and
// the live view. Records go through log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

// Field is one key/value pair attached to a record.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field        { return Field{key, value} }
func Int(key string, value int) Field       { return Field{key, value} }
func Uint64(key string, value uint64) Field { return Field{key, value} }
func Float(key string, value float64) Field { return Field{key, value} }
func Any(key string, value any) Field       { return Field{key, value} }
func Err(err error) Field                   { return Field{"error", err} }

type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Config mirrors the log section of the session config. Output defaults to
// stderr; the live view points it at a file.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

func New(cfg Config) Logger {
	var level slog.Level
	if level.UnmarshalText([]byte(cfg.Level)) != nil {
		level = slog.LevelInfo
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return logger{slog.New(slog.NewJSONHandler(out, opts))}
	}
	return logger{slog.New(slog.NewTextHandler(out, opts))}
}

// FromEnv fills an empty Level or Format from ORRERY_LOG_LEVEL and
// ORRERY_LOG_FORMAT.
func FromEnv(cfg Config) Config {
	if cfg.Level == "" {
		cfg.Level = os.Getenv("ORRERY_LOG_LEVEL")
	}
	if cfg.Format == "" {
		cfg.Format = os.Getenv("ORRERY_LOG_FORMAT")
	}
	return cfg
}

func Noop() Logger { return noop{} }

type logger struct{ l *slog.Logger }

func (s logger) With(fields ...Field) Logger {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = slog.Any(f.Key, f.Value)
	}
	return logger{s.l.With(args...)}
}

func (s logger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if !s.l.Enabled(ctx, level) {
		return
	}
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	s.l.LogAttrs(ctx, level, msg, attrs...)
}

func (s logger) Debug(ctx context.Context, msg string, f ...Field) { s.log(ctx, slog.LevelDebug, msg, f) }
func (s logger) Info(ctx context.Context, msg string, f ...Field)  { s.log(ctx, slog.LevelInfo, msg, f) }
func (s logger) Warn(ctx context.Context, msg string, f ...Field)  { s.log(ctx, slog.LevelWarn, msg, f) }
func (s logger) Error(ctx context.Context, msg string, f ...Field) { s.log(ctx, slog.LevelError, msg, f) }

type noop struct{}

func (noop) With(...Field) Logger                    { return noop{} }
func (noop) Debug(context.Context, string, ...Field) {}
func (noop) Info(context.Context, string, ...Field)  {}
func (noop) Warn(context.Context, string, ...Field)  {}
func (noop) Error(context.Context, string, ...Field) {}

type jumpKey struct{}

var jumps atomic.Uint64

// WithJump numbers a time jump on ctx and returns base tagged with that
// number. A ctx that already carries one keeps it.
func WithJump(ctx context.Context, base Logger) (context.Context, Logger) {
	if base == nil {
		base = Noop()
	}
	id := JumpID(ctx)
	if id == "" {
		id = strconv.FormatUint(jumps.Add(1), 10)
		ctx = context.WithValue(ctx, jumpKey{}, id)
	}
	return ctx, base.With(String("jump_id", id))
}

func JumpID(ctx context.Context) string {
	id, _ := ctx.Value(jumpKey{}).(string)
	return id
}
