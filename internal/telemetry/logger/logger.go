package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is what components log through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config selects the handler built by New.
type Config struct {
	Level  string    // debug, info, warn or error
	Format string    // json (default) or text
	Output io.Writer // os.Stderr when nil

	// Service, when set, is attached to every entry as "service".
	Service string

	AddSource bool
}

// DefaultConfig is used for the package default logger.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"":        slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// level is shared by every handler built here, so SetLevel reaches
// loggers that were created before the change.
var level = new(slog.LevelVar)

// SetLevel changes the process-wide level. An unknown name leaves the
// current level in place.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// GetLevel reports the process-wide level by name.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

type scoped struct {
	sl  *slog.Logger
	ctx context.Context
}

// New builds a Logger. Sensitive attributes are redacted by the handler.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	h, err := buildHandler(cfg)
	if err != nil {
		return nil, err
	}
	level.Set(lvl)

	sl := slog.New(h)
	if cfg.Service != "" {
		sl = sl.With("service", cfg.Service)
	}
	return &scoped{sl: sl, ctx: context.Background()}, nil
}

func buildHandler(cfg Config) (slog.Handler, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		return slog.NewJSONHandler(out, opts), nil
	case "text", "console":
		return slog.NewTextHandler(out, opts), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// Slog exposes the *slog.Logger behind l for components that take one.
// Foreign Logger implementations get a logger that discards.
func Slog(l Logger) *slog.Logger {
	if s, ok := l.(*scoped); ok {
		return s.sl
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *scoped) Debug(msg string, args ...any) { s.sl.DebugContext(s.ctx, msg, args...) }
func (s *scoped) Info(msg string, args ...any)  { s.sl.InfoContext(s.ctx, msg, args...) }
func (s *scoped) Warn(msg string, args ...any)  { s.sl.WarnContext(s.ctx, msg, args...) }
func (s *scoped) Error(msg string, args ...any) { s.sl.ErrorContext(s.ctx, msg, args...) }

func (s *scoped) With(args ...any) Logger {
	return &scoped{sl: s.sl.With(args...), ctx: s.ctx}
}

func (s *scoped) WithContext(ctx context.Context) Logger {
	return &scoped{sl: s.sl, ctx: ctx}
}

var std atomic.Pointer[scoped]

func init() {
	l, _ := New(DefaultConfig())
	std.Store(l.(*scoped))
}

// SetDefault replaces the package default and slog's default with l.
func SetDefault(l Logger) {
	s, ok := l.(*scoped)
	if !ok {
		return
	}
	std.Store(s)
	slog.SetDefault(s.sl)
}

// Default returns the package default logger.
func Default() Logger { return std.Load() }

// Info logs through the package default logger.
func Info(msg string, args ...any) { std.Load().Info(msg, args...) }

// Error logs through the package default logger.
func Error(msg string, args ...any) { std.Load().Error(msg, args...) }
