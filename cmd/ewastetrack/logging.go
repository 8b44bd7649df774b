package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// levelRouter sends records below ERROR to one handler and the rest to
// another.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{min: lr.min, stdout: lr.stdout.WithAttrs(attrs), stderr: lr.stderr.WithAttrs(attrs)}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{min: lr.min, stdout: lr.stdout.WithGroup(name), stderr: lr.stderr.WithGroup(name)}
}

// logConfig selects where and how the service logs.
type logConfig struct {
	Path   string
	Level  string
	Format string
}

// newLogHandler builds the routing handler over out and errOut.
func newLogHandler(cfg logConfig, out, errOut io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	build := func(w io.Writer) slog.Handler {
		if strings.EqualFold(cfg.Format, "json") {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}
	return &levelRouter{min: opts.Level.Level(), stdout: build(out), stderr: build(errOut)}
}

// setupLogger installs the default logger. INFO and WARN go to stdout, ERROR
// to stderr, and with a path set everything is also appended to that file.
// The returned cleanup closes the file and may be nil.
func setupLogger(cfg logConfig) (func(), error) {
	var cleanup func()
	out, errOut := io.Writer(os.Stdout), io.Writer(os.Stderr)

	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out = io.MultiWriter(os.Stdout, f)
		errOut = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(newLogHandler(cfg, out, errOut)))
	return cleanup, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
