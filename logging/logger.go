// Package logging builds the structured slog logger shared by the server and
// the CLI.
//
// Output goes to stderr (text or JSON) and optionally to a log file, which is
// always JSON. Every entry carries the configured service name.
//
//	logger, closer, err := logging.New(logging.Config{Level: "info", Service: "clinicdash"})
//	defer closer.Close()
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string

	// Format is "text" or "json" for the stderr handler. Default: text.
	Format string

	// File, when set, receives a JSON copy of every entry. "~" expands to
	// the user's home directory. Parent directories are created.
	File string

	// Service is attached to every entry as the "service" attribute.
	Service string

	// Output overrides stderr. Used by tests.
	Output io.Writer
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a logger. The returned Closer releases the log file, if any,
// and is always non-nil.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nopCloser{}, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var primary slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		primary = slog.NewTextHandler(out, opts)
	case "json":
		primary = slog.NewJSONHandler(out, opts)
	default:
		return nil, nopCloser{}, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	handlers := []slog.Handler{primary}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		path := expandPath(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, nopCloser{}, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = fileCloser{f}
	}

	var h slog.Handler = primary
	if len(handlers) > 1 {
		h = &multiHandler{handlers: handlers}
	}

	logger := slog.New(h)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger, closer, nil
}

// ============================================================================
// HANDLERS
// ============================================================================

// multiHandler fans a record out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type fileCloser struct{ f *os.File }

func (c fileCloser) Close() error {
	if err := c.f.Sync(); err != nil {
		c.f.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := c.f.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
