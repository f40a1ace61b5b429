// Package logging provides component loggers over log/slog.
//
// Component loggers resolve slog.Default() on every call, so commands can
// reconfigure output after packages have created their loggers:
//
//	var logger = logging.Logger("network")
//	logger.Info("run complete", "scenario", s)
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// A ComponentLogger tags every record with the component that emitted it.
type ComponentLogger struct {
	component string
}

// Logger returns a ComponentLogger for the named component.
func Logger(component string) *ComponentLogger {
	return &ComponentLogger{component: component}
}

func (l *ComponentLogger) base() *slog.Logger {
	return slog.Default().With("component", l.component)
}

// Debug logs at debug level.
func (l *ComponentLogger) Debug(msg string, args ...any) {
	l.base().Debug(msg, args...)
}

// Info logs at info level.
func (l *ComponentLogger) Info(msg string, args ...any) {
	l.base().Info(msg, args...)
}

// Warn logs at warn level.
func (l *ComponentLogger) Warn(msg string, args ...any) {
	l.base().Warn(msg, args...)
}

// Error logs at error level.
func (l *ComponentLogger) Error(msg string, args ...any) {
	l.base().Error(msg, args...)
}

// InfoContext logs at info level with ctx.
func (l *ComponentLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.base().InfoContext(ctx, msg, args...)
}

// WarnContext logs at warn level with ctx.
func (l *ComponentLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.base().WarnContext(ctx, msg, args...)
}

// With returns a logger carrying the component tag plus args.
func (l *ComponentLogger) With(args ...any) *slog.Logger {
	return l.base().With(args...)
}

// ParseLevel parses a level name: debug, info, warn (or warning), error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
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

// Setup installs a default logger writing to w at the named level, as JSON
// when json is set and as text otherwise.
func Setup(w io.Writer, level string, json bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
