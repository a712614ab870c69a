package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-portal"
)

// slogLogger adapts slog to the printf style portal.Logger
type slogLogger struct {
	logger *slog.Logger
}

var _ portal.Logger = slogLogger{}

func newLogger(w io.Writer, level string) slogLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return slogLogger{logger: slog.New(handler).With("component", "portal")}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l slogLogger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l slogLogger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l slogLogger) Error(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l slogLogger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}
