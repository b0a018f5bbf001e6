package main

import (
	"context"
	"log/slog"

	"github.com/archicontribs/modelrepo/pkg/status"
)

// statusLogHandler returns a status.Handler that logs updates using slog
func statusLogHandler() status.Handler {
	return func(update status.Update) {
		slog.Log(context.Background(), levelFor(update.Level), messageFor(update.Level), statusAttrs(update)...)
	}
}

func statusAttrs(update status.Update) []any {
	attrs := []any{"message", update.Message}

	if update.Repository != "" {
		attrs = append(attrs, "repository", update.Repository)
	}
	if update.Operation != "" {
		attrs = append(attrs, "operation", update.Operation)
	}
	if update.Level == status.LevelProgress {
		attrs = append(attrs, "cancellable", update.Cancellable)
	}

	for key, value := range update.Metadata {
		attrs = append(attrs, key, value)
	}
	return attrs
}

func levelFor(level status.Level) slog.Level {
	switch level {
	case status.LevelWarning:
		return slog.LevelWarn
	case status.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func messageFor(level status.Level) string {
	switch level {
	case status.LevelProgress:
		return "Progress"
	case status.LevelSuccess:
		return "Success"
	case status.LevelWarning:
		return "Warning"
	case status.LevelError:
		return "Error"
	default:
		return "Status"
	}
}
