package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const runIDContextKey contextKey = "run_id"

// NewRunID generates a unique identifier for one pipeline invocation.
func NewRunID() string {
	return uuid.New().String()
}

// ContextWithRunID returns a context carrying a fresh run ID.
func ContextWithRunID(ctx context.Context) context.Context {
	return context.WithValue(ctx, runIDContextKey, NewRunID())
}

// RunIDFromContext retrieves the run ID, or empty when absent.
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDContextKey).(string); ok {
		return runID
	}
	return ""
}

// LoggerWithContext returns the global logger bound to the context's
// run ID, when present.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if runID := RunIDFromContext(ctx); runID != "" {
		return logger.With("run_id", runID)
	}
	return logger
}
