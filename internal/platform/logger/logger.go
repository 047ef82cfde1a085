package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output keeps log aggregation simple;
// services receive this via injection rather than the slog default so tests
// can swap in a discard handler.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// NewDiscard returns a logger that drops everything. For tests.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
