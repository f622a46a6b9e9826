package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests.
// Output is discarded unless SPECVIZ_TEST_DEBUG is set, which enables debug
// logging on stdout.
func NewTestLogger() *slog.Logger {
	if os.Getenv("SPECVIZ_TEST_DEBUG") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
