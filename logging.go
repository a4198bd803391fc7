package treeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// NewLogger creates the structured logger used across the pipeline, writing
// human-readable console output to w (stderr when nil).
func NewLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

// NewFileLogger creates a logger writing JSON lines to w, for the per-day
// log files under the data directory.
func NewFileLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// WithLogger stores the logger in the context so every stage of a sync run
// logs through the same instance.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger retrieves the context logger, or a disabled one when the context
// carries none (library callers that do not care about logs).
func Logger(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}
