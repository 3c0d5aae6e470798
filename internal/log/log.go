// Package log wires structured logging for genaiprobe.
package log

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/samber/lo"
)

type contextKey struct{}

var discardLogger = New(io.Discard, false)

// New returns a text logger that omits timestamps. Verbose lowers the level
// to debug so that logr V(1) traces are emitted.
func New(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lo.Ternary[slog.Leveler](verbose, slog.LevelDebug, slog.LevelInfo),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return lo.Ternary(a.Key == slog.TimeKey, slog.Attr{}, a)
		},
	}))
}

// NewContext stores logger in ctx, both as a *slog.Logger and as a
// logr.Logger for packages that log through logr.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, contextKey{}, logger)
	return logr.NewContext(ctx, logr.FromSlogHandler(logger.Handler()))
}

func FromContextOrDiscard(ctx context.Context) *slog.Logger {
	if v, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return v
	}
	return discardLogger
}
