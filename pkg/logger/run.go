package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type runKey struct{}

// Run identifies a single CLI invocation.
type Run struct {
	ID      string
	Command string
}

// WithRun attaches a fresh run id and the command name to ctx.
func WithRun(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, runKey{}, Run{ID: uuid.NewString(), Command: command})
}

// RunFromContext returns the run attached by WithRun.
func RunFromContext(ctx context.Context) (Run, bool) {
	r, ok := ctx.Value(runKey{}).(Run)
	return r, ok
}

// RunExtractor adds run_id and command to every record logged with a run context.
func RunExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		r, ok := RunFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		// Empty group key inlines the attrs.
		return slog.Attr{Key: "", Value: slog.GroupValue(
			slog.String("run_id", r.ID),
			slog.String("command", r.Command),
		)}, true
	}
}
