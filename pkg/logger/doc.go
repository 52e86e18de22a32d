// Package logger builds *slog.Logger instances for the catalogsync commands.
//
// New returns a logger whose handler is wrapped by a decorator that pulls
// attributes out of the context on every call. Two extractors ship with the
// package: RunExtractor adds the run id and command name attached with
// WithRun, and any ContextExtractor can be registered through
// WithContextExtractors.
//
// Typical setup:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "catalogsync"),
//		logger.WithContextExtractors(logger.RunExtractor(), environment.LoggerExtractor()),
//	)
//	ctx = logger.WithRun(ctx, "sync")
//	log.InfoContext(ctx, "starting")
//
// The attribute helpers (Error, Errors, Group, Count) keep key names
// consistent across packages.
package logger
