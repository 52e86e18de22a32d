// Package environment models the deployment environment a command runs
// against (test, development, staging, production).
//
// Parse accepts the canonical names as well as the short aliases operators
// tend to type (dev, stage, prod). The value can be attached to a
// context.Context with WithContext and read back with FromContext, and
// LoggerExtractor turns it into a slog attribute for the logger package.
//
// # Usage
//
//	env, err := environment.Parse(os.Getenv("APP_ENV"))
//	if err != nil {
//		return err
//	}
//	ctx = environment.WithContext(ctx, env)
//
//	if environment.IsProduction(ctx) {
//		// require explicit confirmation for destructive commands
//	}
//
// An empty name parses as Development. FromContext returns the empty
// Environment when the context carries none, and LoggerExtractor then adds
// no attribute.
package environment
