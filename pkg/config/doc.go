// Package config loads typed configuration from environment variables and
// optional .env files.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - LoadEnvironment loads `.env.<environment>` and then `.env` from the
//     working directory, silently skipping files that do not exist. Values
//     already present in the process environment always win.
//   - LoadEnv loads an explicit list of files and fails if any is missing.
//   - Load parses the environment into any tagged struct and caches the result
//     per type, so every command resolves its settings exactly once.
//
// # Usage
//
//	type StripeConfig struct {
//		SecretKey string `env:"STRIPE_SECRET_KEY,required"`
//	}
//
//	if err := config.LoadEnvironment("staging"); err != nil {
//		return err
//	}
//
//	var cfg StripeConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Tests that change environment variables between cases call Reset to drop
// cached values.
package config
