package config

import (
	"errors"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = make(map[reflect.Type]any)
)

// Load parses environment variables into the provided configuration struct.
// Each configuration type is parsed once per process; later calls return the
// cached copy. A failed parse is not cached.
//
// Example:
//
//	type DatabaseConfig struct {
//		URL string `env:"PG_CONN_URL,required"`
//	}
//
//	var db DatabaseConfig
//	if err := config.Load(&db); err != nil {
//		// Handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	key := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	var fresh T
	if err := env.Parse(&fresh); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = fresh
	*v = fresh
	return nil
}

// LoadEnv loads the given .env files into the process environment.
// Files are applied in order and never override variables that are already set.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// LoadEnvironment loads `.env.<environment>` followed by `.env`.
// Missing files are skipped: the process environment alone is a valid source.
func LoadEnvironment(environment string) error {
	candidates := []string{".env"}
	if environment != "" {
		candidates = append([]string{".env." + environment}, candidates...)
	}

	existing := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			existing = append(existing, name)
		}
	}

	return LoadEnv(existing...)
}

// Reset drops every cached configuration value.
func Reset() {
	mu.Lock()
	clear(cache)
	mu.Unlock()
}
