package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/config"
)

type defaultsConfig struct {
	Provider string `env:"CFG_TEST_PROVIDER" envDefault:"stripe"`
	PageSize int    `env:"CFG_TEST_PAGE_SIZE" envDefault:"100"`
	Verbose  bool   `env:"CFG_TEST_VERBOSE" envDefault:"true"`
}

type overrideConfig struct {
	Provider string `env:"CFG_TEST_OVERRIDE_PROVIDER" envDefault:"stripe"`
}

type requiredConfig struct {
	Key string `env:"CFG_TEST_REQUIRED_KEY,required"`
}

type envFileConfig struct {
	Owner string `env:"CFG_TEST_OWNER"`
	Scope string `env:"CFG_TEST_SCOPE"`
}

func TestLoad_DefaultValues(t *testing.T) {
	config.Reset()
	os.Unsetenv("CFG_TEST_PROVIDER")
	os.Unsetenv("CFG_TEST_PAGE_SIZE")
	os.Unsetenv("CFG_TEST_VERBOSE")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "stripe", cfg.Provider)
	assert.Equal(t, 100, cfg.PageSize)
	assert.True(t, cfg.Verbose)
}

func TestLoad_CachesPerType(t *testing.T) {
	config.Reset()
	t.Setenv("CFG_TEST_OVERRIDE_PROVIDER", "paddle")

	var first overrideConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "paddle", first.Provider)

	t.Setenv("CFG_TEST_OVERRIDE_PROVIDER", "stripe")

	var second overrideConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "paddle", second.Provider, "cached value should be returned")

	config.Reset()

	var third overrideConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "stripe", third.Provider, "reset should force a fresh parse")
}

func TestLoad_MissingRequired(t *testing.T) {
	config.Reset()
	os.Unsetenv("CFG_TEST_REQUIRED_KEY")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("CFG_TEST_REQUIRED_KEY", "sk_test_123")

	require.NoError(t, config.Load(&cfg), "a failed parse must not poison the cache")
	assert.Equal(t, "sk_test_123", cfg.Key)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestLoadEnvironment(t *testing.T) {
	config.Reset()
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(".env.staging", []byte("CFG_TEST_OWNER=staging-owner\n"), 0o600))
	require.NoError(t, os.WriteFile(".env", []byte("CFG_TEST_OWNER=base-owner\nCFG_TEST_SCOPE=base\n"), 0o600))

	// godotenv never overrides, so make sure the keys start unset and are cleaned up.
	t.Setenv("CFG_TEST_OWNER", "")
	t.Setenv("CFG_TEST_SCOPE", "")
	os.Unsetenv("CFG_TEST_OWNER")
	os.Unsetenv("CFG_TEST_SCOPE")

	require.NoError(t, config.LoadEnvironment("staging"))

	var cfg envFileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "staging-owner", cfg.Owner, "environment specific file takes precedence")
	assert.Equal(t, "base", cfg.Scope)
}

func TestLoadEnvironment_NoFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, config.LoadEnvironment("production"))
}
