package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/environment"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatJSON))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text is the default", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("static attributes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithFormat(logger.FormatJSON),
			logger.WithAttr(slog.String("svc", "test")),
		)
		log.Info("hello")
		assert.Equal(t, "test", decode(t, buf)["svc"])
	})

	t.Run("level filters records", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid format panics", func(t *testing.T) {
		assert.Panics(t, func() {
			logger.New(logger.WithFormat("xml"))
		})
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Run("production logs json at info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithEnvironment(environment.Production, "catalogsync"),
		)
		log.Debug("hidden")
		assert.Empty(t, buf.String())

		log.Info("visible")
		entry := decode(t, buf)
		assert.Equal(t, "catalogsync", entry["service"])
	})

	t.Run("development logs text at debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithEnvironment(environment.Development, "catalogsync"),
		)
		log.Debug("shown")
		assert.Contains(t, buf.String(), "msg=shown")
		assert.Contains(t, buf.String(), "service=catalogsync")
	})

	t.Run("explicit format overrides environment", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithEnvironment(environment.Development, ""),
			logger.WithFormat(logger.FormatJSON),
		)
		log.Info("hello")
		assert.Equal(t, "hello", decode(t, buf)["msg"])
	})
}

func TestRunExtractor(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithFormat(logger.FormatJSON),
		logger.WithContextExtractors(logger.RunExtractor(), environment.LoggerExtractor()),
	)

	ctx := logger.WithRun(context.Background(), "sync")
	ctx = environment.WithContext(ctx, environment.Staging)
	log.InfoContext(ctx, "step")

	run, ok := logger.RunFromContext(ctx)
	require.True(t, ok)
	require.NotEmpty(t, run.ID)

	entry := decode(t, buf)
	assert.Equal(t, run.ID, entry["run_id"])
	assert.Equal(t, "sync", entry["command"])
	assert.Equal(t, "staging", entry["env"])
}

func TestWithContextValue(t *testing.T) {
	type key struct{}
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithFormat(logger.FormatJSON),
		logger.WithContextValue("tenant", key{}),
	)

	log.InfoContext(context.WithValue(context.Background(), key{}, "acme"), "hello")
	assert.Equal(t, "acme", decode(t, buf)["tenant"])
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, logger.FormatJSON, logger.ParseFormat("JSON"))
	assert.Equal(t, logger.FormatText, logger.ParseFormat("anything"))
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("nope"))
}

func TestAttrHelpers(t *testing.T) {
	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("x")).Key)
	assert.Equal(t, slog.Attr{}, logger.Errors(nil, nil))

	attr := logger.Errors(nil, errors.New("a"), errors.New("b"))
	assert.Equal(t, "errors", attr.Key)
	assert.Len(t, attr.Value.Group(), 2)

	g := logger.Group("plan", logger.PlanID("basic"), logger.RemoteID("prod_1"))
	assert.Equal(t, "plan", g.Key)
	assert.Len(t, g.Value.Group(), 2)
}
