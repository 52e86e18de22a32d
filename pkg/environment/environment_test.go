package environment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/environment"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  environment.Environment
	}{
		{"test", environment.Test},
		{"dev", environment.Development},
		{"", environment.Development},
		{"Development", environment.Development},
		{"stage", environment.Staging},
		{" staging ", environment.Staging},
		{"prod", environment.Production},
		{"PRODUCTION", environment.Production},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := environment.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, err := environment.Parse("qa")
		assert.ErrorIs(t, err, environment.ErrUnknownEnvironment)
	})
}

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := environment.WithContext(context.Background(), environment.Production)
	assert.Equal(t, environment.Production, environment.FromContext(ctx))
	assert.True(t, environment.IsProduction(ctx))
	assert.False(t, environment.IsProduction(context.Background()))

	attr, ok := environment.LoggerExtractor()(ctx)
	require.True(t, ok)
	assert.Equal(t, "env", attr.Key)
	assert.Equal(t, "production", attr.Value.String())

	_, ok = environment.LoggerExtractor()(context.Background())
	assert.False(t, ok)
}
