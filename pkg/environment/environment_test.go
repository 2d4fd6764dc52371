package environment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mongoconnect/pkg/environment"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults to development", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		t.Setenv("GO_ENV", "")
		t.Setenv("NODE_ENV", "")
		assert.Equal(t, environment.Development, environment.FromEnv())
	})

	t.Run("reads APP_ENV first", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("NODE_ENV", "development")
		assert.Equal(t, environment.Production, environment.FromEnv())
	})

	t.Run("falls back to NODE_ENV", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		t.Setenv("GO_ENV", "")
		t.Setenv("NODE_ENV", "prod")
		assert.Equal(t, environment.Production, environment.FromEnv())
	})

	t.Run("short forms", func(t *testing.T) {
		t.Setenv("APP_ENV", "stage")
		assert.Equal(t, environment.Staging, environment.FromEnv())
	})

	t.Run("unrecognized value is development", func(t *testing.T) {
		t.Setenv("APP_ENV", "qa")
		t.Setenv("GO_ENV", "")
		t.Setenv("NODE_ENV", "")
		assert.Equal(t, environment.Development, environment.FromEnv())
	})
}

func TestModePredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, environment.Production.IsProduction())
	assert.True(t, environment.Environment("prod").IsProduction())
	assert.False(t, environment.Development.IsProduction())

	assert.True(t, environment.Development.IsDevelopment())
	assert.True(t, environment.Environment("").IsDevelopment())
	assert.False(t, environment.Staging.IsDevelopment())
}

func TestContextCarry(t *testing.T) {
	t.Parallel()

	ctx := environment.WithContext(context.Background(), environment.Production)
	env, ok := environment.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, environment.Production, env)

	_, ok = environment.FromContext(context.Background())
	assert.False(t, ok, "a bare context carries no mode")

	_, ok = environment.FromContext(nil) //nolint:staticcheck // nil safety contract
	assert.False(t, ok)
}
