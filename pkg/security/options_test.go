package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongoconnect/pkg/environment"
	"github.com/dmitrymomot/mongoconnect/pkg/security"
)

func boolPtr(b bool) *bool { return &b }

func TestValidateOptions_ProductionTLSPolicy(t *testing.T) {
	t.Parallel()

	t.Run("disabling TLS is an error in production", func(t *testing.T) {
		t.Parallel()
		result := security.ValidateOptionsInEnv(environment.Production, security.ConnectionOptions{
			TLSEnabled: boolPtr(false),
		})
		require.False(t, result.Valid)
		assert.Contains(t, result.Errors[0], "encryption")
	})

	t.Run("same input is valid in development", func(t *testing.T) {
		t.Parallel()
		result := security.ValidateOptionsInEnv(environment.Development, security.ConnectionOptions{
			TLSEnabled: boolPtr(false),
		})
		assert.True(t, result.Valid)
	})

	t.Run("invalid certificates rejected in production", func(t *testing.T) {
		t.Parallel()
		result := security.ValidateOptionsInEnv(environment.Production, security.ConnectionOptions{
			TLSInsecure: true,
		})
		assert.False(t, result.Valid)
	})

	t.Run("invalid hostnames rejected in production", func(t *testing.T) {
		t.Parallel()
		result := security.ValidateOptionsInEnv(environment.Production, security.ConnectionOptions{
			TLSAllowInvalidHostnames: true,
		})
		assert.False(t, result.Valid)
	})

	t.Run("unset TLS flag is not an error", func(t *testing.T) {
		t.Parallel()
		result := security.ValidateOptionsInEnv(environment.Production, security.ConnectionOptions{})
		assert.True(t, result.Valid)
	})
}

func TestValidateOptions_SizingWarnings(t *testing.T) {
	t.Parallel()

	for _, env := range []environment.Environment{environment.Development, environment.Production} {
		result := security.ValidateOptionsInEnv(env, security.ConnectionOptions{
			MaxPoolSize:   500,
			MaxConnecting: 64,
		})
		assert.True(t, result.Valid, "oversized settings must warn, not error")
		assert.Len(t, result.Warnings, 2)
	}

	result := security.ValidateOptionsInEnv(environment.Production, security.ConnectionOptions{
		MaxPoolSize:   100,
		MaxConnecting: 16,
	})
	assert.Empty(t, result.Warnings)
}
