package environment

import (
	"context"
	"os"
)

// Environment represents the execution mode of the application.
type Environment string

const (
	// Development for local development, relaxed security defaults.
	Development Environment = "development"
	// Staging for pre-production environments.
	Staging Environment = "staging"
	// Production for production, strict security defaults.
	Production Environment = "production"
)

// envVars lists the conventional variable names checked by FromEnv,
// in priority order.
var envVars = []string{"APP_ENV", "GO_ENV", "NODE_ENV"}

// FromEnv resolves the execution mode from conventional environment
// variables. Unset or unrecognized values resolve to Development so that
// local runs never accidentally enforce production policy.
func FromEnv() Environment {
	for _, name := range envVars {
		switch os.Getenv(name) {
		case "production", "prod":
			return Production
		case "staging", "stage":
			return Staging
		case "development", "dev":
			return Development
		}
	}
	return Development
}

// IsProduction reports whether e is the production mode.
func (e Environment) IsProduction() bool {
	return e == Production || e == "prod"
}

// IsDevelopment reports whether e is the development mode.
func (e Environment) IsDevelopment() bool {
	return e == Development || e == "dev" || e == ""
}

type contextKey struct{}

// WithContext attaches the environment to a context.
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext retrieves the environment attached to the context via
// WithContext and reports whether one was present. Callers decide their own
// fallback, typically a mode fixed at construction time.
func FromContext(ctx context.Context) (Environment, bool) {
	if ctx == nil {
		return "", false
	}
	env, ok := ctx.Value(contextKey{}).(Environment)
	return env, ok
}
