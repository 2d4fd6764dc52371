package connector

import (
	"time"

	"github.com/dmitrymomot/mongoconnect/pkg/config"
)

// Config is the environment-sourced connection configuration. The target
// is read from the first non-empty of several conventional variable names.
type Config struct {
	MongoDBURI        string        `env:"MONGODB_URI"`                               // MongoDBURI is the preferred target variable.
	MongoDBURL        string        `env:"MONGODB_URL"`                               // MongoDBURL is checked when MONGODB_URI is unset.
	DatabaseURL       string        `env:"DATABASE_URL"`                              // DatabaseURL is the generic fallback.
	MaxRetries        int           `env:"MONGODB_MAX_RETRIES" envDefault:"3"`        // MaxRetries is the number of establishment attempts.
	RetryDelay        time.Duration `env:"MONGODB_RETRY_DELAY" envDefault:"5s"`       // RetryDelay is the fixed pause between attempts.
	ConnectionTimeout time.Duration `env:"MONGODB_CONNECTION_TIMEOUT" envDefault:"30s"` // ConnectionTimeout bounds each attempt.
}

// Target returns the connection target, preferring MONGODB_URI, then
// MONGODB_URL, then DATABASE_URL. Empty when none is set.
func (c Config) Target() string {
	switch {
	case c.MongoDBURI != "":
		return c.MongoDBURI
	case c.MongoDBURL != "":
		return c.MongoDBURL
	default:
		return c.DatabaseURL
	}
}

// targetFromEnv resolves the default connection target from the
// environment. Returns empty when no conventional variable is set.
func targetFromEnv() string {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return ""
	}
	return cfg.Target()
}
