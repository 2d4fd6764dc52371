package security

import (
	"fmt"

	"github.com/dmitrymomot/mongoconnect/pkg/environment"
)

// Thresholds above which sizing options draw warnings. Values this large
// usually indicate a misunderstanding of per-instance pooling in serverless
// environments rather than a genuine need.
const (
	maxReasonablePoolSize   = 100
	maxReasonableConnecting = 16
)

// ConnectionOptions is the security-relevant subset of connection options.
// TLSEnabled is a tri-state: nil means "not explicitly set by the caller".
type ConnectionOptions struct {
	TLSEnabled               *bool
	TLSInsecure              bool
	TLSAllowInvalidHostnames bool
	MaxPoolSize              uint64
	MaxConnecting            uint64
}

// ValidateOptions validates connection options against security policy
// using the execution mode resolved from the environment.
func ValidateOptions(opts ConnectionOptions) ValidationResult {
	return ValidateOptionsInEnv(environment.FromEnv(), opts)
}

// ValidateOptionsInEnv is the pure form of ValidateOptions with an explicit
// execution mode. In production, explicitly disabling transport encryption
// or accepting invalid certificates or hostnames are hard errors. Oversized
// pool or connecting limits warn in every mode.
func ValidateOptionsInEnv(env environment.Environment, opts ConnectionOptions) ValidationResult {
	result := newResult()

	if env.IsProduction() {
		if opts.TLSEnabled != nil && !*opts.TLSEnabled {
			result.addError("transport encryption must not be disabled in production")
		}
		if opts.TLSInsecure {
			result.addError("accepting invalid certificates is not permitted in production")
		}
		if opts.TLSAllowInvalidHostnames {
			result.addError("accepting invalid certificate hostnames is not permitted in production")
		}
	}

	if opts.MaxPoolSize > maxReasonablePoolSize {
		result.addWarning(fmt.Sprintf("pool size %d exceeds %d; serverless instances rarely need more than a handful of connections",
			opts.MaxPoolSize, maxReasonablePoolSize))
	}
	if opts.MaxConnecting > maxReasonableConnecting {
		result.addWarning(fmt.Sprintf("max connecting %d exceeds %d; large values amplify connection storms",
			opts.MaxConnecting, maxReasonableConnecting))
	}

	return result
}
