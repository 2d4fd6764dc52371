package connector

import (
	"time"

	"github.com/dmitrymomot/mongoconnect/pkg/environment"
	"github.com/dmitrymomot/mongoconnect/pkg/security"
)

// Default values layered under caller-supplied options.
const (
	DefaultName              = "default"
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = 5 * time.Second
	DefaultConnectionTimeout = 30 * time.Second
	DefaultMaxPoolSize       = 10
	DefaultHeartbeatInterval = 30 * time.Second
)

// Options configures a single named connection. The zero value is usable:
// secure defaults are layered underneath, with caller-set values winning.
type Options struct {
	// Name is the cache key for this connection. Defaults to "default".
	Name string

	// AllowedHosts restricts which hosts the target may name. Entries are
	// exact hostnames or "*.domain" wildcards matching strict subdomains.
	// Empty means no host restriction.
	AllowedHosts []string

	// TLSEnabled controls transport encryption. Nil means "use the secure
	// default" (enabled). Outside development mode the effective value is
	// always true; disabling TLS in production fails validation outright.
	TLSEnabled *bool
	// TLSInsecure accepts invalid server certificates. Development only.
	TLSInsecure bool
	// TLSAllowInvalidHostnames accepts certificate hostname mismatches.
	// Development only.
	TLSAllowInvalidHostnames bool

	MaxPoolSize   uint64
	MinPoolSize   uint64
	MaxConnecting uint64

	// ConnectTimeout bounds the driver's dial of a single server.
	ConnectTimeout time.Duration
	// ServerSelectionTimeout bounds topology server selection.
	ServerSelectionTimeout time.Duration
	// OperationTimeout bounds individual driver operations.
	OperationTimeout time.Duration
	MaxConnIdleTime  time.Duration
	// HeartbeatInterval is the periodic liveness probing cadence.
	HeartbeatInterval time.Duration

	// RetryWrites and RetryReads enable driver-level operation retries.
	// Nil means enabled.
	RetryWrites *bool
	RetryReads  *bool

	// MaxRetries is the number of establishment attempts before giving up.
	MaxRetries int
	// RetryDelay is the fixed pause between establishment attempts.
	RetryDelay time.Duration
	// ConnectionTimeout bounds each attempt's wait for a ready connection.
	ConnectionTimeout time.Duration

	// Lifecycle callbacks. Each is invoked with panic isolation: a
	// misbehaving callback is logged and never destabilizes the lifecycle.
	OnConnect    func(handle Handle)
	OnDisconnect func(name string)
	OnError      func(name string, err error)
}

// withDefaults returns a copy of o with secure defaults layered under the
// caller's values. In development mode the TLS flags honor the caller's
// explicit choice; in any other mode they are forced to the secure setting.
func (o Options) withDefaults(env environment.Environment) Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.ConnectionTimeout <= 0 {
		o.ConnectionTimeout = DefaultConnectionTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectionTimeout
	}
	if o.ServerSelectionTimeout <= 0 {
		o.ServerSelectionTimeout = DefaultConnectionTimeout
	}
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = DefaultMaxPoolSize
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.RetryWrites == nil {
		o.RetryWrites = ptr(true)
	}
	if o.RetryReads == nil {
		o.RetryReads = ptr(true)
	}

	if env.IsDevelopment() {
		if o.TLSEnabled == nil {
			o.TLSEnabled = ptr(true)
		}
	} else {
		o.TLSEnabled = ptr(true)
		o.TLSInsecure = false
		o.TLSAllowInvalidHostnames = false
	}

	return o
}

// securityView projects the security-relevant subset of the options.
func (o Options) securityView() security.ConnectionOptions {
	return security.ConnectionOptions{
		TLSEnabled:               o.TLSEnabled,
		TLSInsecure:              o.TLSInsecure,
		TLSAllowInvalidHostnames: o.TLSAllowInvalidHostnames,
		MaxPoolSize:              o.MaxPoolSize,
		MaxConnecting:            o.MaxConnecting,
	}
}

func ptr[T any](v T) *T { return &v }
