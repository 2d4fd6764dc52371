package connector

import "context"

// HandleEvent identifies an asynchronous notification from a live handle.
type HandleEvent string

const (
	// HandleEventError fires when the driver reports a connection error.
	HandleEventError HandleEvent = "error"
	// HandleEventDisconnected fires when the driver loses the connection.
	HandleEventDisconnected HandleEvent = "disconnected"
	// HandleEventReconnected fires when the driver re-establishes a lost
	// connection on its own.
	HandleEventReconnected HandleEvent = "reconnected"
)

// HandleListener receives asynchronous handle events. The error argument is
// non-nil only for HandleEventError.
type HandleListener func(event HandleEvent, err error)

// Driver dials connections. It is the seam between the manager and the
// underlying database driver; tests substitute an in-memory implementation.
type Driver interface {
	// Connect establishes a connection to the target. Implementations must
	// return only once the connection is usable or an error occurred.
	Connect(ctx context.Context, target string, opts Options) (Handle, error)
}

// Handle is a live connection owned by a connection record.
type Handle interface {
	// ReadyState reports the driver-level readiness code.
	ReadyState() ReadyState
	// Host is the resolved host of the live connection.
	Host() string
	// DatabaseName is the database the connection is bound to.
	DatabaseName() string
	// Subscribe registers a listener for asynchronous connection events.
	Subscribe(listener HandleListener)
	// Ping issues an administrative no-op probe against the database.
	Ping(ctx context.Context) error
	// Close tears the connection down. Close is best-effort; callers
	// treat failures as diagnostics, not as state.
	Close(ctx context.Context) error
}
