package connector

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mongoconnect/pkg/async"
)

// record tracks one named connection through its lifecycle. All fields are
// guarded by the manager's mutex; the record itself is the single source of
// truth for the connection's state, whether the transition came from a
// caller or from an asynchronous driver event.
type record struct {
	name  string
	id    uuid.UUID
	state State

	handle        Handle
	establishment *async.Future[Handle]

	connectedAt  time.Time
	host         string
	databaseName string
	lastError    error
	retryCount   int
	opts         Options

	// stateChanged is closed and replaced on every state transition so
	// waiters can race an event subscription against their polling loop.
	stateChanged chan struct{}
}

func newRecord(name string, opts Options) *record {
	return &record{
		name:         name,
		id:           uuid.New(),
		state:        StateConnecting,
		opts:         opts,
		stateChanged: make(chan struct{}),
	}
}

// setState applies a transition, returning false when the legality table
// forbids it. Callers hold the manager lock.
func (r *record) setState(to State) bool {
	if r.state == to {
		return true
	}
	if !canTransition(r.state, to) {
		return false
	}
	r.state = to
	close(r.stateChanged)
	r.stateChanged = make(chan struct{})
	return true
}

// ConnectionInfo is a point-in-time snapshot of a record for callers.
type ConnectionInfo struct {
	Name        string
	ID          uuid.UUID
	State       State
	Host        string
	Database    string
	ConnectedAt time.Time
	RetryCount  int
	LastError   string
}

// info builds a snapshot. Callers hold the manager lock (read or write).
func (r *record) info() *ConnectionInfo {
	ci := &ConnectionInfo{
		Name:        r.name,
		ID:          r.id,
		State:       r.state,
		Host:        r.host,
		Database:    r.databaseName,
		ConnectedAt: r.connectedAt,
		RetryCount:  r.retryCount,
	}
	if r.lastError != nil {
		ci.LastError = r.lastError.Error()
	}
	return ci
}
