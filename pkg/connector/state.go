package connector

// State is the lifecycle state of a cached connection record.
type State string

const (
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateDisconnecting State = "disconnecting"
	StateDisconnected  State = "disconnected"
	StateError         State = "error"
)

func (s State) String() string {
	return string(s)
}

// transitions is the legality table for record state changes. Transitions
// originate either from caller-driven operations (connect, close) or from
// asynchronous driver events (error, disconnected, reconnected); both
// sources go through the same table.
var transitions = map[State]map[State]bool{
	StateConnecting: {
		StateConnected:     true,
		StateError:         true,
		StateDisconnecting: true,
	},
	StateConnected: {
		StateConnecting:    true, // driver-initiated reconnection in progress
		StateDisconnected:  true,
		StateError:         true,
		StateDisconnecting: true,
	},
	StateDisconnected: {
		StateConnected:     true, // driver reconnected
		StateConnecting:    true,
		StateError:         true,
		StateDisconnecting: true,
	},
	StateError: {
		StateConnected:     true, // recovered via reconnection event
		StateConnecting:    true,
		StateDisconnected:  true,
		StateDisconnecting: true,
	},
	StateDisconnecting: {
		StateDisconnected: true,
	},
}

// canTransition reports whether moving from one state to another is legal.
func canTransition(from, to State) bool {
	return transitions[from][to]
}

// ReadyState mirrors the driver-level readiness code of a live handle.
type ReadyState int

const (
	ReadyStateDisconnected  ReadyState = 0
	ReadyStateConnected     ReadyState = 1
	ReadyStateConnecting    ReadyState = 2
	ReadyStateDisconnecting ReadyState = 3
)

func (r ReadyState) String() string {
	switch r {
	case ReadyStateDisconnected:
		return "disconnected"
	case ReadyStateConnected:
		return "connected"
	case ReadyStateConnecting:
		return "connecting"
	case ReadyStateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}
