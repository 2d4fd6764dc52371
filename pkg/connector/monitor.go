package connector

import (
	"sync"
	"time"
)

// StateChange is invoked by the monitor when a connection's state differs
// from the last reported observation. The initial observation for a name is
// delivered with from == to; a removed record is delivered with to == "".
type StateChange func(name string, from, to State)

// Monitor is a running state monitor. Stop cancels it; Stop is idempotent.
type Monitor struct {
	stop chan struct{}
	once sync.Once
}

func (mo *Monitor) Stop() {
	mo.once.Do(func() { close(mo.stop) })
}

// StartMonitoring establishes a repeating timer that compares each record's
// state against the last reported state per name and invokes onChange only
// on change, plus once unconditionally at start-up so a first observation
// is always delivered. This is a cheap state comparison, not a network
// probe; use HealthCheck for liveness.
func (m *Manager) StartMonitoring(interval time.Duration, onChange StateChange) *Monitor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	mon := &Monitor{stop: make(chan struct{})}

	go func() {
		last := make(map[string]State)

		observe := func(initial bool) {
			current := m.snapshotStates()
			for name, state := range current {
				prev, seen := last[name]
				switch {
				case !seen:
					m.fireStateChange(onChange, name, state, state)
				case prev != state:
					m.fireStateChange(onChange, name, prev, state)
				case initial:
					m.fireStateChange(onChange, name, state, state)
				}
				last[name] = state
			}
			for name, prev := range last {
				if _, ok := current[name]; !ok {
					m.fireStateChange(onChange, name, prev, "")
					delete(last, name)
				}
			}
		}

		observe(true)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				observe(false)
			case <-mon.stop:
				return
			}
		}
	}()

	return mon
}

func (m *Manager) snapshotStates() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]State, len(m.cache))
	for name, rec := range m.cache {
		states[name] = rec.state
	}
	return states
}

func (m *Manager) fireStateChange(onChange StateChange, name string, from, to State) {
	if onChange == nil {
		return
	}
	m.safeInvoke(name, "onHealthChange", func() { onChange(name, from, to) })
}
