package connector

import (
	"log/slog"
	"time"
)

// listenerFor builds the handle listener that keeps a record synchronized
// with driver-initiated events. These transitions are asynchronous to any
// caller: the record must reflect them whether or not anyone is awaiting it.
func (m *Manager) listenerFor(rec *record) HandleListener {
	return func(event HandleEvent, err error) {
		m.mu.Lock()
		cur, ok := m.cache[rec.name]
		if !ok || cur != rec {
			// The record was closed or replaced; its events are stale.
			m.mu.Unlock()
			return
		}

		opts := rec.opts
		var callback func()
		applied := false

		switch event {
		case HandleEventError:
			if applied = rec.setState(StateError); applied {
				rec.lastError = err
			}
			if opts.OnError != nil {
				eventErr := err
				callback = func() { opts.OnError(rec.name, eventErr) }
			}
		case HandleEventDisconnected:
			if applied = rec.setState(StateDisconnected); applied {
				rec.connectedAt = time.Time{}
			}
			if opts.OnDisconnect != nil {
				callback = func() { opts.OnDisconnect(rec.name) }
			}
		case HandleEventReconnected:
			if applied = rec.setState(StateConnected); applied {
				rec.connectedAt = time.Now()
				rec.lastError = nil
			}
			if opts.OnConnect != nil {
				handle := rec.handle
				callback = func() { opts.OnConnect(handle) }
			}
		default:
			m.mu.Unlock()
			return
		}

		from := rec.state
		m.mu.Unlock()

		if !applied {
			m.log.Debug("dropping illegal state transition",
				slog.String("connection", rec.name),
				slog.String("event", string(event)),
				slog.String("state", from.String()))
			return
		}
		m.log.Info("connection state changed",
			slog.String("connection", rec.name),
			slog.String("event", string(event)),
			slog.String("state", from.String()))

		if callback != nil {
			m.safeInvoke(rec.name, string(event), callback)
		}
	}
}

// safeInvoke runs a lifecycle callback with panic isolation. A misbehaving
// observer must not destabilize the connection lifecycle, so failures are
// logged and swallowed.
func (m *Manager) safeInvoke(name, hook string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("connection callback panicked",
				slog.String("connection", name),
				slog.String("callback", hook),
				slog.Any("panic", r))
		}
	}()
	fn()
}
