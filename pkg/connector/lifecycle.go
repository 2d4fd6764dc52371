package connector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// CloseConnection closes the named connection and removes its record from
// the cache. Close is best-effort: errors from the underlying handle are
// logged, not returned, and the record is removed regardless.
func (m *Manager) CloseConnection(ctx context.Context, name string) error {
	m.mu.Lock()
	rec, ok := m.cache[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	rec.setState(StateDisconnecting)
	handle := rec.handle
	delete(m.cache, name)
	rec.setState(StateDisconnected)
	m.mu.Unlock()

	if handle != nil {
		if err := handle.Close(ctx); err != nil {
			m.log.Warn("error closing connection",
				slog.String("connection", name),
				slog.String("error", err.Error()))
		}
	}
	m.log.Info("connection closed", slog.String("connection", name))
	return nil
}

// CloseAllConnections closes every cached connection. The cache object
// itself survives, empty, ready for new connections.
func (m *Manager) CloseAllConnections(ctx context.Context) error {
	for _, name := range m.connectionNames() {
		if err := m.CloseConnection(ctx, name); err != nil {
			m.log.Warn("error closing connection during shutdown",
				slog.String("connection", name),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// Cleanup closes every connection and then discards the cache state
// entirely. The cache re-initializes implicitly on the next access.
func (m *Manager) Cleanup(ctx context.Context) error {
	if err := m.CloseAllConnections(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.cache = nil
	m.mu.Unlock()
	m.log.Info("connection cache discarded")
	return nil
}

// ResetState abruptly clears the cache and the shutdown-handler flag
// without closing any underlying handles. Intended for test isolation;
// callers needing graceful teardown use CloseAllConnections or Cleanup
// first.
func (m *Manager) ResetState() {
	m.mu.Lock()
	m.cache = nil
	m.shutdownRegistered = false
	if m.shutdownStop != nil {
		close(m.shutdownStop)
		m.shutdownStop = nil
	}
	m.mu.Unlock()
}

// registerShutdownHandlers installs process-level signal handlers that
// close every cached connection before the process exits. At most one
// registration per manager lifetime; ResetState re-arms it.
func (m *Manager) registerShutdownHandlers() {
	m.mu.Lock()
	if m.shutdownRegistered {
		m.mu.Unlock()
		return
	}
	m.shutdownRegistered = true
	stop := make(chan struct{})
	m.shutdownStop = stop
	m.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			m.log.Info("termination signal received, closing connections",
				slog.String("signal", sig.String()))
			_ = m.CloseAllConnections(context.Background())
			signal.Stop(sigCh)
			// Re-deliver so the default disposition terminates the process.
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Signal(sig)
			}
		case <-stop:
			signal.Stop(sigCh)
		}
	}()
}
