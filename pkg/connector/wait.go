package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/mongoconnect/pkg/config"
)

// WaitForConnection blocks until the named connection is fully usable (the
// same dual check as IsConnected) or the timeout elapses. It races a
// periodic readiness poll against the record's state-change notifications,
// so it reacts to transitions immediately and converges even if a
// notification is missed. Waiting for a name that does not exist yet is
// allowed; the record may appear while waiting.
func (m *Manager) WaitForConnection(ctx context.Context, name string, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		m.mu.RLock()
		var changed chan struct{}
		connected := false
		if rec, ok := m.cache[name]; ok {
			connected = rec.state == StateConnected &&
				rec.handle != nil &&
				rec.handle.ReadyState() == ReadyStateConnected
			changed = rec.stateChanged
		}
		m.mu.RUnlock()

		if connected {
			return nil
		}

		// A nil changed channel blocks forever in the select, leaving the
		// poll ticker to discover a record that appears later.
		select {
		case <-ticker.C:
		case <-changed:
		case <-deadline.C:
			return fmt.Errorf("%w: connection %q not ready within %s", ErrTimeout, name, timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// GetConnectionWithTimeout waits for the named connection to become usable
// and returns its handle.
func (m *Manager) GetConnectionWithTimeout(ctx context.Context, name string, timeout time.Duration) (Handle, error) {
	if err := m.WaitForConnection(ctx, name, timeout); err != nil {
		return nil, err
	}
	return m.GetConnectionHandle(name)
}

// QuickConnect establishes a connection named name using the
// environment-sourced target and retry settings, layered with mode-aware
// secure defaults. Caller-set option values win over the environment.
func (m *Manager) QuickConnect(ctx context.Context, name string, opts Options) (Handle, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	opts.Name = name
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = cfg.RetryDelay
	}
	if opts.ConnectionTimeout <= 0 {
		opts.ConnectionTimeout = cfg.ConnectionTimeout
	}

	return m.Connect(ctx, cfg.Target(), opts)
}
