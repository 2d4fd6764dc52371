package connector

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HealthCheck is the result of probing one connection.
type HealthCheck struct {
	Healthy   bool
	Latency   time.Duration
	Error     string
	CheckedAt time.Time
}

// PoolStats is a point-in-time tally over the connection cache.
type PoolStats struct {
	TotalConnections  int
	ActiveConnections int
	ConnectingCount   int
	ErrorCount        int
	ConnectionNames   []string
}

// HealthCheck probes the named connection with an administrative no-op and
// reports the measured latency. An unknown name reports unhealthy with the
// currently known connection names as a diagnostic aid; an unready handle
// reports unhealthy without issuing the probe.
func (m *Manager) HealthCheck(ctx context.Context, name string) HealthCheck {
	result := HealthCheck{CheckedAt: time.Now()}

	m.mu.RLock()
	rec, ok := m.cache[name]
	var handle Handle
	if ok {
		handle = rec.handle
	}
	known := m.connectionNamesLocked()
	m.mu.RUnlock()

	if !ok {
		list := "none"
		if len(known) > 0 {
			list = strings.Join(known, ", ")
		}
		result.Error = fmt.Sprintf("no connection named %q; known connections: %s", name, list)
		return result
	}
	if handle == nil || handle.ReadyState() != ReadyStateConnected {
		// Probing a non-ready handle would issue operations against a
		// connection that cannot serve them.
		result.Error = fmt.Sprintf("connection %q is not ready", name)
		return result
	}

	start := time.Now()
	if err := handle.Ping(ctx); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Healthy = true
	result.Latency = time.Since(start)
	return result
}

// BatchHealthCheck probes the given connections, defaulting to every cached
// connection when no names are passed.
func (m *Manager) BatchHealthCheck(ctx context.Context, names ...string) map[string]HealthCheck {
	if len(names) == 0 {
		names = m.connectionNames()
	}
	results := make(map[string]HealthCheck, len(names))
	for _, name := range names {
		results[name] = m.HealthCheck(ctx, name)
	}
	return results
}

// GetPoolStats tallies the cache without side effects.
func (m *Manager) GetPoolStats() PoolStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := PoolStats{
		TotalConnections: len(m.cache),
		ConnectionNames:  m.connectionNamesLocked(),
	}
	for _, rec := range m.cache {
		if rec.handle != nil && rec.handle.ReadyState() == ReadyStateConnected {
			stats.ActiveConnections++
		}
		switch rec.state {
		case StateConnecting:
			stats.ConnectingCount++
		case StateError:
			stats.ErrorCount++
		}
	}
	return stats
}
