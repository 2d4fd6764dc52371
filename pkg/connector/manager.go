package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/mongoconnect/pkg/async"
	"github.com/dmitrymomot/mongoconnect/pkg/environment"
	"github.com/dmitrymomot/mongoconnect/pkg/logger"
	"github.com/dmitrymomot/mongoconnect/pkg/security"
)

// pollInterval is the cadence of readiness polling loops.
const pollInterval = 50 * time.Millisecond

// Manager owns a process-wide cache of named connections. It is safe for
// concurrent use; for a single name at most one establishment is ever in
// flight because the record is inserted into the cache before the first
// blocking call.
type Manager struct {
	mu    sync.RWMutex
	cache map[string]*record

	driver Driver
	log    *slog.Logger
	env    environment.Environment

	shutdownRegistered bool
	shutdownStop       chan struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDriver replaces the default mongo driver. Used by tests and by
// callers wrapping the driver with instrumentation.
func WithDriver(d Driver) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.driver = d
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithEnvironment pins the execution mode instead of resolving it from the
// environment.
func WithEnvironment(env environment.Environment) ManagerOption {
	return func(m *Manager) {
		m.env = env
	}
}

// New creates a connection manager. Without options it dials real MongoDB
// connections, logs through an environment-configured logger (LOG_LEVEL,
// LOG_FORMAT), and resolves the execution mode from the environment.
func New(opts ...ManagerOption) *Manager {
	m := &Manager{
		driver: NewMongoDriver(),
		log:    logger.NewFromEnv(),
		env:    environment.FromEnv(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// envFor resolves the execution mode for one call: a mode attached to the
// context wins over the manager's own.
func (m *Manager) envFor(ctx context.Context) environment.Environment {
	if env, ok := environment.FromContext(ctx); ok {
		return env
	}
	return m.env
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
)

// Default returns the process-wide manager. Warm serverless instances share
// it across invocations, which is the whole point: reuse the connection
// instead of opening a new one per request.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultMgr = New()
	})
	return defaultMgr
}

// Connect returns a live connection for opts.Name, establishing one if the
// cache has no record for that name. An empty target falls back to the
// environment-sourced default. The target and options are validated against
// security policy before any network attempt; validation failures cache
// nothing.
//
// Concurrent and repeated calls for the same name collapse onto one
// establishment: they all await the same task and resolve to the identical
// handle. A terminal establishment failure removes the record, so the next
// call retries from scratch.
//
// A context carrying an execution mode via environment.WithContext pins the
// security policy for this call; otherwise the manager's own mode applies.
func (m *Manager) Connect(ctx context.Context, target string, opts Options) (Handle, error) {
	if target == "" {
		target = targetFromEnv()
	}
	if target == "" {
		return nil, ErrTargetRequired
	}

	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	env := m.envFor(ctx)
	tr := security.ValidateTargetInEnv(env, target, opts.AllowedHosts...)
	m.logWarnings(name, tr.Warnings)
	if !tr.Valid {
		return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(tr.Errors, "; "))
	}
	or := security.ValidateOptionsInEnv(env, opts.securityView())
	m.logWarnings(name, or.Warnings)
	if !or.Valid {
		return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(or.Errors, "; "))
	}

	merged := opts.withDefaults(env)
	merged.Name = name

	m.mu.Lock()
	if m.cache == nil {
		m.cache = make(map[string]*record)
	}
	if rec, ok := m.cache[name]; ok {
		est := rec.establishment
		m.mu.Unlock()
		return est.AwaitContext(ctx)
	}

	rec := newRecord(name, merged)
	// Insert before the first blocking call so concurrent requests for this
	// name join this attempt instead of racing a duplicate dial.
	m.cache[name] = rec
	// The establishment outlives the caller's context: a caller whose wait
	// times out does not abort the dial for everyone else awaiting it.
	rec.establishment = async.Run(context.WithoutCancel(ctx), func(ctx context.Context) (Handle, error) {
		return m.establish(ctx, rec, target, merged)
	})
	est := rec.establishment
	m.mu.Unlock()

	return est.AwaitContext(ctx)
}

// establish runs the bounded retry loop for one record. On success it wires
// event listeners and registers process shutdown handlers; on exhaustion it
// removes the record from the cache before reporting failure.
func (m *Manager) establish(ctx context.Context, rec *record, target string, opts Options) (Handle, error) {
	redacted := security.Redact(target)
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		m.log.Info("connecting",
			slog.String("connection", rec.name),
			slog.String("target", redacted),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", opts.MaxRetries))

		handle, err := m.attempt(ctx, target, opts)
		if err == nil {
			m.mu.Lock()
			if m.cache[rec.name] != rec {
				// Closed or reset while the dial was in flight. The cache
				// no longer owns this record, so the handle must not leak.
				m.mu.Unlock()
				_ = handle.Close(context.WithoutCancel(ctx))
				return nil, fmt.Errorf("%w: connection %q was closed during establishment", ErrNotFound, rec.name)
			}
			rec.handle = handle
			rec.connectedAt = time.Now()
			rec.host = handle.Host()
			rec.databaseName = handle.DatabaseName()
			rec.lastError = nil
			rec.setState(StateConnected)
			m.mu.Unlock()

			handle.Subscribe(m.listenerFor(rec))
			m.registerShutdownHandlers()
			if opts.OnConnect != nil {
				m.safeInvoke(rec.name, "onConnect", func() { opts.OnConnect(handle) })
			}
			m.log.Info("connection established",
				slog.String("connection", rec.name),
				slog.String("host", rec.host),
				slog.String("database", rec.databaseName))
			return handle, nil
		}

		lastErr = err
		m.mu.Lock()
		rec.lastError = err
		rec.retryCount = attempt
		m.mu.Unlock()

		if opts.OnError != nil {
			attemptErr := err
			m.safeInvoke(rec.name, "onError", func() { opts.OnError(rec.name, attemptErr) })
		}
		m.log.Warn("connection attempt failed",
			slog.String("connection", rec.name),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt < opts.MaxRetries {
			select {
			case <-time.After(opts.RetryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = opts.MaxRetries
			}
		}
	}

	m.mu.Lock()
	rec.setState(StateError)
	if m.cache[rec.name] == rec {
		delete(m.cache, rec.name)
	}
	m.mu.Unlock()

	return nil, fmt.Errorf("%w: %d attempts to reach %s failed, last error: %v",
		ErrEstablishment, opts.MaxRetries, redacted, lastErr)
}

// attempt performs a single dial bounded by the connection timeout and
// waits for the handle to report readiness.
func (m *Manager) attempt(ctx context.Context, target string, opts Options) (Handle, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.ConnectionTimeout)
	defer cancel()

	dial := async.Run(attemptCtx, func(ctx context.Context) (Handle, error) {
		return m.driver.Connect(ctx, target, opts)
	})
	handle, err := dial.AwaitWithTimeout(opts.ConnectionTimeout)
	if err != nil {
		if errors.Is(err, async.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: connection not ready within %s", ErrTimeout, opts.ConnectionTimeout)
		}
		return nil, err
	}

	if err := waitReady(attemptCtx, handle, opts.ConnectionTimeout); err != nil {
		_ = handle.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return handle, nil
}

// waitReady polls the handle's readiness until it reports connected,
// bounded by the context deadline.
func waitReady(ctx context.Context, handle Handle, timeout time.Duration) error {
	if handle.ReadyState() == ReadyStateConnected {
		return nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if handle.ReadyState() == ReadyStateConnected {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("%w: connection not ready within %s", ErrTimeout, timeout)
		}
	}
}

// GetConnectionHandle returns the live handle for a cached connection.
func (m *Manager) GetConnectionHandle(name string) (Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.cache[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if rec.handle == nil {
		return nil, fmt.Errorf("%w: %q is still establishing", ErrNotReady, name)
	}
	return rec.handle, nil
}

// IsConnected reports whether the named connection is usable. Both the
// driver's readiness code and the record's own state must agree: the two
// can transiently diverge when readiness flips before the event handler
// updates the record.
func (m *Manager) IsConnected(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.cache[name]
	if !ok || rec.handle == nil {
		return false
	}
	return rec.state == StateConnected && rec.handle.ReadyState() == ReadyStateConnected
}

// Verification is the diagnostic breakdown of the dual connectivity check.
type Verification struct {
	IsConnected     bool
	ReadyState      ReadyState
	ConnectionState State
	Details         VerificationDetails
}

// VerificationDetails separates the two signals so callers can tell
// "driver ready but bookkeeping lagging" from true disagreement.
type VerificationDetails struct {
	ReadyStateConnected bool
	StateConnected      bool
}

// IsConnectedWithVerification performs the same dual check as IsConnected
// but surfaces both signals individually.
func (m *Manager) IsConnectedWithVerification(name string) Verification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := Verification{ReadyState: ReadyStateDisconnected}
	rec, ok := m.cache[name]
	if !ok {
		return v
	}
	v.ConnectionState = rec.state
	if rec.handle != nil {
		v.ReadyState = rec.handle.ReadyState()
	}
	v.Details.ReadyStateConnected = v.ReadyState == ReadyStateConnected
	v.Details.StateConnected = rec.state == StateConnected
	v.IsConnected = v.Details.ReadyStateConnected && v.Details.StateConnected
	return v
}

// GetConnectionInfo returns a snapshot of the named record, or nil when no
// record exists.
func (m *Manager) GetConnectionInfo(name string) *ConnectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.cache[name]
	if !ok {
		return nil
	}
	return rec.info()
}

// GetAllConnectionsInfo returns snapshots for every cached record.
func (m *Manager) GetAllConnectionsInfo() map[string]*ConnectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make(map[string]*ConnectionInfo, len(m.cache))
	for name, rec := range m.cache {
		infos[name] = rec.info()
	}
	return infos
}

// connectionNames returns the sorted cache keys. Callers hold no lock.
func (m *Manager) connectionNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectionNamesLocked()
}

func (m *Manager) connectionNamesLocked() []string {
	names := make([]string, 0, len(m.cache))
	for name := range m.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) logWarnings(name string, warnings []string) {
	for _, w := range warnings {
		m.log.Warn("security warning", slog.String("connection", name), slog.String("warning", w))
	}
}
