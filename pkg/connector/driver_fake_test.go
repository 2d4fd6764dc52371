package connector_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/mongoconnect/pkg/connector"
)

// fakeHandle is an in-memory Handle whose readiness and events are driven
// by the test.
type fakeHandle struct {
	host   string
	dbName string

	ready  atomic.Int32
	closed atomic.Bool

	pingErr  error
	pingedCh chan struct{}

	mu        sync.Mutex
	listeners []connector.HandleListener
}

func newFakeHandle(host, dbName string) *fakeHandle {
	h := &fakeHandle{host: host, dbName: dbName, pingedCh: make(chan struct{}, 16)}
	h.ready.Store(int32(connector.ReadyStateConnected))
	return h
}

func (h *fakeHandle) ReadyState() connector.ReadyState {
	return connector.ReadyState(h.ready.Load())
}

func (h *fakeHandle) setReadyState(rs connector.ReadyState) {
	h.ready.Store(int32(rs))
}

func (h *fakeHandle) Host() string         { return h.host }
func (h *fakeHandle) DatabaseName() string { return h.dbName }

func (h *fakeHandle) Subscribe(listener connector.HandleListener) {
	h.mu.Lock()
	h.listeners = append(h.listeners, listener)
	h.mu.Unlock()
}

func (h *fakeHandle) Ping(ctx context.Context) error {
	select {
	case h.pingedCh <- struct{}{}:
	default:
	}
	return h.pingErr
}

func (h *fakeHandle) Close(ctx context.Context) error {
	h.closed.Store(true)
	h.ready.Store(int32(connector.ReadyStateDisconnected))
	return nil
}

// emit delivers an asynchronous driver event to all subscribers, flipping
// the readiness code the way the real adapter does.
func (h *fakeHandle) emit(event connector.HandleEvent, err error) {
	switch event {
	case connector.HandleEventReconnected:
		h.ready.Store(int32(connector.ReadyStateConnected))
	default:
		h.ready.Store(int32(connector.ReadyStateDisconnected))
	}

	h.mu.Lock()
	listeners := make([]connector.HandleListener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, listener := range listeners {
		listener(event, err)
	}
}

func (h *fakeHandle) pingCount() int { return len(h.pingedCh) }

// fakeDriver hands out fakeHandles, optionally failing the first N dials
// or delaying each dial.
type fakeDriver struct {
	mu         sync.Mutex
	dials      int
	failFirst  int
	dialErr    error
	dialDelay  time.Duration
	handles    []*fakeHandle
	lastTarget string
}

var errDialRefused = errors.New("dial refused")

func (d *fakeDriver) Connect(ctx context.Context, target string, opts connector.Options) (connector.Handle, error) {
	d.mu.Lock()
	d.dials++
	d.lastTarget = target
	attempt := d.dials
	delay := d.dialDelay
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	if attempt <= d.failFirst {
		return nil, errDialRefused
	}

	h := newFakeHandle("db.internal", "app")
	d.handles = append(d.handles, h)
	return h, nil
}

func (d *fakeDriver) dialedTarget() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastTarget
}

func (d *fakeDriver) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDriver) lastHandle() *fakeHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.handles) == 0 {
		return nil
	}
	return d.handles[len(d.handles)-1]
}
