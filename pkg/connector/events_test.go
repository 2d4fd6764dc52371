package connector_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongoconnect/pkg/connector"
)

// callbackRecorder collects lifecycle callback invocations.
type callbackRecorder struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	errs        []error
}

func (r *callbackRecorder) options(base connector.Options) connector.Options {
	base.OnConnect = func(connector.Handle) {
		r.mu.Lock()
		r.connects++
		r.mu.Unlock()
	}
	base.OnDisconnect = func(string) {
		r.mu.Lock()
		r.disconnects++
		r.mu.Unlock()
	}
	base.OnError = func(_ string, err error) {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	}
	return base
}

func (r *callbackRecorder) snapshot() (int, int, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects, r.disconnects, append([]error(nil), r.errs...)
}

func TestDriverEvents_UpdateRecordState(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	m := newTestManager(driver)
	rec := &callbackRecorder{}

	_, err := m.Connect(context.Background(), validTarget, rec.options(fastOpts()))
	require.NoError(t, err)
	handle := driver.lastHandle()

	t.Run("error event", func(t *testing.T) {
		wantErr := errors.New("topology error")
		handle.emit(connector.HandleEventError, wantErr)

		info := m.GetConnectionInfo("default")
		require.NotNil(t, info)
		assert.Equal(t, connector.StateError, info.State)
		assert.Equal(t, wantErr.Error(), info.LastError)

		_, _, errs := rec.snapshot()
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], wantErr)
	})

	t.Run("disconnected event", func(t *testing.T) {
		handle.emit(connector.HandleEventDisconnected, nil)

		info := m.GetConnectionInfo("default")
		require.NotNil(t, info)
		assert.Equal(t, connector.StateDisconnected, info.State)
		assert.True(t, info.ConnectedAt.IsZero())
		assert.False(t, m.IsConnected("default"))

		_, disconnects, _ := rec.snapshot()
		assert.Equal(t, 1, disconnects)
	})

	t.Run("reconnected event", func(t *testing.T) {
		handle.emit(connector.HandleEventReconnected, nil)

		info := m.GetConnectionInfo("default")
		require.NotNil(t, info)
		assert.Equal(t, connector.StateConnected, info.State)
		assert.False(t, info.ConnectedAt.IsZero())
		assert.Empty(t, info.LastError)
		assert.True(t, m.IsConnected("default"))

		connects, _, _ := rec.snapshot()
		// Once at establishment, once on reconnection.
		assert.Equal(t, 2, connects)
	})
}

func TestDriverEvents_AfterCloseAreIgnored(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	m := newTestManager(driver)
	ctx := context.Background()

	_, err := m.Connect(ctx, validTarget, fastOpts())
	require.NoError(t, err)
	handle := driver.lastHandle()

	require.NoError(t, m.CloseConnection(ctx, "default"))

	// Stale events from the closed handle must not resurrect the record.
	handle.emit(connector.HandleEventReconnected, nil)
	assert.Nil(t, m.GetConnectionInfo("default"))
	assert.Zero(t, m.GetPoolStats().TotalConnections)
}

func TestDriverEvents_CallbackPanicIsIsolated(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	m := newTestManager(driver)

	opts := fastOpts()
	opts.OnDisconnect = func(string) { panic("observer bug") }

	_, err := m.Connect(context.Background(), validTarget, opts)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		driver.lastHandle().emit(connector.HandleEventDisconnected, nil)
	})
	info := m.GetConnectionInfo("default")
	require.NotNil(t, info)
	assert.Equal(t, connector.StateDisconnected, info.State)
}
