package connector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongoconnect/pkg/config"
	"github.com/dmitrymomot/mongoconnect/pkg/connector"
)

func TestWaitForConnection_ResolvesDuringEstablishment(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{dialDelay: 100 * time.Millisecond}
	m := newTestManager(driver)

	done := make(chan error, 1)
	go func() {
		_, err := m.Connect(context.Background(), validTarget, fastOpts())
		done <- err
	}()

	require.NoError(t, m.WaitForConnection(context.Background(), "default", 2*time.Second))
	assert.True(t, m.IsConnected("default"))
	require.NoError(t, <-done)
}

func TestWaitForConnection_TimesOut(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeDriver{})

	err := m.WaitForConnection(context.Background(), "never", 60*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, connector.ErrTimeout)
	assert.Contains(t, err.Error(), `"never"`)
}

func TestWaitForConnection_ContextCancellation(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeDriver{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.WaitForConnection(ctx, "never", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetConnectionWithTimeout(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	m := newTestManager(driver)

	want, err := m.Connect(context.Background(), validTarget, fastOpts())
	require.NoError(t, err)

	got, err := m.GetConnectionWithTimeout(context.Background(), "default", time.Second)
	require.NoError(t, err)
	assert.Same(t, want, got)

	_, err = m.GetConnectionWithTimeout(context.Background(), "missing", 60*time.Millisecond)
	assert.ErrorIs(t, err, connector.ErrTimeout)
}

func TestQuickConnect_ReadsTargetFromEnvironment(t *testing.T) {
	config.Reset()
	t.Setenv("MONGODB_URI", validTarget)
	t.Setenv("MONGODB_MAX_RETRIES", "2")
	t.Setenv("MONGODB_RETRY_DELAY", "1ms")
	t.Setenv("MONGODB_CONNECTION_TIMEOUT", "1s")
	t.Cleanup(config.Reset)

	driver := &fakeDriver{}
	m := newTestManager(driver)

	handle, err := m.QuickConnect(context.Background(), "quick", connector.Options{})
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.True(t, m.IsConnected("quick"))
	assert.Equal(t, 1, driver.dialCount())
}

func TestQuickConnect_EnvRetrySettingsApply(t *testing.T) {
	config.Reset()
	t.Setenv("MONGODB_URI", validTarget)
	t.Setenv("MONGODB_MAX_RETRIES", "2")
	t.Setenv("MONGODB_RETRY_DELAY", "1ms")
	t.Setenv("MONGODB_CONNECTION_TIMEOUT", "1s")
	t.Cleanup(config.Reset)

	driver := &fakeDriver{dialErr: errDialRefused}
	m := newTestManager(driver)

	_, err := m.QuickConnect(context.Background(), "quick", connector.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, connector.ErrEstablishment)
	assert.Equal(t, 2, driver.dialCount())
}

func TestConnect_EnvTargetPriority(t *testing.T) {
	config.Reset()
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_URL", "mongodb://fallback.internal:27017/app")
	t.Setenv("DATABASE_URL", "mongodb://generic.internal:27017/app")
	t.Cleanup(config.Reset)

	driver := &fakeDriver{}
	m := newTestManager(driver)

	_, err := m.Connect(context.Background(), "", fastOpts())
	require.NoError(t, err)

	// MONGODB_URL outranks DATABASE_URL when MONGODB_URI is unset.
	assert.Equal(t, "mongodb://fallback.internal:27017/app", driver.dialedTarget())
	assert.Equal(t, 1, driver.dialCount())
}
