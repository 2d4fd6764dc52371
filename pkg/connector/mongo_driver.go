package connector

import (
	"context"
	"crypto/tls"
	"strings"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// mongoDriver dials real MongoDB connections.
type mongoDriver struct{}

// NewMongoDriver returns the production Driver backed by the official
// MongoDB driver.
func NewMongoDriver() Driver {
	return mongoDriver{}
}

func (mongoDriver) Connect(ctx context.Context, target string, opts Options) (Handle, error) {
	host, dbName := parseTargetParts(target)
	h := &MongoHandle{host: host, dbName: dbName}
	h.ready.Store(int32(ReadyStateConnecting))

	clientOpts := options.Client().
		ApplyURI(target).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize).
		SetConnectTimeout(opts.ConnectTimeout).
		SetServerSelectionTimeout(opts.ServerSelectionTimeout).
		SetHeartbeatInterval(opts.HeartbeatInterval).
		SetRetryWrites(*opts.RetryWrites).
		SetRetryReads(*opts.RetryReads).
		SetServerMonitor(h.serverMonitor()).
		SetPoolMonitor(h.poolMonitor())

	if opts.OperationTimeout > 0 {
		clientOpts.SetTimeout(opts.OperationTimeout)
	}
	if opts.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(opts.MaxConnIdleTime)
	}
	if opts.MaxConnecting > 0 {
		clientOpts.SetMaxConnecting(opts.MaxConnecting)
	}

	if opts.TLSInsecure || opts.TLSAllowInvalidHostnames {
		// Development-only paths; production rejects these in validation.
		clientOpts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	} else if opts.TLSEnabled != nil && *opts.TLSEnabled && strings.HasPrefix(target, "mongodb+srv://") {
		// SRV targets are TLS by default; only pin the minimum version.
		clientOpts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		h.ready.Store(int32(ReadyStateDisconnected))
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		h.ready.Store(int32(ReadyStateDisconnected))
		return nil, err
	}

	h.client = client
	h.ready.Store(int32(ReadyStateConnected))
	return h, nil
}

// MongoHandle is the live-connection adapter over *mongo.Client. Its ready
// state tracks server heartbeats and pool events, mirroring the readiness
// code contract the manager checks.
type MongoHandle struct {
	client *mongo.Client
	host   string
	dbName string

	ready atomic.Int32

	mu        sync.RWMutex
	listeners []HandleListener
}

func (h *MongoHandle) ReadyState() ReadyState {
	return ReadyState(h.ready.Load())
}

func (h *MongoHandle) Host() string { return h.host }

func (h *MongoHandle) DatabaseName() string { return h.dbName }

func (h *MongoHandle) Subscribe(listener HandleListener) {
	if listener == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, listener)
	h.mu.Unlock()
}

func (h *MongoHandle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}

func (h *MongoHandle) Close(ctx context.Context) error {
	h.ready.Store(int32(ReadyStateDisconnecting))
	err := h.client.Disconnect(ctx)
	h.ready.Store(int32(ReadyStateDisconnected))
	return err
}

// Client exposes the underlying driver client for query and model access.
func (h *MongoHandle) Client() *mongo.Client { return h.client }

// Database returns the database the connection target named, or nil when
// the target had no database path.
func (h *MongoHandle) Database() *mongo.Database {
	if h.dbName == "" {
		return nil
	}
	return h.client.Database(h.dbName)
}

func (h *MongoHandle) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			// Only a transition from a non-ready state is a reconnection.
			if h.ready.Swap(int32(ReadyStateConnected)) != int32(ReadyStateConnected) {
				h.notify(HandleEventReconnected, nil)
			}
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			h.ready.Store(int32(ReadyStateDisconnected))
			h.notify(HandleEventError, e.Failure)
		},
	}
}

func (h *MongoHandle) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			if e.Type == event.ConnectionPoolCleared {
				h.ready.Store(int32(ReadyStateDisconnected))
				h.notify(HandleEventDisconnected, nil)
			}
		},
	}
}

func (h *MongoHandle) notify(ev HandleEvent, err error) {
	h.mu.RLock()
	listeners := make([]HandleListener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.RUnlock()

	for _, listener := range listeners {
		listener(ev, err)
	}
}

// parseTargetParts extracts the first host and the database name from a
// connection target for diagnostic purposes.
func parseTargetParts(target string) (host, dbName string) {
	_, rest, found := strings.Cut(target, "://")
	if !found {
		return "", ""
	}

	authority := rest
	var tail string
	if idx := strings.IndexAny(rest, "/?"); idx >= 0 {
		authority = rest[:idx]
		tail = rest[idx:]
	}
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		authority = authority[at+1:]
	}
	host = authority
	if comma := strings.Index(host, ","); comma >= 0 {
		host = host[:comma]
	}

	if strings.HasPrefix(tail, "/") {
		dbName = strings.TrimPrefix(tail, "/")
		if q := strings.Index(dbName, "?"); q >= 0 {
			dbName = dbName[:q]
		}
	}
	return host, dbName
}
